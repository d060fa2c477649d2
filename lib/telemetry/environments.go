package telemetry

import (
	"context"
	"log/slog"
	"os"
	"sitetester-cli/lib/configutil"
	"testing"
)

var setupTestEnvironments = map[string]bool{}

// sets up telemetry in a testing environment, ensuring that it isn't
// set up more than once
func SetupForTesting(t testing.TB, serviceName string) func() {
	if setupTestEnvironments[serviceName] {
		return func() {}
	}
	setupTestEnvironments[serviceName] = true

	InitSlog(true)
	err := SetupFromEnv(context.Background(), serviceName)
	if err != nil {
		t.Fatal(err)
	}

	return func() {
		err := Shutdown(context.Background())
		if err != nil {
			t.Fatal(err)
		}
	}
}

// searches up the filesystem from the cwd to find a file called
// telemetry.json5 and uses it to set up telemetry. no file means
// telemetry stays disabled, which is not an error.
func SetupFromEnv(ctx context.Context, serviceName string) error {
	config, err := configutil.ReadRecursively[Config]("telemetry.json5")
	if os.IsNotExist(err) {
		slog.DebugContext(ctx, "no telemetry.json5 found, telemetry disabled")
		return nil
	}
	if err != nil {
		return err
	}
	return Setup(ctx, serviceName, config)
}
