package main

import (
	"sitetester-cli/cmd/sitetester/commands"
	"sitetester-cli/lib/cliutil"
	"sitetester-cli/lib/telemetry"
)

func main() {
	ctx := cliutil.SignalContext()

	telemetry.SetupFromEnv(ctx, "sitetester")
	telemetry.InstrumentPerfStats(ctx)

	commands.ExecuteContext(ctx)
}
