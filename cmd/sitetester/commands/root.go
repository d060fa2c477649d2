package commands

import (
	"context"
	"fmt"
	"os"
	"sitetester-cli/lib/audit"
	"sitetester-cli/lib/cliutil"
	"sitetester-cli/lib/configuration"
	"sitetester-cli/lib/configutil"
	"sitetester-cli/lib/notify"
	"sitetester-cli/lib/state"
	"sitetester-cli/lib/telemetry"
	"time"

	"github.com/spf13/cobra"
)

type Config struct {
	BaseUrl     string `json:"base_url"`
	AccessToken string `json:"access_token"`
	// zero keeps the client default of 30 seconds
	RequestTimeoutSeconds int                  `json:"request_timeout_seconds"`
	StateDb               configuration.Sqlite `json:"state_db"`
	Smtp                  notify.SmtpConfig    `json:"smtp"`
}

var configPath *string
var verbose *bool

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "sitetester.json5", "The configuration file to read. A <name>.local.json5 next to it overrides fields.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enables debug logging.")
}

var rootCmd = &cobra.Command{
	Use:   "sitetester",
	Short: "sitetester drives SiteTester web audits from the terminal.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() Config {
	cfg, err := configutil.ReadConfig[Config](*configPath)
	if os.IsNotExist(err) {
		cliutil.Fatal("no configuration found", fmt.Errorf("write %s with at least a base_url", *configPath))
	}
	if err != nil {
		cliutil.Fatal("failed to read config", err)
	}
	if cfg.BaseUrl == "" {
		cliutil.Fatal("invalid configuration", fmt.Errorf("%s does not set base_url", *configPath))
	}
	if cfg.StateDb.File == "" && cfg.StateDb.Url == "" {
		cfg.StateDb.File = "~/.local/state/sitetester/sessions.db"
	}
	return cfg
}

func newClient(cfg Config) *audit.Client {
	client, err := audit.NewClient(audit.ClientOptions{
		BaseUrl:     cfg.BaseUrl,
		AccessToken: cfg.AccessToken,
		Timeout:     time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
	})
	if err != nil {
		cliutil.Fatal("failed to initialize client", err)
	}
	return client
}

func openStore(cfg Config) (state.Store, func()) {
	database, err := cfg.StateDb.OpenDB()
	if err != nil {
		cliutil.Fatal("failed to open state db", err)
	}
	store, err := state.NewStore(database)
	if err != nil {
		database.Close()
		cliutil.Fatal("failed to initialize state db", err)
	}
	return store, func() { database.Close() }
}

// the subcommand that submits sessions of this tool, used in rerun hints
func commandName(tool audit.Tool) string {
	switch tool {
	case audit.ToolURLCompare:
		return "compare"
	case audit.ToolVisual:
		return "visual"
	case audit.ToolMetaTags:
		return "meta"
	}
	return string(tool)
}
