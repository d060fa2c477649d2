package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var visualReport *string
var visualRestart *string
var visualOut *string
var visualNoExport *bool
var visualEmail *string

func init() {
	visualReport = visualCmd.Flags().String("report", "", "Writes a standalone html report with screenshots and diff overlays to this path.")
	visualRestart = visualCmd.Flags().String("restart", "", "Reruns a saved session configuration instead of taking urls.")
	visualOut = visualCmd.Flags().String("out", "", "The csv path to export results to. Defaults to a name derived from the session.")
	visualNoExport = visualCmd.Flags().Bool("no-export", false, "Skips the csv export.")
	visualEmail = visualCmd.Flags().String("email", "", "Sends a summary email with the csv attached to this address.")
	rootCmd.AddCommand(visualCmd)
}

var visualCmd = &cobra.Command{
	Use:   "visual <base_url> <compare_url> [--report <path>]",
	Short: "Screenshots two pages and reports pixel and dom differences.",
	Args:  cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg)
		store, closeStore := openStore(cfg)
		defer closeStore()

		ctx := cmd.Context()
		opts := runOptions{
			outPath:    *visualOut,
			noExport:   *visualNoExport,
			email:      *visualEmail,
			reportPath: *visualReport,
		}

		if *visualRestart != "" {
			rc := takeRestart(ctx, store, *visualRestart)
			dispatchRestart(ctx, cfg, client, store, rc, opts)
			return
		}

		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "expected two urls: <base_url> <compare_url>")
			os.Exit(1)
		}
		runVisualSession(ctx, cfg, client, store, args[0], args[1], opts)
	},
}
