package commands

import (
	"log/slog"
	"os"
	"sitetester-cli/lib/audit"
	"sitetester-cli/lib/cliutil"
	"sitetester-cli/lib/urlutil"

	"github.com/spf13/cobra"
)

var uploadShorts = map[audit.Tool]string{
	audit.ToolMetaTags:      "Audits titles, descriptions and other meta tags across pages.",
	audit.ToolSitemap:       "Validates a sitemap.xml and samples its urls for reachability.",
	audit.ToolPhone:         "Finds phone numbers across pages and flags formatting issues.",
	audit.ToolPerformance:   "Measures TTFB, FCP and page load timings per page.",
	audit.ToolAccessibility: "Runs accessibility checks and reports violations by impact.",
	audit.ToolH1:            "Checks that every page has exactly one h1.",
}

func init() {
	for _, tool := range []audit.Tool{
		audit.ToolMetaTags,
		audit.ToolSitemap,
		audit.ToolPhone,
		audit.ToolPerformance,
		audit.ToolAccessibility,
		audit.ToolH1,
	} {
		rootCmd.AddCommand(newUploadCommand(tool))
	}
}

// newUploadCommand builds the subcommand for one upload-style tool. The
// six tools share a form, only phone and performance add a field.
func newUploadCommand(tool audit.Tool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   commandName(tool) + " [urls...] [--urls-file <path>] --name <session_name>",
		Short: uploadShorts[tool],
	}

	name := cmd.Flags().String("name", "", "The session name shown in history and notifications.")
	urlsFile := cmd.Flags().String("urls-file", "", "A file with one url per line, non-url lines are skipped.")
	restart := cmd.Flags().String("restart", "", "Reruns a saved session configuration instead of taking urls.")
	out := cmd.Flags().String("out", "", "The csv path to export results to. Defaults to a name derived from the session.")
	noExport := cmd.Flags().Bool("no-export", false, "Skips the csv export.")
	email := cmd.Flags().String("email", "", "Sends a summary email with the csv attached to this address.")

	var targetNumbers *string
	if tool == audit.ToolPhone {
		targetNumbers = cmd.Flags().String("target-numbers", "", "Comma-separated numbers that are expected to appear on every page.")
	}
	var strategy *string
	if tool == audit.ToolPerformance {
		strategy = cmd.Flags().String("strategy", "desktop", "The device profile to measure with, desktop or mobile.")
	}

	cmd.Run = func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg)
		store, closeStore := openStore(cfg)
		defer closeStore()

		ctx := cmd.Context()
		opts := runOptions{
			outPath:  *out,
			noExport: *noExport,
			email:    *email,
		}

		if *restart != "" {
			rc := takeRestart(ctx, store, *restart)
			if rc.Tool != tool {
				slog.Warn("restart configuration was saved by another tool, running that one",
					"session", rc.SessionID,
					"tool", rc.Tool,
				)
			}
			dispatchRestart(ctx, cfg, client, store, rc, opts)
			return
		}

		urls := args
		if *urlsFile != "" {
			content, err := os.ReadFile(*urlsFile)
			if err != nil {
				cliutil.Fatal("failed to read urls file", err)
			}
			urls = append(urls, urlutil.FilterText(string(content))...)
		}

		req := audit.UploadRequest{
			Tool: tool,
			Name: *name,
			URLs: urls,
		}
		if targetNumbers != nil {
			req.TargetNumbers = *targetNumbers
		}
		if strategy != nil {
			req.Strategy = *strategy
		}
		runUpload(ctx, cfg, client, store, req, opts)
	}
	return cmd
}
