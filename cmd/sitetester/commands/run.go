package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sitetester-cli/lib/audit"
	"sitetester-cli/lib/cliutil"
	"sitetester-cli/lib/export"
	"sitetester-cli/lib/notify"
	"sitetester-cli/lib/render"
	"sitetester-cli/lib/report"
	"sitetester-cli/lib/state"
	"time"
)

// runOptions carries the output-side flags shared by the audit commands.
type runOptions struct {
	outPath  string
	noExport bool
	email    string
	// visual only, writes the html report here
	reportPath string
}

// runUpload drives one upload-style audit end to end: submit, live
// progress, results table, csv export and the optional email.
func runUpload(ctx context.Context, cfg Config, client *audit.Client, store state.Store, req audit.UploadRequest, opts runOptions) {
	runner := audit.NewRunner(client, req.Tool)

	var progress *render.LiveProgress
	outcome, err := runner.Run(ctx, req, audit.RunCallbacks{
		OnSubmitted: func(sessionID string, totalExpected int) {
			fmt.Printf("Session %s submitted, %d pages expected.\n", sessionID, totalExpected)
			recordSession(ctx, store, state.Session{
				SessionID: sessionID,
				Tool:      req.Tool,
				Name:      req.Name,
				URLCount:  totalExpected,
			})
			progress = render.NewLiveProgress(os.Stdout, string(req.Tool)+" audit")
		},
		OnProgress: func(p audit.Progress, percent int) {
			progress.Observe(p)
		},
	})
	if progress != nil {
		progress.Finish(outcome.Final.Status)
	}
	if err != nil {
		exitRunError(err)
	}

	if outcome.Final.Status == audit.StatusStopped {
		showStopped(ctx, client, store)
		return
	}

	render.Results(os.Stdout, outcome.Results)
	exportAndNotify(ctx, cfg, outcome.Results, req.Name, opts)
}

// runVisualSession is the visual-regression variant of runUpload, with
// the html report bolted on.
func runVisualSession(ctx context.Context, cfg Config, client *audit.Client, store state.Store, baseURL, compareURL string, opts runOptions) {
	runner := audit.NewRunner(client, audit.ToolVisual)
	name := fmt.Sprintf("Visual: %s vs %s", baseURL, compareURL)

	var progress *render.LiveProgress
	outcome, err := runner.RunVisual(ctx, baseURL, compareURL, audit.RunCallbacks{
		OnSubmitted: func(sessionID string, totalExpected int) {
			fmt.Printf("Session %s submitted.\n", sessionID)
			recordSession(ctx, store, state.Session{
				SessionID: sessionID,
				Tool:      audit.ToolVisual,
				Name:      name,
				URLCount:  2,
			})
			progress = render.NewLiveProgress(os.Stdout, "visual regression")
		},
		OnProgress: func(p audit.Progress, percent int) {
			progress.Observe(p)
		},
	})
	if progress != nil {
		progress.Finish(outcome.Final.Status)
	}
	if err != nil {
		exitRunError(err)
	}

	if outcome.Final.Status == audit.StatusStopped {
		showStopped(ctx, client, store)
		return
	}

	render.Results(os.Stdout, outcome.Results)

	if opts.reportPath != "" && outcome.Results.Visual != nil {
		id := outcome.SessionID
		err := report.WriteFile(opts.reportPath, report.Params{
			SessionID:      id,
			BaseURL:        baseURL,
			CompareURL:     compareURL,
			BaseShotURL:    client.ScreenshotURL(path.Join("screenshots", id, "base.png")),
			CompareShotURL: client.ScreenshotURL(path.Join("screenshots", id, "compare.png")),
			Results:        outcome.Results.Visual,
			ResolveURL:     client.ScreenshotURL,
		})
		if err != nil {
			slog.Error("failed to write report", "path", opts.reportPath, "err", err)
		} else {
			fmt.Printf("Report written to %s\n", opts.reportPath)
		}
	}

	exportAndNotify(ctx, cfg, outcome.Results, name, opts)
}

// submitCompare starts a url comparison. The diff renders server-side,
// so there is nothing to poll, the command prints where to look.
func submitCompare(ctx context.Context, client *audit.Client, store state.Store, req audit.CompareRequest) {
	sessionID, err := client.SubmitCompare(ctx, req)
	if err != nil {
		exitRunError(err)
	}
	recordSession(ctx, store, state.Session{
		SessionID: sessionID,
		Tool:      audit.ToolURLCompare,
		Name:      fmt.Sprintf("Compare: %s vs %s", req.URLA, req.URLB),
		URLCount:  2,
	})
	fmt.Printf("Comparison %s submitted.\n", sessionID)
	fmt.Printf("View the diff at %s\n", client.CompareResultsURL(sessionID))
}

// takeRestart consumes a saved restart configuration. Consuming is
// at-most-once, a missing or already-used id ends the command, the
// normal flow is not attempted.
func takeRestart(ctx context.Context, store state.Store, id string) state.RestartConfig {
	rc, err := store.TakeRestart(ctx, id)
	if errors.Is(err, state.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "%s: %s (save one with: sitetester sessions restart %s)\n",
			id, audit.ErrRestartNotFound, id)
		os.Exit(1)
	}
	if err != nil {
		cliutil.Fatal("failed to read restart configuration", err)
	}
	return rc
}

// dispatchRestart reruns a consumed configuration through the tool it
// was saved from.
func dispatchRestart(ctx context.Context, cfg Config, client *audit.Client, store state.Store, rc state.RestartConfig, opts runOptions) {
	switch rc.Tool {
	case audit.ToolVisual, audit.ToolURLCompare:
		if len(rc.URLs) < 2 {
			cliutil.Fatal("invalid restart configuration",
				fmt.Errorf("session %s saved %d urls, expected 2", rc.SessionID, len(rc.URLs)))
		}
		if rc.Tool == audit.ToolVisual {
			runVisualSession(ctx, cfg, client, store, rc.URLs[0], rc.URLs[1], opts)
			return
		}
		submitCompare(ctx, client, store, audit.CompareRequest{URLA: rc.URLs[0], URLB: rc.URLs[1]})
	default:
		runUpload(ctx, cfg, client, store, audit.UploadRequest{
			Tool: rc.Tool,
			Name: rc.Name,
			URLs: rc.URLs,
		}, opts)
	}
}

// the page redirects to history shortly after a stop, mirror that here
func showStopped(ctx context.Context, client *audit.Client, store state.Store) {
	fmt.Println("Session was stopped before finishing.")
	time.Sleep(audit.StoppedRedirectDelay)
	showHistory(ctx, client, store, "", 10)
}

func exportAndNotify(ctx context.Context, cfg Config, results audit.Results, name string, opts runOptions) {
	if results.Empty() {
		if !opts.noExport || opts.email != "" {
			fmt.Println("Nothing to export.")
		}
		return
	}

	if !opts.noExport {
		out := opts.outPath
		if out == "" {
			out = export.Filename(results.Tool, results.SessionID)
		}
		if err := export.Write(out, results); err != nil {
			slog.Error("failed to write csv", "err", err)
		} else {
			fmt.Printf("Results exported to %s\n", out)
		}
	}

	if opts.email == "" {
		return
	}
	mailer := notify.NewMailer(cfg.Smtp)
	if !mailer.Enabled() {
		slog.Warn("smtp is not configured, skipping the email notification")
		return
	}
	csv, err := export.Build(results)
	if err != nil {
		slog.Warn("failed to build the csv attachment", "err", err)
		return
	}
	err = mailer.SendReport(ctx, notify.Report{
		To:          opts.email,
		Tool:        string(results.Tool),
		SessionID:   results.SessionID,
		SessionName: name,
		Summary:     render.SummaryLine(results),
		CsvName:     export.Filename(results.Tool, results.SessionID),
		Csv:         []byte(csv),
	})
	if err != nil {
		slog.Warn("failed to send the notification email", "err", err)
		return
	}
	fmt.Printf("Notification sent to %s\n", opts.email)
}

func recordSession(ctx context.Context, store state.Store, sess state.Session) {
	if err := store.RecordSession(ctx, sess); err != nil {
		slog.Warn("failed to record session in local history",
			"session", sess.SessionID,
			"err", err,
		)
	}
}

func exitRunError(err error) {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "canceled")
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
