package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"
)

// Poller drives the progress loop for one session. The first poll fires
// immediately, later polls on the tool's fixed interval. A failed tick is
// logged and swallowed, polling continues until a terminal status shows
// up or ctx is canceled. There is no retry cap and no backoff.
type Poller struct {
	Client    *Client
	Tool      Tool
	SessionID string
	// invoked synchronously from the polling loop on every observation
	OnProgress func(p Progress, percent int)
}

// Run blocks until the session reaches a terminal status and returns the
// final observation. Exactly one terminal transition happens per run, the
// ticker is stopped before the terminal callback so nothing fires after
// Run returns. A status of error comes back as TerminalServerError,
// stopped and completed are for the caller to branch on.
func (p *Poller) Run(ctx context.Context) (Progress, error) {
	ctx, span := tracer.Start(ctx, "poller:Run")
	defer span.End()

	spec := p.Tool.Spec()
	if spec.PollInterval <= 0 {
		return Progress{}, errors.New("tool has no polling contract")
	}
	if spec.ResultsByPolling {
		return p.runResultsMode(ctx, spec)
	}

	ticker := time.NewTicker(spec.PollInterval)
	defer ticker.Stop()

	for {
		progress, err := p.Client.Progress(ctx, p.Tool, p.SessionID)
		switch {
		case err != nil:
			var auth AuthExpiredError
			if errors.As(err, &auth) {
				span.SetStatus(codes.Error, "authentication expired during polling")
				return Progress{}, err
			}
			// transient, retry on the next tick
			slog.WarnContext(ctx, "progress poll failed",
				"tool", p.Tool,
				"session", p.SessionID,
				"err", err,
			)
		case progress.Status == StatusNotFound:
			// session row not written yet, treat like running
		case progress.Status.Terminal():
			ticker.Stop()
			p.notify(progress)
			if progress.Status == StatusError {
				span.SetStatus(codes.Error, "session ended in error")
				return progress, TerminalServerError{Status: progress.Status, Progress: progress}
			}
			return progress, nil
		default:
			p.notify(progress)
		}

		select {
		case <-ctx.Done():
			return Progress{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// tools without a progress endpoint poll their results endpoint until it
// has content
func (p *Poller) runResultsMode(ctx context.Context, spec Spec) (Progress, error) {
	ticker := time.NewTicker(spec.PollInterval)
	defer ticker.Stop()

	for {
		results, err := p.Client.FetchResults(ctx, p.Tool, p.SessionID)
		switch {
		case err != nil:
			var auth AuthExpiredError
			if errors.As(err, &auth) {
				return Progress{}, err
			}
			slog.WarnContext(ctx, "results poll failed",
				"tool", p.Tool,
				"session", p.SessionID,
				"err", err,
			)
		case !results.Empty():
			ticker.Stop()
			n := results.Len()
			progress := Progress{Completed: n, Total: n, Status: StatusCompleted}
			p.notify(progress)
			return progress, nil
		default:
			p.notify(Progress{Status: StatusRunning})
		}

		select {
		case <-ctx.Done():
			return Progress{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) notify(progress Progress) {
	if p.OnProgress == nil {
		return
	}
	p.OnProgress(progress, progress.Percent())
}
