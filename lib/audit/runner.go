package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
)

// Runner owns the state of one tool invocation: the session id, the
// poller and the cached results. It is single-flight, submitting while a
// session is active returns ErrSessionActive.
type Runner struct {
	client *Client
	tool   Tool

	mu        sync.Mutex
	active    bool
	sessionID string
	results   *Results
}

func NewRunner(client *Client, tool Tool) *Runner {
	return &Runner{client: client, tool: tool}
}

// RunCallbacks observe a run as it happens. All callbacks are invoked
// synchronously from the run, nil entries are skipped.
type RunCallbacks struct {
	// the backend acknowledged the submission
	OnSubmitted func(sessionID string, totalExpected int)
	// one progress observation with its derived percent
	OnProgress func(p Progress, percent int)
	// terminal status observed, fires before the settle delay
	OnTerminal func(p Progress)
}

// Outcome is what a finished run leaves behind.
type Outcome struct {
	SessionID string
	Final     Progress
	Results   Results
}

// Run drives one upload-style session end to end: submit, poll, settle,
// fetch. Completed runs cache their results for export. A stopped
// session returns a nil error with empty results, the final status tells
// the caller which path it was.
func (r *Runner) Run(ctx context.Context, req UploadRequest, cb RunCallbacks) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "runner:Run")
	defer span.End()

	if req.Tool != r.tool {
		return Outcome{}, ValidationError{Msg: "request tool does not match this runner"}
	}
	if err := r.begin(); err != nil {
		return Outcome{}, err
	}
	defer r.end()

	sub, err := r.client.SubmitUpload(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, "submit failed")
		return Outcome{}, err
	}
	r.setSession(sub.SessionID)
	if cb.OnSubmitted != nil {
		cb.OnSubmitted(sub.SessionID, sub.TotalExpected)
	}

	return r.pollAndFetch(ctx, sub.SessionID, cb)
}

// RunVisual drives a visual regression session the same way.
func (r *Runner) RunVisual(ctx context.Context, baseURL, compareURL string, cb RunCallbacks) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "runner:RunVisual")
	defer span.End()

	if r.tool != ToolVisual {
		return Outcome{}, ValidationError{Msg: "runner is not configured for visual regression"}
	}
	if err := r.begin(); err != nil {
		return Outcome{}, err
	}
	defer r.end()

	sessionID, err := r.client.SubmitVisual(ctx, baseURL, compareURL)
	if err != nil {
		span.SetStatus(codes.Error, "submit failed")
		return Outcome{}, err
	}
	r.setSession(sessionID)
	if cb.OnSubmitted != nil {
		cb.OnSubmitted(sessionID, 1)
	}

	return r.pollAndFetch(ctx, sessionID, cb)
}

func (r *Runner) pollAndFetch(ctx context.Context, sessionID string, cb RunCallbacks) (Outcome, error) {
	out := Outcome{SessionID: sessionID}

	poller := &Poller{
		Client:     r.client,
		Tool:       r.tool,
		SessionID:  sessionID,
		OnProgress: cb.OnProgress,
	}
	final, err := poller.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			r.stopRemote(sessionID)
		}
		out.Final = final
		return out, err
	}
	out.Final = final
	if cb.OnTerminal != nil {
		cb.OnTerminal(final)
	}

	if final.Status == StatusStopped {
		return out, nil
	}

	// the backend finishes writing results just after reporting
	// completed, the settle delay papers over that window
	if err := sleepCtx(ctx, r.tool.Spec().SettleDelay); err != nil {
		return out, err
	}

	results, err := r.client.FetchResults(ctx, r.tool, sessionID)
	if err != nil {
		return out, err
	}
	out.Results = results
	r.cacheResults(results)
	return out, nil
}

// Results returns the cached payload of the last completed run.
func (r *Runner) Results() (Results, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		return Results{}, false
	}
	return *r.results, true
}

// SessionID returns the id of the active or most recent session.
func (r *Runner) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID
}

func (r *Runner) begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return ErrSessionActive
	}
	r.active = true
	r.results = nil
	r.sessionID = ""
	return nil
}

func (r *Runner) end() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
}

func (r *Runner) setSession(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessionID = id
}

func (r *Runner) cacheResults(results Results) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = &results
}

// best-effort stop on a fresh context, the caller's is already canceled
func (r *Runner) stopRemote(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	if err := r.client.StopSession(ctx, sessionID); err != nil {
		slog.Warn("failed to stop session after cancellation",
			"session", sessionID,
			"err", err,
		)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
