package audit

import (
	"errors"
	"fmt"
)

var (
	// a Runner only drives one session at a time
	ErrSessionActive = errors.New("a session is already active")
	// export or render was requested with nothing cached
	ErrNoResults = errors.New("no results cached for this session")
	// restart configuration missing or already consumed
	ErrRestartNotFound = errors.New("restart configuration not found")
)

// ValidationError rejects input before any network call is made.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string {
	return e.Msg
}

// AuthExpiredError is any 401 from the backend. Unrecoverable for the
// current invocation, the caller should point the user at LoginURL.
type AuthExpiredError struct {
	LoginURL string
}

func (e AuthExpiredError) Error() string {
	return fmt.Sprintf("authentication expired, log in again at %s", e.LoginURL)
}

// RequestFailedError is a non-2xx response (other than 401) or a
// transport-level failure on a submit, results, stop or config call.
type RequestFailedError struct {
	Status int
	Body   string
	Err    error
}

func (e RequestFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request failed: %s", e.Err)
	}
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, body)
}

func (e RequestFailedError) Unwrap() error {
	return e.Err
}

// TerminalServerError is a session that ended in a terminal failure
// status. No retry will help, the user has to start a new session.
type TerminalServerError struct {
	Status   Status
	Progress Progress
}

func (e TerminalServerError) Error() string {
	return fmt.Sprintf("session ended with status %q after %d/%d",
		e.Status, e.Progress.Completed, e.Progress.Total)
}

// ExportError is a CSV build or write failure. No partial file is left
// behind when it is returned.
type ExportError struct {
	Path string
	Err  error
}

func (e ExportError) Error() string {
	return fmt.Sprintf("export to %s failed: %s", e.Path, e.Err)
}

func (e ExportError) Unwrap() error {
	return e.Err
}
