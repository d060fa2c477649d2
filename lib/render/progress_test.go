package render

import (
	"io"
	"sitetester-cli/lib/audit"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLiveProgressTracksObservations(t *testing.T) {
	p := NewLiveProgress(io.Discard, "meta-tags audit")

	// a still-initializing session has no bar yet
	p.Observe(audit.Progress{Completed: 0, Total: 0, Status: audit.StatusRunning})
	require.Nil(t, p.tracker)

	p.Observe(audit.Progress{Completed: 3, Total: 10, Status: audit.StatusRunning})
	require.NotNil(t, p.tracker)
	require.EqualValues(t, 3, p.tracker.Value())
	require.Equal(t, "meta-tags audit 3/10", p.tracker.Message)

	p.Observe(audit.Progress{Completed: 10, Total: 10, Status: audit.StatusCompleted})
	require.EqualValues(t, 10, p.tracker.Value())

	p.Finish(audit.StatusCompleted)
	require.True(t, p.tracker.IsDone())
}

func TestLiveProgressFinishWithoutObservations(t *testing.T) {
	p := NewLiveProgress(io.Discard, "sitemap audit")
	p.Finish(audit.StatusError)
	require.Nil(t, p.tracker)
}
