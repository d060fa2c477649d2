package audit

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunnerRunCompletes(t *testing.T) {
	quickenTool(t, ToolMetaTags)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/upload/meta-tags":
			w.Write([]byte(`{"session": "sess_run", "total_expected": 2, "type": "meta-tags"}`))
		case "/progress/meta-tags/sess_run":
			w.Write([]byte(`{"completed": 2, "total": 2, "status": "completed"}`))
		case "/api/results/meta-tags/sess_run":
			w.Write([]byte(`{"results": [
				{"url": "https://example.com/", "title": "Example", "score": 90},
				{"url": "https://example.com/pricing", "title": "Pricing", "score": 70}
			]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	runner := NewRunner(client, ToolMetaTags)

	var submittedID string
	var submittedTotal int
	terminalFired := false
	outcome, err := runner.Run(context.Background(), UploadRequest{
		Tool: ToolMetaTags,
		Name: "Launch Audit",
		URLs: []string{"https://example.com/", "https://example.com/pricing"},
	}, RunCallbacks{
		OnSubmitted: func(sessionID string, totalExpected int) {
			submittedID = sessionID
			submittedTotal = totalExpected
		},
		OnTerminal: func(p Progress) {
			terminalFired = true
		},
	})
	require.NoError(t, err)

	require.Equal(t, "sess_run", submittedID)
	require.Equal(t, 2, submittedTotal)
	require.True(t, terminalFired)
	require.Equal(t, StatusCompleted, outcome.Final.Status)
	require.Len(t, outcome.Results.MetaTags, 2)

	cached, ok := runner.Results()
	require.True(t, ok)
	require.Equal(t, outcome.Results, cached)
	require.Equal(t, "sess_run", runner.SessionID())
}

func TestRunnerIsSingleFlight(t *testing.T) {
	quickenTool(t, ToolH1)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/upload/h1":
			w.Write([]byte(`{"session": "sess_h1", "total_expected": 1}`))
		case "/progress/h1/sess_h1":
			w.Write([]byte(`{"completed": 1, "total": 1, "status": "completed"}`))
		case "/api/results/h1/sess_h1":
			w.Write([]byte(`[{"url": "https://example.com", "h1_count": 1, "h1_texts": ["Welcome"], "issues": []}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	runner := NewRunner(client, ToolH1)
	req := UploadRequest{Tool: ToolH1, Name: "H1 Audit", URLs: []string{"https://example.com"}}

	var second error
	_, err := runner.Run(context.Background(), req, RunCallbacks{
		OnSubmitted: func(sessionID string, totalExpected int) {
			_, second = runner.Run(context.Background(), req, RunCallbacks{})
		},
	})
	require.NoError(t, err)
	require.ErrorIs(t, second, ErrSessionActive)

	// the slot frees up once the run finishes
	_, err = runner.Run(context.Background(), req, RunCallbacks{})
	require.NoError(t, err)
}

func TestRunnerToolMismatch(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	runner := NewRunner(client, ToolH1)
	_, err := runner.Run(context.Background(), UploadRequest{
		Tool: ToolMetaTags,
		Name: "X",
		URLs: []string{"https://example.com"},
	}, RunCallbacks{})
	var verr ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = runner.RunVisual(context.Background(), "https://a.example.com", "https://b.example.com", RunCallbacks{})
	require.ErrorAs(t, err, &verr)
}

// a stopped session ends the run cleanly with nothing fetched
func TestRunnerStoppedSkipsResults(t *testing.T) {
	quickenTool(t, ToolH1)

	var mu sync.Mutex
	var paths []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/upload/h1":
			w.Write([]byte(`{"session": "sess_h1", "total_expected": 5}`))
		case "/progress/h1/sess_h1":
			w.Write([]byte(`{"completed": 2, "total": 5, "status": "stopped"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	runner := NewRunner(client, ToolH1)

	outcome, err := runner.Run(context.Background(), UploadRequest{
		Tool: ToolH1,
		Name: "H1 Audit",
		URLs: []string{"https://example.com"},
	}, RunCallbacks{})
	require.NoError(t, err)
	require.Equal(t, StatusStopped, outcome.Final.Status)
	require.True(t, outcome.Results.Empty())

	_, ok := runner.Results()
	require.False(t, ok)

	mu.Lock()
	defer mu.Unlock()
	for _, path := range paths {
		require.False(t, strings.HasPrefix(path, "/api/results/"), path)
	}
}

// canceling mid-poll asks the backend to stop the session
func TestRunnerCancelRequestsStop(t *testing.T) {
	quickenTool(t, ToolH1)

	var mu sync.Mutex
	var paths []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/upload/h1":
			w.Write([]byte(`{"session": "sess_h1", "total_expected": 5}`))
		case "/progress/h1/sess_h1":
			w.Write([]byte(`{"completed": 1, "total": 5, "status": "running"}`))
		case "/api/sessions/sess_h1/stop":
			w.Write([]byte(`{"status": "stopping"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	runner := NewRunner(client, ToolH1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(60 * time.Millisecond)
		cancel()
	}()

	_, err := runner.Run(ctx, UploadRequest{
		Tool: ToolH1,
		Name: "H1 Audit",
		URLs: []string{"https://example.com"},
	}, RunCallbacks{})
	require.ErrorIs(t, err, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	require.Contains(t, paths, "POST /api/sessions/sess_h1/stop")
}

func TestRunnerVisualFlow(t *testing.T) {
	quickenTool(t, ToolVisual)

	var mu sync.Mutex
	resultPolls := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/visual-test":
			w.Write([]byte(`{"status": "started", "session_id": "vis_1"}`))
		case "/api/results/vis_1":
			mu.Lock()
			resultPolls++
			n := resultPolls
			mu.Unlock()
			if n < 2 {
				w.Write([]byte(`{"results": [], "dom_diffs": []}`))
				return
			}
			w.Write([]byte(`{"results": [{"score": 4.5, "diff_img": "screenshots/vis_1/diff.png"}], "dom_diffs": []}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	runner := NewRunner(client, ToolVisual)

	var submittedTotal int
	outcome, err := runner.RunVisual(context.Background(), "https://example.com", "https://staging.example.com", RunCallbacks{
		OnSubmitted: func(sessionID string, totalExpected int) {
			submittedTotal = totalExpected
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, submittedTotal)
	require.Equal(t, "vis_1", outcome.SessionID)
	require.NotNil(t, outcome.Results.Visual)
	require.Len(t, outcome.Results.Visual.Results, 1)
	require.Equal(t, 4.5, outcome.Results.Visual.Results[0].Score)
}
