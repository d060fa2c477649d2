package state

import (
	"context"
	"sitetester-cli/lib/audit"
	"sitetester-cli/lib/state/db"
	"sitetester-cli/lib/testutil"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (Store, context.Context) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "state",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	store, err := NewStore(res.DB)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	t.Cleanup(cancel)

	return store, ctx
}

func TestRestartConfigTakenOnce(t *testing.T) {
	store, ctx := setup(t)

	saved := RestartConfig{
		SessionID:   "20240811_142533",
		Tool:        audit.ToolMetaTags,
		Name:        "staging rollout",
		URLs:        []string{"https://example.com", "https://example.com/pricing"},
		Browsers:    []string{"chromium"},
		Resolutions: []string{"1920x1080"},
	}
	err := store.SaveRestart(ctx, saved)
	if err != nil {
		t.Fatal(err)
	}

	{
		got, err := store.TakeRestart(ctx, saved.SessionID)
		if err != nil {
			t.Fatal(err)
		}
		diff := cmp.Diff(saved, got)
		require.Empty(t, diff)
	}
	{
		_, err := store.TakeRestart(ctx, saved.SessionID)
		require.ErrorIs(t, err, ErrNotFound)
	}
}

func TestRestartConfigMissing(t *testing.T) {
	store, ctx := setup(t)

	_, err := store.TakeRestart(ctx, "never_saved")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSessionJournal(t *testing.T) {
	store, ctx := setup(t)

	base := time.Date(2024, 8, 11, 9, 0, 0, 0, time.UTC)
	sessions := []Session{
		{SessionID: "sess_alpha", Tool: audit.ToolPhone, Name: "contact pages", URLCount: 3, CreatedAt: base},
		{SessionID: "sess_beta", Tool: audit.ToolSitemap, Name: "sitemap check", URLCount: 1, CreatedAt: base.Add(time.Minute)},
		{SessionID: "sess_gamma", Tool: audit.ToolH1, Name: "heading sweep", URLCount: 12, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, sess := range sessions {
		err := store.RecordSession(ctx, sess)
		if err != nil {
			t.Fatal(err)
		}
	}

	{
		got, err := store.ListSessions(ctx, 0)
		if err != nil {
			t.Fatal(err)
		}
		require.Len(t, got, 3)
		// most recent first
		require.Equal(t, "sess_gamma", got[0].SessionID)
		require.Equal(t, "sess_alpha", got[2].SessionID)
	}
	{
		got, err := store.ListSessions(ctx, 2)
		if err != nil {
			t.Fatal(err)
		}
		require.Len(t, got, 2)
	}
	{
		got, err := store.GetSession(ctx, "sess_beta")
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, audit.ToolSitemap, got.Tool)
		require.Equal(t, 1, got.URLCount)
	}
	{
		err := store.DeleteSession(ctx, "sess_beta")
		if err != nil {
			t.Fatal(err)
		}
		_, err = store.GetSession(ctx, "sess_beta")
		require.ErrorIs(t, err, ErrNotFound)
	}
	{
		err := store.Clear(ctx)
		if err != nil {
			t.Fatal(err)
		}
		got, err := store.ListSessions(ctx, 0)
		if err != nil {
			t.Fatal(err)
		}
		require.Empty(t, got)
	}
}

func TestRecordSessionOverwrites(t *testing.T) {
	store, ctx := setup(t)

	id := testutil.RandomSessionId(t)
	err := store.RecordSession(ctx, Session{
		SessionID: id, Tool: audit.ToolPerformance, Name: "first", URLCount: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	err = store.RecordSession(ctx, Session{
		SessionID: id, Tool: audit.ToolPerformance, Name: "second", URLCount: 2,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := store.ListSessions(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, got, 1)
	require.Equal(t, "second", got[0].Name)
}

func TestSearchSessions(t *testing.T) {
	store, ctx := setup(t)

	base := time.Date(2024, 8, 11, 9, 0, 0, 0, time.UTC)
	sessions := []Session{
		{SessionID: "sess_alpha", Tool: audit.ToolMetaTags, Name: "homepage refresh", URLCount: 4, CreatedAt: base},
		{SessionID: "sess_beta", Tool: audit.ToolAccessibility, Name: "checkout flow", URLCount: 7, CreatedAt: base.Add(time.Minute)},
		{SessionID: "sess_gamma", Tool: audit.ToolPerformance, Name: "pricing page", URLCount: 2, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, sess := range sessions {
		err := store.RecordSession(ctx, sess)
		if err != nil {
			t.Fatal(err)
		}
	}

	{
		// substring match on the name
		got, err := store.SearchSessions(ctx, "checkout")
		if err != nil {
			t.Fatal(err)
		}
		require.Len(t, got, 1)
		require.Equal(t, "sess_beta", got[0].SessionID)
	}
	{
		// close misspelling still ranks
		got, err := store.SearchSessions(ctx, "homepge")
		if err != nil {
			t.Fatal(err)
		}
		require.Len(t, got, 1)
		require.Equal(t, "sess_alpha", got[0].SessionID)
	}
	{
		// session ids are searchable too
		got, err := store.SearchSessions(ctx, "sess_gamma")
		if err != nil {
			t.Fatal(err)
		}
		require.Len(t, got, 1)
		require.Equal(t, "sess_gamma", got[0].SessionID)
	}
	{
		// empty query returns the whole journal, most recent first
		got, err := store.SearchSessions(ctx, "")
		if err != nil {
			t.Fatal(err)
		}
		require.Len(t, got, 3)
		require.Equal(t, "sess_gamma", got[0].SessionID)
	}
	{
		got, err := store.SearchSessions(ctx, "zzzzzz")
		if err != nil {
			t.Fatal(err)
		}
		require.Empty(t, got)
	}
}
