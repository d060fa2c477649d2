package audit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProgressPercent(t *testing.T) {
	cases := []struct {
		completed int
		total     int
		percent   int
	}{
		{completed: 0, total: 0, percent: 0},
		{completed: 5, total: 0, percent: 0},
		{completed: 3, total: 10, percent: 30},
		{completed: 10, total: 10, percent: 100},
		{completed: 1, total: 3, percent: 33},
		{completed: 2, total: 3, percent: 67},
		{completed: -1, total: 10, percent: 0},
		{completed: 15, total: 10, percent: 100},
	}

	for _, test := range cases {
		p := Progress{Completed: test.completed, Total: test.total}
		if got := p.Percent(); got != test.percent {
			t.Errorf("%d/%d: expected %d, got %d", test.completed, test.total, test.percent, got)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	cases := map[Status]bool{
		StatusRunning:   false,
		StatusNotFound:  false,
		StatusCompleted: true,
		StatusError:     true,
		StatusStopped:   true,
	}
	for status, terminal := range cases {
		if status.Terminal() != terminal {
			t.Errorf("%s: expected Terminal() == %v", status, terminal)
		}
	}
}

// the backend stores list columns as json text and sometimes emits them
// re-encoded as strings, both shapes have to decode
func TestStringListShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want StringList
	}{
		{name: "plain array", raw: `["a", "b"]`, want: StringList{"a", "b"}},
		{name: "stringified array", raw: `"[\"a\", \"b\"]"`, want: StringList{"a", "b"}},
		{name: "empty array", raw: `[]`, want: nil},
		{name: "empty string", raw: `""`, want: nil},
		{name: "blank string", raw: `"  "`, want: nil},
		{name: "plain string", raw: `"not json"`, want: StringList{"not json"}},
		{name: "number", raw: `42`, want: StringList{"42"}},
	}

	for _, test := range cases {
		var got StringList
		err := json.Unmarshal([]byte(test.raw), &got)
		require.NoError(t, err, test.name)
		if len(test.want) == 0 {
			require.Empty(t, got, test.name)
			continue
		}
		require.Equal(t, test.want, got, test.name)
	}
}

func TestPhoneNumberShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want PhoneNumber
	}{
		{
			name: "structured",
			raw:  `{"number": "(555) 010-0000", "location": "footer"}`,
			want: PhoneNumber{Number: "(555) 010-0000", Location: "footer"},
		},
		{
			name: "legacy bare string",
			raw:  `"555-010-0001"`,
			want: PhoneNumber{Number: "555-010-0001"},
		},
		{
			name: "unexpected token",
			raw:  `5550100002`,
			want: PhoneNumber{Number: "5550100002"},
		},
	}

	for _, test := range cases {
		var got PhoneNumber
		err := json.Unmarshal([]byte(test.raw), &got)
		require.NoError(t, err, test.name)
		require.Equal(t, test.want, got, test.name)
	}
}

func TestSampleStatus(t *testing.T) {
	var sample map[string]SampleStatus
	err := json.Unmarshal([]byte(`{"a": 200, "b": "200", "c": "timeout", "d": 404}`), &sample)
	require.NoError(t, err)

	require.Equal(t, SampleStatus("200"), sample["a"])
	require.True(t, sample["a"].OK())
	require.True(t, sample["b"].OK())
	require.False(t, sample["c"].OK())
	require.False(t, sample["d"].OK())
	require.Equal(t, SampleStatus("404"), sample["d"])
}

func TestResultsLen(t *testing.T) {
	require.True(t, Results{Tool: ToolMetaTags}.Empty())
	require.Equal(t, 2, Results{
		Tool:     ToolMetaTags,
		MetaTags: []MetaTagsResult{{URL: "https://a.example.com"}, {URL: "https://b.example.com"}},
	}.Len())

	// a sitemap session audits one sitemap, an empty row counts as nothing
	require.True(t, Results{Tool: ToolSitemap}.Empty())
	require.True(t, Results{Tool: ToolSitemap, Sitemap: &SitemapResult{}}.Empty())
	require.Equal(t, 1, Results{
		Tool:    ToolSitemap,
		Sitemap: &SitemapResult{URL: "https://example.com/sitemap.xml"},
	}.Len())

	require.True(t, Results{Tool: ToolVisual}.Empty())
	require.Equal(t, 1, Results{
		Tool:   ToolVisual,
		Visual: &VisualResults{Results: []VisualComparison{{Score: 1.5}}},
	}.Len())

	// dom diffs alone do not make a visual payload non-empty
	require.True(t, Results{
		Tool:   ToolVisual,
		Visual: &VisualResults{DOMDiffs: []DOMDiff{{Type: DiffAdded}}},
	}.Empty())
}
