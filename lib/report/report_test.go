package report

import (
	"bytes"
	"os"
	"path/filepath"
	"sitetester-cli/lib/audit"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func sampleParams() Params {
	return Params{
		SessionID:      "vis_a1b2c3d4",
		BaseURL:        "https://example.com",
		CompareURL:     "https://staging.example.com",
		BaseShotURL:    "http://localhost:8000/screenshots/vis_a1b2c3d4/base.png",
		CompareShotURL: "http://localhost:8000/screenshots/vis_a1b2c3d4/compare.png",
		Results: &audit.VisualResults{
			Results: []audit.VisualComparison{
				{Score: 3.2, DiffImg: "screenshots/vis_a1b2c3d4/diff.png"},
			},
			DOMDiffs: []audit.DOMDiff{
				{
					Type: audit.DiffRemoved,
					Tag:  "h2",
					Text: "Pricing",
					Rect: audit.Rect{X: 128, Y: 640, Width: 320, Height: 48},
				},
				{
					Type: audit.DiffStyleChange,
					Tag:  "a",
					Text: "Sign up",
					Rect: audit.Rect{X: 0, Y: 100, Width: 64, Height: 32},
					Diffs: map[string]audit.StyleChange{
						"color": {Old: "rgb(0, 0, 0)", New: "rgb(255, 0, 0)"},
					},
				},
			},
		},
		ResolveURL: func(path string) string {
			return "http://localhost:8000/" + path
		},
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, sampleParams())
	if err != nil {
		t.Fatal(err)
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatal(err)
	}

	{
		// both captures present
		src, _ := doc.Find(".shot img").First().Attr("src")
		require.Equal(t, "http://localhost:8000/screenshots/vis_a1b2c3d4/base.png", src)
	}
	{
		// one overlay box per dom diff, scaled from 1280 to 640
		boxes := doc.Find(".frame .box")
		require.Equal(t, 2, boxes.Length())

		style, _ := boxes.First().Attr("style")
		require.Contains(t, style, "left: 64px")
		require.Contains(t, style, "top: 320px")
		require.Contains(t, style, "width: 160px")
		require.Contains(t, style, "height: 24px")
		require.Contains(t, style, "border-color: #ef4444")

		tooltip, _ := boxes.First().Attr("title")
		require.Equal(t, "<h2>\nPricing", tooltip)
	}
	{
		// diff image path resolved against the backend
		src, _ := doc.Find(".comparison img").First().Attr("src")
		require.Equal(t, "http://localhost:8000/screenshots/vis_a1b2c3d4/diff.png", src)
	}
	{
		// diff table lists the style change with old -> new values
		rows := doc.Find("tbody tr")
		require.Equal(t, 2, rows.Length())
		require.Contains(t, doc.Find("tbody").Text(), "color: rgb(0, 0, 0) -> rgb(255, 0, 0)")
	}
}

func TestRenderNoDiffs(t *testing.T) {
	var buf bytes.Buffer
	params := sampleParams()
	params.Results = &audit.VisualResults{
		Results: []audit.VisualComparison{{Score: 0, DiffImg: "screenshots/vis_x/diff.png"}},
	}

	err := Render(&buf, params)
	if err != nil {
		t.Fatal(err)
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 0, doc.Find(".frame .box").Length())
	require.Equal(t, 0, doc.Find("tbody tr").Length())
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	err := WriteFile(path, sampleParams())
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	require.Contains(t, string(data), "Visual regression report")
}
