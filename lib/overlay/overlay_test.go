package overlay

import (
	"sitetester-cli/lib/audit"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoxesScaleUniformly(t *testing.T) {
	diffs := []audit.DOMDiff{
		{
			Type: audit.DiffRemoved,
			Tag:  "div",
			Rect: audit.Rect{X: 128, Y: 256, Width: 640, Height: 64},
		},
	}

	// displayed at half the reference width
	boxes := Boxes(diffs, 640)
	require.Len(t, boxes, 1)
	require.Equal(t, 64.0, boxes[0].X)
	require.Equal(t, 128.0, boxes[0].Y)
	require.Equal(t, 320.0, boxes[0].Width)
	require.Equal(t, 32.0, boxes[0].Height)
}

func TestBoxesColorByKind(t *testing.T) {
	diffs := []audit.DOMDiff{
		{Type: audit.DiffRemoved, Tag: "p", Rect: audit.Rect{Width: 10, Height: 10}},
		{Type: audit.DiffAdded, Tag: "p", Rect: audit.Rect{Width: 10, Height: 10}},
		{Type: audit.DiffStyleChange, Tag: "p", Rect: audit.Rect{Width: 10, Height: 10}},
	}

	boxes := Boxes(diffs, ReferenceWidth)
	require.Len(t, boxes, 3)
	require.Equal(t, "#ef4444", boxes[0].Color)
	require.Equal(t, "#22c55e", boxes[1].Color)
	require.Equal(t, "#eab308", boxes[2].Color)
}

func TestBoxesDropDegenerateRects(t *testing.T) {
	diffs := []audit.DOMDiff{
		{Type: audit.DiffAdded, Rect: audit.Rect{X: 10, Y: 10, Width: 0, Height: 40}},
		{Type: audit.DiffAdded, Rect: audit.Rect{X: 10, Y: 10, Width: 40, Height: 0}},
		{Type: audit.DiffAdded, Rect: audit.Rect{X: 10, Y: 10, Width: -5, Height: 40}},
		{Type: audit.DiffAdded, Rect: audit.Rect{X: 10, Y: 10, Width: 40, Height: 40}},
	}

	boxes := Boxes(diffs, ReferenceWidth)
	require.Len(t, boxes, 1)
	require.Equal(t, 40.0, boxes[0].Width)
}

func TestTooltip(t *testing.T) {
	{
		got := Tooltip(audit.DOMDiff{
			Type: audit.DiffRemoved,
			Tag:  "h2",
			Text: "Pricing",
		})
		require.Equal(t, "<h2>\nPricing", got)
	}
	{
		got := Tooltip(audit.DOMDiff{
			Type: audit.DiffStyleChange,
			Tag:  "a",
			Text: "Sign up",
			Diffs: map[string]audit.StyleChange{
				"font-size": {Old: "14px", New: "16px"},
				"color":     {Old: "rgb(0, 0, 0)", New: "rgb(255, 0, 0)"},
			},
		})
		// properties listed alphabetically, one per line
		require.Equal(t, "<a>\nSign up\ncolor: rgb(0, 0, 0) -> rgb(255, 0, 0)\nfont-size: 14px -> 16px", got)
	}
}

func TestTooltipTruncatesLongText(t *testing.T) {
	long := strings.Repeat("é", 120)
	got := Tooltip(audit.DOMDiff{Type: audit.DiffAdded, Tag: "p", Text: long})

	require.Equal(t, "<p>\n"+strings.Repeat("é", 80)+"...", got)
}
