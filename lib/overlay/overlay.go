// Package overlay converts dom diffs into the boxes drawn over the
// comparison screenshot. Diff rects come in coordinates of the 1280px
// reference capture and scale uniformly to the displayed width.
package overlay

import (
	"fmt"
	"sitetester-cli/lib/audit"
	"sort"
	"strings"
	"unicode/utf8"
)

// ReferenceWidth is the viewport width screenshots are captured at.
const ReferenceWidth = 1280

const tooltipTextLimit = 80

// Box is one highlight rectangle in display coordinates.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	// diff type the box was derived from
	Kind    string
	Color   string
	Tooltip string
}

var colors = map[string]string{
	audit.DiffRemoved:     "#ef4444",
	audit.DiffAdded:       "#22c55e",
	audit.DiffStyleChange: "#eab308",
}

// Scale returns the factor mapping reference coordinates onto a
// screenshot displayed at the given width.
func Scale(displayedWidth float64) float64 {
	return displayedWidth / ReferenceWidth
}

// Boxes scales every diff rect to the displayed width. Boxes that end up
// with a non-positive width or height are dropped, they would be
// invisible anyway.
func Boxes(diffs []audit.DOMDiff, displayedWidth float64) []Box {
	scale := Scale(displayedWidth)
	var boxes []Box
	for _, d := range diffs {
		color, ok := colors[d.Type]
		if !ok {
			color = "#9ca3af"
		}
		box := Box{
			X:       d.Rect.X * scale,
			Y:       d.Rect.Y * scale,
			Width:   d.Rect.Width * scale,
			Height:  d.Rect.Height * scale,
			Kind:    d.Type,
			Color:   color,
			Tooltip: Tooltip(d),
		}
		if box.Width <= 0 || box.Height <= 0 {
			continue
		}
		boxes = append(boxes, box)
	}
	return boxes
}

// Tooltip builds the hover text for a diff: the tag, the element text
// truncated to 80 runes and, for style changes, one old -> new line per
// changed property.
func Tooltip(d audit.DOMDiff) string {
	parts := []string{"<" + d.Tag + ">"}
	if text := truncate(d.Text, tooltipTextLimit); text != "" {
		parts = append(parts, text)
	}
	if d.Type == audit.DiffStyleChange {
		props := make([]string, 0, len(d.Diffs))
		for prop, change := range d.Diffs {
			props = append(props, fmt.Sprintf("%s: %s -> %s", prop, change.Old, change.New))
		}
		sort.Strings(props)
		parts = append(parts, props...)
	}
	return strings.Join(parts, "\n")
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}
