// Package report renders a visual regression run as a standalone HTML
// file: both captures side by side, the dom diff overlay drawn over the
// comparison capture and the full diff listing.
package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"sitetester-cli/lib/audit"
	"sitetester-cli/lib/overlay"
	"sitetester-cli/lib/render"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// DisplayWidth is how wide each screenshot renders in the report. The
// overlay geometry scales from the 1280px reference capture to this.
const DisplayWidth = 640

// Params carries everything the report needs. Screenshot URLs must
// already be resolved against the backend base URL.
type Params struct {
	SessionID      string
	BaseURL        string
	CompareURL     string
	BaseShotURL    string
	CompareShotURL string
	Results        *audit.VisualResults
	// resolves the server-relative diff image paths found in results,
	// typically (*audit.Client).ScreenshotURL. nil keeps them as is.
	ResolveURL func(path string) string
}

type comparisonView struct {
	Index   int
	Score   float64
	DiffURL string
}

type diffView struct {
	Type     string
	Tag      string
	Position string
	Detail   string
}

type reportData struct {
	SessionID      string
	GeneratedAt    string
	BaseURL        string
	CompareURL     string
	BaseShotURL    string
	CompareShotURL string
	DisplayWidth   int
	Summary        render.VisualSummary
	Comparisons    []comparisonView
	Boxes          []overlay.Box
	Diffs          []diffView
}

// Render writes the HTML report to out.
func Render(out io.Writer, params Params) error {
	return templates.ExecuteTemplate(out, "report.html", buildData(params))
}

// WriteFile renders the report into path.
func WriteFile(path string, params Params) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	err = Render(f, params)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return f.Close()
}

func buildData(params Params) reportData {
	data := reportData{
		SessionID:      params.SessionID,
		GeneratedAt:    time.Now().Format(time.RFC1123),
		BaseURL:        params.BaseURL,
		CompareURL:     params.CompareURL,
		BaseShotURL:    params.BaseShotURL,
		CompareShotURL: params.CompareShotURL,
		DisplayWidth:   DisplayWidth,
		Summary:        render.SummarizeVisual(params.Results),
	}
	if params.Results == nil {
		return data
	}

	resolve := params.ResolveURL
	if resolve == nil {
		resolve = func(path string) string { return path }
	}
	for i, r := range params.Results.Results {
		data.Comparisons = append(data.Comparisons, comparisonView{
			Index:   i + 1,
			Score:   r.Score,
			DiffURL: resolve(r.DiffImg),
		})
	}
	data.Boxes = overlay.Boxes(params.Results.DOMDiffs, DisplayWidth)
	for _, d := range params.Results.DOMDiffs {
		data.Diffs = append(data.Diffs, diffView{
			Type:     d.Type,
			Tag:      d.Tag,
			Position: fmt.Sprintf("(%.0f, %.0f) %.0fx%.0f", d.Rect.X, d.Rect.Y, d.Rect.Width, d.Rect.Height),
			Detail:   d.Detail(),
		})
	}
	return data
}
