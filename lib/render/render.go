// Package render prints audit results as terminal tables in the same
// rounded go-pretty style the suite's other CLIs use.
package render

import (
	"fmt"
	"io"
	"sitetester-cli/lib/audit"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func NewTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

// Results renders the result table and summary for a finished session.
// Sessions that produced nothing render a single empty-state notice.
func Results(out io.Writer, res audit.Results) {
	if res.Empty() {
		fmt.Fprintf(out, "No results were produced for this session (%s).\n", res.Tool)
		return
	}

	switch res.Tool {
	case audit.ToolMetaTags:
		renderMetaTags(out, res.MetaTags)
	case audit.ToolSitemap:
		renderSitemap(out, res.Sitemap)
	case audit.ToolPhone:
		renderPhone(out, res.Phone)
	case audit.ToolPerformance:
		renderPerformance(out, res.Performance)
	case audit.ToolAccessibility:
		renderAccessibility(out, res.Accessibility)
	case audit.ToolH1:
		renderH1(out, res.H1)
	case audit.ToolVisual:
		renderVisual(out, res.Visual)
	}
}

func renderMetaTags(out io.Writer, results []audit.MetaTagsResult) {
	t := NewTable(out)
	t.AppendHeader(table.Row{"URL", "Title", "Description", "Canonical", "Missing", "Warnings", "Score"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 40},
		{Number: 3, WidthMax: 40},
	})
	for _, r := range results {
		t.AppendRow(table.Row{
			r.URL,
			r.Title,
			r.Description,
			r.Canonical,
			strings.Join(r.MissingTags, "; "),
			strings.Join(r.Warnings, "; "),
			scoreCell(r.Score),
		})
	}
	t.Render()

	s := SummarizeMetaTags(results)
	fmt.Fprintf(out, "%d pages: %s good, %s fair, %s poor, average score %d\n",
		s.Total, goodCell(s.Good), fairCell(s.Fair), poorCell(s.Poor), s.Average)
}

func renderSitemap(out io.Writer, r *audit.SitemapResult) {
	t := NewTable(out)
	t.AppendRow(table.Row{"Sitemap", r.URL})
	t.AppendRow(table.Row{"Sitemap index", yesNo(r.IsIndex)})
	t.AppendRow(table.Row{"URLs", r.URLCount})
	if len(r.ChildSitemaps) > 0 {
		t.AppendRow(table.Row{"Child sitemaps", strings.Join(r.ChildSitemaps, "\n")})
	}
	t.AppendRow(table.Row{"Robots.txt", r.RobotsStatus})
	t.AppendRow(table.Row{"Load time", fmt.Sprintf("%dms", r.LoadTimeMs)})
	if len(r.Errors) > 0 {
		t.AppendRow(table.Row{"Errors", poorCell(len(r.Errors)) + ": " + strings.Join(r.Errors, "; ")})
	}
	if len(r.Warnings) > 0 {
		t.AppendRow(table.Row{"Warnings", fairCell(len(r.Warnings)) + ": " + strings.Join(r.Warnings, "; ")})
	}
	t.AppendRow(table.Row{"Score", scoreCell(r.Score)})
	t.Render()

	if len(r.ReachabilitySample) > 0 {
		st := NewTable(out)
		st.AppendHeader(table.Row{"Sampled URL", "Status"})
		for url, status := range r.ReachabilitySample {
			cell := string(status)
			if !status.OK() {
				cell = text.FgRed.Sprint(cell)
			}
			st.AppendRow(table.Row{url, cell})
		}
		st.SortBy([]table.SortBy{{Number: 1, Mode: table.Asc}})
		st.Render()
	}
}

func renderPhone(out io.Writer, results []audit.PhoneResult) {
	t := NewTable(out)
	t.AppendHeader(table.Row{"URL", "Numbers", "Formats", "Issues"})
	for _, r := range results {
		numbers := make([]string, len(r.PhoneNumbers))
		for i, n := range r.PhoneNumbers {
			numbers[i] = n.Number
			if n.Location != "" {
				numbers[i] += " (" + n.Location + ")"
			}
		}
		t.AppendRow(table.Row{
			r.URL,
			strings.Join(numbers, "\n"),
			strings.Join(r.FormatsDetected, "; "),
			strings.Join(r.Issues, "; "),
		})
	}
	t.Render()

	s := SummarizePhone(results)
	fmt.Fprintf(out, "%d numbers across %d of %d pages\n", s.TotalNumbers, s.PagesWithNumbers, s.Pages)
}

func renderPerformance(out io.Writer, results []audit.PerformanceResult) {
	t := NewTable(out)
	t.AppendHeader(table.Row{"URL", "Device", "TTFB", "FCP", "Page Load", "Score"})
	for _, r := range results {
		t.AppendRow(table.Row{
			r.URL,
			r.DevicePreset,
			fmt.Sprintf("%.0fms", r.TTFB),
			fmt.Sprintf("%.0fms", r.FCP),
			fmt.Sprintf("%.0fms", r.PageLoad),
			scoreCell(r.Score),
		})
	}
	t.Render()

	s := SummarizePerformance(results)
	fmt.Fprintf(out, "%d pages: %s good, %s fair, %s poor, average score %d\n",
		s.Total, goodCell(s.Good), fairCell(s.Fair), poorCell(s.Poor), s.Average)
}

func renderAccessibility(out io.Writer, results []audit.AccessibilityResult) {
	t := NewTable(out)
	t.AppendHeader(table.Row{"URL", "Violations", "Critical", "Serious", "Moderate", "Minor", "Score"})
	for _, r := range results {
		t.AppendRow(table.Row{
			r.URL,
			r.ViolationsCount,
			impactCell(r.Critical, text.FgRed),
			impactCell(r.Serious, text.FgRed),
			impactCell(r.Moderate, text.FgYellow),
			impactCell(r.Minor, text.FgYellow),
			scoreCell(r.Score),
		})
	}
	t.Render()

	for _, r := range results {
		if len(r.Violations) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s\n", r.URL)
		vt := NewTable(out)
		vt.AppendHeader(table.Row{"Impact", "Rule", "Help", "Nodes"})
		vt.SetColumnConfigs([]table.ColumnConfig{
			{Number: 3, WidthMax: 60},
			{Number: 4, WidthMax: 40},
		})
		for _, v := range r.Violations {
			vt.AppendRow(table.Row{
				impactLabel(v.Impact),
				v.ID,
				v.Help,
				strings.Join(v.Nodes, "\n"),
			})
		}
		vt.Render()
	}

	s := SummarizeAccessibility(results)
	fmt.Fprintf(out, "%d violations on %d pages (%s critical, %s serious, %d moderate, %d minor), average score %d\n",
		s.Violations, s.Scores.Total,
		impactCell(s.Critical, text.FgRed), impactCell(s.Serious, text.FgRed),
		s.Moderate, s.Minor, s.Scores.Average)
}

func renderH1(out io.Writer, results []audit.H1Result) {
	t := NewTable(out)
	t.AppendHeader(table.Row{"URL", "H1 Count", "H1 Texts", "Issues"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 50},
	})
	for _, r := range results {
		count := fmt.Sprint(r.H1Count)
		if r.H1Count != 1 {
			count = text.FgRed.Sprint(r.H1Count)
		}
		t.AppendRow(table.Row{
			r.URL,
			count,
			strings.Join(r.H1Texts, "\n"),
			strings.Join(r.Issues, "; "),
		})
	}
	t.Render()

	s := SummarizeH1(results)
	fmt.Fprintf(out, "%d pages: %s ok, %s with issues (%d issues total)\n",
		s.Pages, goodCell(s.OK), poorCell(s.WithIssues), s.TotalIssues)
}

func renderVisual(out io.Writer, results *audit.VisualResults) {
	t := NewTable(out)
	t.AppendHeader(table.Row{"Comparison", "Pixels Changed", "Diff Image"})
	for i, r := range results.Results {
		t.AppendRow(table.Row{i + 1, pixelDiffCell(r.Score), r.DiffImg})
	}
	t.Render()

	if len(results.DOMDiffs) > 0 {
		DOMDiffs(out, results.DOMDiffs)
	}

	s := SummarizeVisual(results)
	fmt.Fprintf(out, "%d comparisons, average pixel diff %.1f%%, worst %.1f%% (#%d)\n",
		s.Comparisons, s.AverageDiff, s.WorstDiff, s.WorstIndex)
	if s.Added+s.Removed+s.StyleChanged > 0 {
		fmt.Fprintf(out, "dom diffs: %s added, %s removed, %s style changes\n",
			text.FgGreen.Sprint(s.Added), text.FgRed.Sprint(s.Removed), text.FgYellow.Sprint(s.StyleChanged))
	}
}

// DOMDiffs renders structural diffs as a table, one row per diff, in the
// same geometry the HTML report draws as overlay boxes.
func DOMDiffs(out io.Writer, diffs []audit.DOMDiff) {
	t := NewTable(out)
	t.AppendHeader(table.Row{"Type", "Tag", "Position", "Detail"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: 60},
	})
	for _, d := range diffs {
		t.AppendRow(table.Row{
			diffTypeCell(d.Type),
			d.Tag,
			fmt.Sprintf("(%.0f, %.0f) %.0fx%.0f", d.Rect.X, d.Rect.Y, d.Rect.Width, d.Rect.Height),
			d.Detail(),
		})
	}
	t.Render()
}

func scoreCell(score int) string {
	switch {
	case score >= 80:
		return text.FgGreen.Sprint(score)
	case score >= 50:
		return text.FgYellow.Sprint(score)
	default:
		return text.FgRed.Sprint(score)
	}
}

// pixelDiffCell colors a diff score, which is the percentage of pixels
// that changed between the captures.
func pixelDiffCell(score float64) string {
	cell := fmt.Sprintf("%.1f%%", score)
	switch {
	case score <= 1:
		return text.FgGreen.Sprint(cell)
	case score <= 10:
		return text.FgYellow.Sprint(cell)
	default:
		return text.FgRed.Sprint(cell)
	}
}

func diffTypeCell(diffType string) string {
	switch diffType {
	case audit.DiffAdded:
		return text.FgGreen.Sprint(diffType)
	case audit.DiffRemoved:
		return text.FgRed.Sprint(diffType)
	case audit.DiffStyleChange:
		return text.FgYellow.Sprint(diffType)
	}
	return diffType
}

func impactCell(count int, color text.Color) string {
	if count == 0 {
		return "0"
	}
	return color.Sprint(count)
}

func impactLabel(impact string) string {
	switch impact {
	case "critical", "serious":
		return text.FgRed.Sprint(impact)
	case "moderate", "minor":
		return text.FgYellow.Sprint(impact)
	}
	return impact
}

func goodCell(n int) string {
	return text.FgGreen.Sprint(n)
}

func fairCell(n int) string {
	return text.FgYellow.Sprint(n)
}

func poorCell(n int) string {
	return text.FgRed.Sprint(n)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
