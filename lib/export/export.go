// Package export builds the CSV files for finished audit sessions.
//
// The format is deliberately strict so re-exports are byte identical:
// textual cells are always quoted with embedded quotes doubled, numeric
// cells are never quoted, lists collapse into one quoted cell joined
// with "; ".
package export

import (
	"fmt"
	"os"
	"sitetester-cli/lib/audit"
	"strconv"
	"strings"
)

var headers = map[audit.Tool][]string{
	audit.ToolMetaTags:      {"URL", "Title", "Description", "Keywords", "Canonical", "Missing Tags", "Warnings", "Score"},
	audit.ToolSitemap:       {"Sitemap URL", "Sitemap Index", "URL Count", "Child Sitemaps", "Robots.txt", "Load Time (ms)", "Errors", "Warnings", "Score"},
	audit.ToolPhone:         {"URL", "Phone Count", "Phone Numbers", "Formats Detected", "Issues"},
	audit.ToolPerformance:   {"URL", "Device", "TTFB (ms)", "FCP (ms)", "Page Load (ms)", "Score"},
	audit.ToolAccessibility: {"URL", "Violations", "Critical", "Serious", "Moderate", "Minor", "Score"},
	audit.ToolH1:            {"URL", "H1 Count", "H1 Texts", "Issues"},
	audit.ToolVisual:        {"Comparison", "Pixel Diff %", "Diff Image"},
}

// Filename returns the canonical export filename for a session,
// "export" standing in when the session id is unknown.
func Filename(tool audit.Tool, sessionID string) string {
	name := strings.ReplaceAll(string(tool), "-", "_")
	if sessionID == "" {
		sessionID = "export"
	}
	return fmt.Sprintf("%s_audit_results_%s.csv", name, sessionID)
}

// Build renders the results as CSV text. It is a pure function of its
// input, identical results produce identical bytes.
func Build(results audit.Results) (string, error) {
	header, ok := headers[results.Tool]
	if !ok {
		return "", fmt.Errorf("tool %q has no csv export", results.Tool)
	}

	var sb strings.Builder
	headerCells := make([]string, len(header))
	for i, h := range header {
		headerCells[i] = text(h)
	}
	writeRow(&sb, headerCells)

	switch results.Tool {
	case audit.ToolMetaTags:
		for _, r := range results.MetaTags {
			writeRow(&sb, []string{
				text(r.URL),
				text(r.Title),
				text(r.Description),
				text(r.Keywords),
				text(r.Canonical),
				list(r.MissingTags),
				list(r.Warnings),
				number(r.Score),
			})
		}
	case audit.ToolSitemap:
		if r := results.Sitemap; r != nil && r.URL != "" {
			writeRow(&sb, []string{
				text(r.URL),
				yesNo(r.IsIndex),
				number(r.URLCount),
				list(r.ChildSitemaps),
				text(r.RobotsStatus),
				number(r.LoadTimeMs),
				list(r.Errors),
				list(r.Warnings),
				number(r.Score),
			})
		}
	case audit.ToolPhone:
		for _, r := range results.Phone {
			numbers := make([]string, len(r.PhoneNumbers))
			for i, n := range r.PhoneNumbers {
				numbers[i] = phoneNumber(n)
			}
			writeRow(&sb, []string{
				text(r.URL),
				number(r.PhoneCount),
				list(numbers),
				list(r.FormatsDetected),
				list(r.Issues),
			})
		}
	case audit.ToolPerformance:
		for _, r := range results.Performance {
			writeRow(&sb, []string{
				text(r.URL),
				text(r.DevicePreset),
				decimal(r.TTFB),
				decimal(r.FCP),
				decimal(r.PageLoad),
				number(r.Score),
			})
		}
	case audit.ToolAccessibility:
		for _, r := range results.Accessibility {
			writeRow(&sb, []string{
				text(r.URL),
				number(r.ViolationsCount),
				number(r.Critical),
				number(r.Serious),
				number(r.Moderate),
				number(r.Minor),
				number(r.Score),
			})
		}
	case audit.ToolH1:
		for _, r := range results.H1 {
			writeRow(&sb, []string{
				text(r.URL),
				number(r.H1Count),
				list(r.H1Texts),
				list(r.Issues),
			})
		}
	case audit.ToolVisual:
		if results.Visual != nil {
			for i, r := range results.Visual.Results {
				writeRow(&sb, []string{
					number(i + 1),
					decimal(r.Score),
					text(r.DiffImg),
				})
			}
		}
	}

	return sb.String(), nil
}

// Write builds the CSV and writes it through a temp file so a failed
// write never leaves a partial export behind. Empty results return
// ErrNoResults instead of producing a header-only file.
func Write(path string, results audit.Results) error {
	if results.Empty() {
		return audit.ErrNoResults
	}
	data, err := Build(results)
	if err != nil {
		return audit.ExportError{Path: path, Err: err}
	}
	tmp := path + ".tmp"
	err = os.WriteFile(tmp, []byte(data), 0644)
	if err != nil {
		os.Remove(tmp)
		return audit.ExportError{Path: path, Err: err}
	}
	err = os.Rename(tmp, path)
	if err != nil {
		os.Remove(tmp)
		return audit.ExportError{Path: path, Err: err}
	}
	return nil
}

func writeRow(sb *strings.Builder, cells []string) {
	sb.WriteString(strings.Join(cells, ","))
	sb.WriteString("\n")
}

func text(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func list(items []string) string {
	return text(strings.Join(items, "; "))
}

func yesNo(b bool) string {
	if b {
		return text("Yes")
	}
	return text("No")
}

func number(n int) string {
	return strconv.Itoa(n)
}

// decimal renders a float with the fewest digits that round-trip.
func decimal(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func phoneNumber(n audit.PhoneNumber) string {
	if n.Location != "" {
		return fmt.Sprintf("%s (%s)", n.Number, n.Location)
	}
	return n.Number
}
