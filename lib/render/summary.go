package render

import (
	"fmt"
	"math"
	"sitetester-cli/lib/audit"
)

// ScoreSummary buckets scored records. Every record lands in exactly one
// bucket: good >= 80, fair >= 50, poor below that.
type ScoreSummary struct {
	Total   int
	Good    int
	Fair    int
	Poor    int
	Average int
}

func SummarizeScores(scores []int) ScoreSummary {
	var s ScoreSummary
	if len(scores) == 0 {
		return s
	}
	sum := 0
	for _, score := range scores {
		sum += score
		switch {
		case score >= 80:
			s.Good++
		case score >= 50:
			s.Fair++
		default:
			s.Poor++
		}
	}
	s.Total = len(scores)
	s.Average = int(math.Round(float64(sum) / float64(len(scores))))
	return s
}

func SummarizeMetaTags(results []audit.MetaTagsResult) ScoreSummary {
	scores := make([]int, len(results))
	for i, r := range results {
		scores[i] = r.Score
	}
	return SummarizeScores(scores)
}

func SummarizePerformance(results []audit.PerformanceResult) ScoreSummary {
	scores := make([]int, len(results))
	for i, r := range results {
		scores[i] = r.Score
	}
	return SummarizeScores(scores)
}

// AccessibilitySummary is the score partition plus violation totals
// broken down by impact.
type AccessibilitySummary struct {
	Scores     ScoreSummary
	Violations int
	Critical   int
	Serious    int
	Moderate   int
	Minor      int
}

func SummarizeAccessibility(results []audit.AccessibilityResult) AccessibilitySummary {
	var s AccessibilitySummary
	scores := make([]int, len(results))
	for i, r := range results {
		scores[i] = r.Score
		s.Violations += r.ViolationsCount
		s.Critical += r.Critical
		s.Serious += r.Serious
		s.Moderate += r.Moderate
		s.Minor += r.Minor
	}
	s.Scores = SummarizeScores(scores)
	return s
}

type PhoneSummary struct {
	Pages            int
	PagesWithNumbers int
	TotalNumbers     int
}

func SummarizePhone(results []audit.PhoneResult) PhoneSummary {
	var s PhoneSummary
	s.Pages = len(results)
	for _, r := range results {
		if r.PhoneCount > 0 {
			s.PagesWithNumbers++
		}
		s.TotalNumbers += r.PhoneCount
	}
	return s
}

// H1Summary partitions pages into ok (a single h1 and nothing flagged)
// and pages with issues.
type H1Summary struct {
	Pages       int
	OK          int
	WithIssues  int
	TotalIssues int
}

func SummarizeH1(results []audit.H1Result) H1Summary {
	var s H1Summary
	s.Pages = len(results)
	for _, r := range results {
		if len(r.Issues) == 0 {
			s.OK++
		} else {
			s.WithIssues++
		}
		s.TotalIssues += len(r.Issues)
	}
	return s
}

// VisualSummary aggregates pixel diff scores (percent of differing
// pixels, higher is worse) and counts dom diffs by kind.
type VisualSummary struct {
	Comparisons int
	AverageDiff float64
	WorstDiff   float64
	// 1-based index of the worst comparison, 0 when empty
	WorstIndex   int
	Added        int
	Removed      int
	StyleChanged int
}

// SummaryLine is the plain-text one-liner for a result set, without the
// terminal colors the table renderers use. Notification emails carry it
// as the body.
func SummaryLine(res audit.Results) string {
	if res.Empty() {
		return "No results were produced."
	}
	switch res.Tool {
	case audit.ToolMetaTags:
		s := SummarizeMetaTags(res.MetaTags)
		return fmt.Sprintf("%d pages: %d good, %d fair, %d poor, average score %d",
			s.Total, s.Good, s.Fair, s.Poor, s.Average)
	case audit.ToolSitemap:
		return fmt.Sprintf("%d urls in sitemap, score %d", res.Sitemap.URLCount, res.Sitemap.Score)
	case audit.ToolPhone:
		s := SummarizePhone(res.Phone)
		return fmt.Sprintf("%d numbers across %d of %d pages", s.TotalNumbers, s.PagesWithNumbers, s.Pages)
	case audit.ToolPerformance:
		s := SummarizePerformance(res.Performance)
		return fmt.Sprintf("%d pages: %d good, %d fair, %d poor, average score %d",
			s.Total, s.Good, s.Fair, s.Poor, s.Average)
	case audit.ToolAccessibility:
		s := SummarizeAccessibility(res.Accessibility)
		return fmt.Sprintf("%d violations on %d pages, average score %d",
			s.Violations, s.Scores.Total, s.Scores.Average)
	case audit.ToolH1:
		s := SummarizeH1(res.H1)
		return fmt.Sprintf("%d pages: %d ok, %d with issues", s.Pages, s.OK, s.WithIssues)
	case audit.ToolVisual:
		s := SummarizeVisual(res.Visual)
		return fmt.Sprintf("%d comparisons, average pixel diff %.1f%%, worst %.1f%%",
			s.Comparisons, s.AverageDiff, s.WorstDiff)
	}
	return fmt.Sprintf("%d results", res.Len())
}

func SummarizeVisual(results *audit.VisualResults) VisualSummary {
	var s VisualSummary
	if results == nil {
		return s
	}
	s.Comparisons = len(results.Results)
	if s.Comparisons > 0 {
		sum := 0.0
		worst := math.Inf(-1)
		for i, r := range results.Results {
			sum += r.Score
			if r.Score > worst {
				worst = r.Score
				s.WorstIndex = i + 1
			}
		}
		s.AverageDiff = sum / float64(s.Comparisons)
		s.WorstDiff = worst
	}
	for _, d := range results.DOMDiffs {
		switch d.Type {
		case audit.DiffAdded:
			s.Added++
		case audit.DiffRemoved:
			s.Removed++
		case audit.DiffStyleChange:
			s.StyleChanged++
		}
	}
	return s
}
