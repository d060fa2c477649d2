package audit

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Status is the lifecycle state reported by the progress endpoint.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
	StatusStopped   Status = "stopped"
	// the backend creates the session row from a background worker, an
	// early poll can observe not_found before the row exists
	StatusNotFound Status = "not_found"
)

// Terminal reports whether no further progress updates are expected.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusStopped
}

// Progress is one observation from the progress endpoint.
type Progress struct {
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Status    Status `json:"status"`
}

// Percent converts the observation to a whole percentage in [0,100].
// A total of zero reads as zero percent, not a division by zero.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	pct := int(math.Round(float64(p.Completed) / float64(p.Total) * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// StringList decodes fields the backend emits either as a JSON array or
// as a stringified array. Anything unparseable becomes a single-element
// list holding the raw text instead of failing the whole record.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var direct []string
	if err := json.Unmarshal(data, &direct); err == nil {
		*l = direct
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*l = StringList{strings.Trim(string(data), `"`)}
		return nil
	}
	var nested []string
	if err := json.Unmarshal([]byte(raw), &nested); err == nil {
		*l = nested
		return nil
	}
	if strings.TrimSpace(raw) == "" {
		*l = nil
		return nil
	}
	*l = StringList{raw}
	return nil
}

// PhoneNumber is one extracted number. New backend rows store
// {number, location} objects, legacy rows store bare strings, both
// shapes decode.
type PhoneNumber struct {
	Number   string `json:"number"`
	Location string `json:"location"`
}

func (n *PhoneNumber) UnmarshalJSON(data []byte) error {
	var structured struct {
		Number   string `json:"number"`
		Location string `json:"location"`
	}
	if err := json.Unmarshal(data, &structured); err == nil {
		n.Number = structured.Number
		n.Location = structured.Location
		return nil
	}
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		n.Number = bare
		return nil
	}
	n.Number = strings.Trim(string(data), `"`)
	return nil
}

// SampleStatus is a reachability probe outcome, an HTTP status code for
// reachable urls or the literal "timeout".
type SampleStatus string

func (s *SampleStatus) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = SampleStatus(text)
		return nil
	}
	var code json.Number
	if err := json.Unmarshal(data, &code); err == nil {
		*s = SampleStatus(code.String())
		return nil
	}
	*s = SampleStatus(strings.Trim(string(data), `"`))
	return nil
}

func (s SampleStatus) OK() bool {
	return s == "200"
}

type MetaTagsResult struct {
	URL                string            `json:"url"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	Keywords           string            `json:"keywords"`
	Canonical          string            `json:"canonical"`
	OGTags             map[string]string `json:"og_tags"`
	TwitterTags        map[string]string `json:"twitter_tags"`
	SchemaTags         StringList        `json:"schema_tags"`
	MissingTags        StringList        `json:"missing_tags"`
	Warnings           StringList        `json:"warnings"`
	KeywordConsistency map[string]int    `json:"keyword_consistency"`
	Score              int               `json:"score"`
}

type SitemapResult struct {
	URL                string                  `json:"url"`
	IsIndex            bool                    `json:"is_index"`
	URLCount           int                     `json:"url_count"`
	ChildSitemaps      StringList              `json:"child_sitemaps"`
	RobotsStatus       string                  `json:"robots_status"`
	LoadTimeMs         int                     `json:"load_time_ms"`
	Score              int                     `json:"score"`
	Errors             StringList              `json:"errors"`
	Warnings           StringList              `json:"warnings"`
	ReachabilitySample map[string]SampleStatus `json:"reachability_sample"`
}

type PhoneResult struct {
	URL             string        `json:"url"`
	PhoneCount      int           `json:"phone_count"`
	PhoneNumbers    []PhoneNumber `json:"phone_numbers"`
	FormatsDetected StringList    `json:"formats_detected"`
	Issues          StringList    `json:"issues"`
	CreatedAt       string        `json:"created_at"`
}

type PerformanceResult struct {
	URL          string  `json:"url"`
	DevicePreset string  `json:"device_preset"`
	TTFB         float64 `json:"ttfb"`
	FCP          float64 `json:"fcp"`
	PageLoad     float64 `json:"page_load"`
	Score        int     `json:"score"`
}

type AccessibilityViolation struct {
	ID     string     `json:"id"`
	Impact string     `json:"impact"`
	Help   string     `json:"help"`
	Nodes  StringList `json:"nodes"`
}

type AccessibilityResult struct {
	URL             string                   `json:"url"`
	Score           int                      `json:"score"`
	ViolationsCount int                      `json:"violations_count"`
	Critical        int                      `json:"critical"`
	Serious         int                      `json:"serious"`
	Moderate        int                      `json:"moderate"`
	Minor           int                      `json:"minor"`
	Violations      []AccessibilityViolation `json:"violations"`
}

type H1Result struct {
	URL     string     `json:"url"`
	H1Count int        `json:"h1_count"`
	H1Texts StringList `json:"h1_texts"`
	Issues  StringList `json:"issues"`
}

// Rect is a diff bounding box in reference-capture coordinates
// (viewport width 1280).
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type StyleChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

type DOMDiff struct {
	Type string `json:"type"`
	Rect Rect   `json:"rect"`
	Tag  string `json:"tag"`
	Text string `json:"text"`
	// only populated for style_change diffs, keyed by css property
	Diffs map[string]StyleChange `json:"diffs"`
}

const (
	DiffAdded       = "added"
	DiffRemoved     = "removed"
	DiffStyleChange = "style_change"
)

// Detail renders the change description for tables and tooltips: the
// element text, or for style changes a per-property old -> new listing.
func (d DOMDiff) Detail() string {
	if d.Type != DiffStyleChange {
		return d.Text
	}
	props := make([]string, 0, len(d.Diffs))
	for prop, change := range d.Diffs {
		props = append(props, fmt.Sprintf("%s: %s -> %s", prop, change.Old, change.New))
	}
	sort.Strings(props)
	return strings.Join(props, "; ")
}

type VisualComparison struct {
	Score   float64 `json:"score"`
	DiffImg string  `json:"diff_img"`
}

type VisualResults struct {
	Results  []VisualComparison `json:"results"`
	DOMDiffs []DOMDiff          `json:"dom_diffs"`
}

// Results carries whichever per-tool payload a finished session produced.
// Only the field matching Tool is populated.
type Results struct {
	Tool          Tool
	SessionID     string
	MetaTags      []MetaTagsResult
	Sitemap       *SitemapResult
	Phone         []PhoneResult
	Performance   []PerformanceResult
	Accessibility []AccessibilityResult
	H1            []H1Result
	Visual        *VisualResults
}

// Len reports how many result records the payload holds. The sitemap tool
// audits one sitemap per session so its payload counts as one record, the
// visual tool counts compared screenshots.
func (r Results) Len() int {
	switch r.Tool {
	case ToolMetaTags:
		return len(r.MetaTags)
	case ToolSitemap:
		if r.Sitemap == nil || r.Sitemap.URL == "" {
			return 0
		}
		return 1
	case ToolPhone:
		return len(r.Phone)
	case ToolPerformance:
		return len(r.Performance)
	case ToolAccessibility:
		return len(r.Accessibility)
	case ToolH1:
		return len(r.H1)
	case ToolVisual:
		if r.Visual == nil {
			return 0
		}
		return len(r.Visual.Results)
	}
	return 0
}

func (r Results) Empty() bool {
	return r.Len() == 0
}
