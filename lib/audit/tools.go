package audit

import (
	"fmt"
	"time"
)

// Tool identifies one of the audit tools exposed by the backend.
type Tool string

const (
	ToolURLCompare    Tool = "url-compare"
	ToolVisual        Tool = "visual-regression"
	ToolMetaTags      Tool = "meta-tags"
	ToolSitemap       Tool = "sitemap"
	ToolPhone         Tool = "phone"
	ToolPerformance   Tool = "performance"
	ToolAccessibility Tool = "accessibility"
	ToolH1            Tool = "h1"
)

// Spec pins a tool to the backend contract: where runs are submitted, how
// progress is observed, where results are fetched and at what cadence the
// poller runs. The values are fixed by the server, they are not tunables.
type Spec struct {
	Tool Tool
	// session type used in backend paths, not always equal to Tool
	SessionType string
	SubmitPath  string
	// results endpoint with a %s placeholder for the session id
	ResultsRoute string
	// tools without a progress endpoint poll their results endpoint
	// until it has content instead
	ResultsByPolling bool
	PollInterval     time.Duration
	SettleDelay      time.Duration
}

func (s Spec) ProgressPath(sessionID string) string {
	return fmt.Sprintf("/progress/%s/%s", s.SessionType, sessionID)
}

func (s Spec) ResultsPath(sessionID string) string {
	return fmt.Sprintf(s.ResultsRoute, sessionID)
}

// delay before showing the history view after a session was stopped
const StoppedRedirectDelay = 2 * time.Second

var specs = map[Tool]Spec{
	ToolURLCompare: {
		Tool:       ToolURLCompare,
		SubmitPath: "/api/compare-urls",
	},
	ToolVisual: {
		Tool:             ToolVisual,
		SessionType:      "visual",
		SubmitPath:       "/api/visual-test",
		ResultsRoute:     "/api/results/%s",
		ResultsByPolling: true,
		PollInterval:     2000 * time.Millisecond,
		SettleDelay:      800 * time.Millisecond,
	},
	ToolMetaTags: {
		Tool:         ToolMetaTags,
		SessionType:  "meta-tags",
		SubmitPath:   "/upload/meta-tags",
		ResultsRoute: "/api/results/meta-tags/%s",
		PollInterval: 1500 * time.Millisecond,
		SettleDelay:  800 * time.Millisecond,
	},
	ToolSitemap: {
		Tool:         ToolSitemap,
		SessionType:  "sitemap",
		SubmitPath:   "/upload/sitemap",
		ResultsRoute: "/api/results/sitemap/%s",
		PollInterval: 1500 * time.Millisecond,
		SettleDelay:  800 * time.Millisecond,
	},
	ToolPhone: {
		Tool:         ToolPhone,
		SessionType:  "phone",
		SubmitPath:   "/upload/phone",
		ResultsRoute: "/phone-results/%s",
		PollInterval: 2000 * time.Millisecond,
		SettleDelay:  1000 * time.Millisecond,
	},
	ToolPerformance: {
		Tool:         ToolPerformance,
		SessionType:  "performance",
		SubmitPath:   "/upload/performance",
		ResultsRoute: "/api/results/%s",
		PollInterval: 2000 * time.Millisecond,
		SettleDelay:  1000 * time.Millisecond,
	},
	ToolAccessibility: {
		Tool:         ToolAccessibility,
		SessionType:  "accessibility",
		SubmitPath:   "/upload/accessibility",
		ResultsRoute: "/api/results/%s",
		PollInterval: 2000 * time.Millisecond,
		SettleDelay:  800 * time.Millisecond,
	},
	ToolH1: {
		Tool:         ToolH1,
		SessionType:  "h1",
		SubmitPath:   "/upload/h1",
		ResultsRoute: "/api/results/h1/%s",
		PollInterval: 2000 * time.Millisecond,
		SettleDelay:  1000 * time.Millisecond,
	},
}

func (t Tool) Spec() Spec {
	return specs[t]
}

func (t Tool) Valid() bool {
	_, ok := specs[t]
	return ok
}

// tools in the order they show up in help output and the history view
func Tools() []Tool {
	return []Tool{
		ToolURLCompare,
		ToolVisual,
		ToolMetaTags,
		ToolSitemap,
		ToolPhone,
		ToolPerformance,
		ToolAccessibility,
		ToolH1,
	}
}

func ParseTool(raw string) (Tool, error) {
	t := Tool(raw)
	if !t.Valid() {
		return "", fmt.Errorf("unknown tool %q", raw)
	}
	return t, nil
}

// ToolForSessionType maps a session type as reported by the backend (in
// progress paths and saved session configs) back to its tool.
func ToolForSessionType(sessionType string) (Tool, bool) {
	if sessionType == "" {
		return "", false
	}
	for _, spec := range specs {
		if spec.SessionType == sessionType {
			return spec.Tool, true
		}
	}
	return "", false
}
