package urlutil

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
)

const normalizeFlags = purell.FlagsSafe |
	purell.FlagsUsuallySafeNonGreedy |
	purell.FlagRemoveFragment |
	purell.FlagSortQuery

// reports whether the line is something the audit backend will accept,
// meaning an absolute http or https url
func IsAuditable(line string) bool {
	line = strings.TrimSpace(line)
	return strings.HasPrefix(line, "http://") ||
		strings.HasPrefix(line, "https://")
}

// returns a normalized form of the url used for duplicate detection.
// the original text is what gets submitted, the key only decides which
// lines count as the same page.
func CanonicalKey(raw string) string {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return purell.NormalizeURL(parsed, normalizeFlags)
}

// trims the given lines, drops everything that isn't an absolute http(s)
// url and removes duplicates while preserving first occurrence
func Filter(lines []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !IsAuditable(line) {
			continue
		}
		key := CanonicalKey(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, line)
	}
	return out
}

// Filter over raw newline-separated input (a urls file or pasted list)
func FilterText(raw string) []string {
	return Filter(strings.Split(raw, "\n"))
}
