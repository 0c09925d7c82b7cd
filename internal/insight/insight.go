// Package insight implements the marker protocol that generated analysis code
// uses to report its conclusions: lines beginning with "INSIGHT:". Patch turns
// bare marker lines into typed ui.Insight calls; Extract scrapes every marker
// line from printed output.
package insight

import (
	"strconv"
	"strings"
)

// Marker prefixes an insight line in program output.
const Marker = "INSIGHT:"

// MaxLen is the advisory length of one insight. It is not enforced.
const MaxLen = 140

// Patch rewrites bare marker lines, which are not valid Go statements, into
// ui.Insight calls. ui.Insight records the conclusion and prints the marker
// line, so the output reads the same as the source. The number and order of
// lines is preserved.
func Patch(code string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, Marker) {
			continue
		}
		text := strings.TrimSpace(strings.TrimPrefix(trimmed, Marker))
		text = strings.ReplaceAll(text, `"`, "'")
		lines[i] = "ui.Insight(" + strconv.Quote(text) + ")"
	}
	return strings.Join(lines, "\n")
}

// Extract returns the insight statements found in output, in order. Matching
// is case-insensitive and the text after the first colon is kept.
func Extract(output string) []string {
	var out []string
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.Contains(strings.ToUpper(trimmed), Marker) {
			continue
		}
		_, rest, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		if rest = strings.TrimSpace(rest); rest != "" {
			out = append(out, rest)
		}
	}
	return out
}
