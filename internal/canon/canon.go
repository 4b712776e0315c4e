// Package canon normalizes registry text into the single deterministic
// form used both as model input and as the ground truth for evidence
// verification. The two must be byte-identical: if the text we verify
// quotes against ever drifts from the text the model saw, evidence
// checks become meaningless.
package canon

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

var (
	horizontalWS = regexp.MustCompile(`[ \t]+`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
	bulletPrefix = regexp.MustCompile(`^[-•*]\s*`)
	semicolonSep = regexp.MustCompile(`;\s*`)
)

// NormText normalizes a raw registry field into canonical text.
//
// Registry exports are messy: fields may be nil, numeric, or carry HTML
// escapes like &gt;. The normalization is a pure function of its input —
// no locale, wall clock, or map-order dependence — so repeated runs over
// the same record always produce the same bytes.
func NormText(x any) string {
	var s string
	switch v := x.(type) {
	case nil:
		return ""
	case string:
		s = v
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case float64:
		// JSON numbers decode as float64; render integral values without
		// a fractional part so "42" round-trips as "42".
		if v == float64(int64(v)) {
			s = strconv.FormatInt(int64(v), 10)
		} else {
			s = strconv.FormatFloat(v, 'g', -1, 64)
		}
	case fmt.Stringer:
		s = v.String()
	default:
		return ""
	}

	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = horizontalWS.ReplaceAllString(s, " ")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// SplitBullets splits a multiline registry field into a list of items.
// Newlines win over separators; bullet markers are stripped. Falls back
// to semicolon splitting for single-line fields.
func SplitBullets(text any) []string {
	t := NormText(text)
	if t == "" {
		return nil
	}

	if strings.Contains(t, "\n") {
		var items []string
		for _, line := range strings.Split(t, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			line = strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
			if line != "" {
				items = append(items, line)
			}
		}
		return items
	}

	var parts []string
	for _, p := range semicolonSep.Split(t, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 1 {
		return parts
	}
	return []string{t}
}

// ParseBool parses boolean-like registry text ("Yes", "n", "1", ...).
// Returns nil when the field is empty or unrecognizable — absence is a
// value here, not an error.
func ParseBool(text any) *bool {
	t := strings.ToLower(NormText(text))
	if t == "" {
		return nil
	}
	switch t {
	case "yes", "y", "true", "1":
		v := true
		return &v
	case "no", "n", "false", "0":
		v := false
		return &v
	}
	return nil
}

// UniqPreserve deduplicates strings preserving first-seen order,
// dropping empties after trimming.
func UniqPreserve(xs []string) []string {
	seen := make(map[string]struct{}, len(xs))
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		out = append(out, x)
	}
	return out
}
