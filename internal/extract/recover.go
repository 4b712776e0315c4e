package extract

import (
	"encoding/json"
	"strings"
)

// RecoverJSON extracts the first balanced JSON object from possibly
// noisy model output. Strict-mode responses are usually pure JSON, but
// model text can arrive with surrounding prose, truncation, or minor
// corruption.
//
// If the whole text already parses, it is returned as-is. Otherwise the
// slice between the first '{' and its balance-matched '}' is returned.
// When the braces never balance (truncated output), the first '{' is
// paired with the last '}' as a best effort — the caller must treat a
// subsequent parse failure as a hard extraction failure for that
// record, not a crash.
func RecoverJSON(text string) string {
	text = strings.TrimSpace(text)

	if json.Valid([]byte(text)) {
		return text
	}

	start := strings.IndexByte(text, '{')
	if start == -1 {
		return text // let the caller's parse fail
	}

	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	// Never balanced; pair with the last '}' in the text.
	if end := strings.LastIndexByte(text, '}'); end > start {
		return text[start : end+1]
	}
	return text
}

// ParseExtractionJSON parses model output into a typed value, applying
// RecoverJSON once when the strict parse fails. The second failure is
// returned to the caller.
func ParseExtractionJSON[T any](text string, out *T) error {
	if err := json.Unmarshal([]byte(text), out); err == nil {
		return nil
	}
	return json.Unmarshal([]byte(RecoverJSON(text)), out)
}
