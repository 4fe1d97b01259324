package scanning

import (
	"encoding/json"
	"fmt"
)

// maxSnapshot bounds how much raw provider payload gets echoed into error
// messages.
const maxSnapshot = 500

// extractJSON locates the first non-nested {...} span in a model reply and
// decodes it. The prompt forbids nested objects, and taking the shortest
// span is what keeps markdown fences and reasoning prose around the JSON
// from breaking the parse.
func extractJSON(text string) (map[string]any, error) {
	span, ok := firstObjectSpan(text)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoJSONFound, snapshot(text))
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(span), &data); err != nil {
		return nil, &JSONParseError{Err: err, Text: span}
	}
	return data, nil
}

// firstObjectSpan returns the first "{...}" containing no inner braces,
// the equivalent of the regex {[^{}]*}.
func firstObjectSpan(s string) (string, bool) {
	start := -1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			start = i
		case '}':
			if start >= 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func snapshot(s string) string {
	if len(s) <= maxSnapshot {
		return s
	}
	// Cut on a rune boundary so the snippet stays valid UTF-8.
	cut := maxSnapshot
	for cut > 0 && s[cut]&0xc0 == 0x80 {
		cut--
	}
	return s[:cut] + "..."
}
