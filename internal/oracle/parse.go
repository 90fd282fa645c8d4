package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Oracles return free text that is expected to contain JSON, but often
// wrapped in markdown fences or surrounding prose. Parsing here is the
// validation boundary: nothing beyond it trusts untyped oracle output.

// extractObject locates and returns the first JSON object in the text.
// It tries the whole payload first, then the first balanced {...} substring.
func extractObject(text string) ([]byte, error) {
	text = stripFences(strings.TrimSpace(text))
	if text == "" {
		return nil, fmt.Errorf("empty response")
	}

	if json.Valid([]byte(text)) && strings.HasPrefix(text, "{") {
		return []byte(text), nil
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, fmt.Errorf("no JSON object in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if !json.Valid([]byte(candidate)) {
					return nil, fmt.Errorf("extracted substring is not valid JSON")
				}
				return []byte(candidate), nil
			}
		}
	}
	return nil, fmt.Errorf("unbalanced JSON object in response")
}

// stripFences removes a surrounding markdown code fence if present
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	end := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines[1:end], "\n"))
}

// validateParsed applies the shared rejection rules: an error field or a
// missing verdict makes the whole response unusable.
func validateParsed(raw []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return fmt.Errorf("unmarshal object: %w", err)
	}
	if _, hasErr := probe["error"]; hasErr {
		return fmt.Errorf("oracle reported an error field")
	}
	v, ok := probe["verdict"]
	if !ok {
		return fmt.Errorf("missing verdict field")
	}
	var verdict string
	if err := json.Unmarshal(v, &verdict); err != nil || verdict == "" {
		return fmt.Errorf("verdict is not a non-empty string")
	}
	return nil
}

// clampConfidence forces a confidence into [0,1], substituting the given
// default when the oracle omitted the field entirely
func clampConfidence(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	if *v < 0 {
		return 0
	}
	if *v > 1 {
		return 1
	}
	return *v
}
