package compact

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidJSON marks a response whose text could not be parsed as JSON
// at all. Callers surface this as "invalid JSON, retry" rather than a
// generic parse error.
var ErrInvalidJSON = errors.New("response is not valid JSON")

// ExtractJSON strips an optional fenced code block wrapper from an LLM
// response and decodes the remaining text as a single JSON value.
func ExtractJSON(text string) (any, error) {
	s := stripFences(text)
	if s == "" {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidJSON)
	}

	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return v, nil
}

// stripFences removes a leading ``` or ```json marker line and a trailing
// ``` marker, if present. Models frequently wrap JSON output this way
// despite instructions not to.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	} else {
		return ""
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}
