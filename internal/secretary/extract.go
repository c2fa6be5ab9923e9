package secretary

import (
	"errors"
	"strings"
)

var errNoJSON = errors.New("could not find a valid JSON object or markdown block in the response")

// ExtractJSON locates a JSON object inside an oracle's free-text response.
// A fenced ```json block wins if present; otherwise the widest brace-delimited
// span is taken. Missing JSON is a validation failure, never a crash.
func ExtractJSON(resp string) (string, error) {
	if start := strings.Index(resp, "```json"); start >= 0 {
		rest := resp[start+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end]), nil
		}
	}

	start := strings.Index(resp, "{")
	end := strings.LastIndex(resp, "}")
	if start >= 0 && end > start {
		return strings.TrimSpace(resp[start : end+1]), nil
	}

	return "", errNoJSON
}
