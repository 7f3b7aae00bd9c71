package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Decode unmarshals a model response into v, tolerating the usual model
// quirks: markdown code fences around the payload and prose before or after
// the JSON body.
func Decode(raw json.RawMessage, v any) error {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return fmt.Errorf("prompt: empty response")
	}
	text = stripFences(text)

	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}

	// Fall back to the outermost JSON value embedded in the text.
	if sliced, ok := sliceJSON(text); ok {
		if err := json.Unmarshal([]byte(sliced), v); err == nil {
			return nil
		}
	}
	return fmt.Errorf("prompt: response is not valid JSON")
}

func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.Index(text, "\n"); i >= 0 {
		// Drop the language tag line (```json).
		text = text[i+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func sliceJSON(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}
	var end int
	if text[start] == '{' {
		end = strings.LastIndex(text, "}")
	} else {
		end = strings.LastIndex(text, "]")
	}
	if end <= start {
		return "", false
	}
	return text[start : end+1], true
}
