// Package jsontext extracts a JSON object from free-form text, such as a
// generative-model response that may wrap its payload in markdown code
// fences or surrounding prose.
package jsontext

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoObject is returned when the input contains no JSON object.
var ErrNoObject = errors.New("no JSON object found in text")

// Extract locates the first JSON object in content and unmarshals it into
// dst. Accepted inputs: a bare object, an object inside a ``` or ```json
// fence, or an object embedded in surrounding prose. The object is taken
// from the first '{' to the last '}' of the (unfenced) content.
func Extract(content string, dst any) error {
	content = strings.TrimSpace(content)

	if idx := strings.Index(content, "```"); idx != -1 {
		content = content[idx+3:]
		// Drop an optional language tag such as "json".
		if nl := strings.Index(content, "\n"); nl != -1 {
			content = content[nl+1:]
		}
		if end := strings.LastIndex(content, "```"); end != -1 {
			content = content[:end]
		}
		content = strings.TrimSpace(content)
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return ErrNoObject
	}

	if err := json.Unmarshal([]byte(content[start:end+1]), dst); err != nil {
		return fmt.Errorf("decoding extracted object: %w", err)
	}
	return nil
}
