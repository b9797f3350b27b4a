package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedJSON = errors.New("malformed structured output")

// ParseJSON decodes a model reply that should hold one JSON object. Models
// sometimes wrap the object in a markdown fence; the fence is stripped.
func ParseJSON(content string, target any) error {
	content = StripFences(content)
	if content == "" {
		return fmt.Errorf("%w: empty reply", ErrMalformedJSON)
	}
	if err := json.Unmarshal([]byte(content), target); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return nil
}

func StripFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
