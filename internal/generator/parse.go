package generator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseDraft extracts the JSON object from a model reply. Code fences and
// surrounding prose are tolerated.
func ParseDraft(text string) (*Draft, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, ErrNoJSON
	}

	var d Draft
	if err := json.Unmarshal([]byte(s[start:end+1]), &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoJSON, err)
	}
	return &d, nil
}
