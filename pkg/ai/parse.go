package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// cleanJSON strips markdown fences and any prose around the outermost object
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		text = text[start : end+1]
	}
	return text
}

// decodeCandidate parses a capture response. Older prompt versions used
// item_type and people, both are still accepted.
func decodeCandidate(text string) (*ItemCandidate, error) {
	var raw struct {
		ItemCandidate
		ItemType string   `json:"item_type"`
		People   []string `json:"people"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	c := raw.ItemCandidate
	if c.Type == "" {
		c.Type = raw.ItemType
	}
	if len(c.PeopleMentioned) == 0 {
		c.PeopleMentioned = raw.People
	}
	return &c, nil
}

// decodeEditSet parses a conversational edit response into a sparse update
func decodeEditSet(text string) (map[string]interface{}, error) {
	set := map[string]interface{}{}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &set); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return set, nil
}
