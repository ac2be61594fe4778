package vision

import (
	"encoding/json"
	"strings"
)

// ParseBookList extracts a JSON array of book entries from free-form
// model output. Vision models routinely wrap the payload in prose or
// markdown fences, so everything outside the outermost brackets is
// ignored. Entries that aren't objects or lack a title are dropped.
// Malformed JSON yields an empty list, never an error.
func ParseBookList(text string) []Candidate {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &elems); err != nil {
		return nil
	}

	var out []Candidate
	for _, elem := range elems {
		var c Candidate
		if err := json.Unmarshal(elem, &c); err != nil {
			continue
		}
		c.Title = strings.TrimSpace(c.Title)
		if c.Title == "" {
			continue
		}
		c.Author = strings.TrimSpace(c.Author)
		out = append(out, c)
	}
	return out
}
