// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package form

import (
	"encoding/json"
	"strings"
)

// Description is the document stored in an event's description column
type Description struct {
	Summary   string     `json:"summary"`
	Questions []Question `json:"registrationForm"`
}

// ParseDescription reads a stored description. Text that is not a JSON
// description document is taken as a plain summary with no form.
func ParseDescription(text string) Description {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return Description{Summary: text, Questions: []Question{}}
	}

	var d Description
	if err := json.Unmarshal([]byte(trimmed), &d); err != nil {
		return Description{Summary: text, Questions: []Question{}}
	}
	d.Questions = Sanitize(d.Questions)
	return d
}

// Encode serializes the description for storage
func (d Description) Encode() (string, error) {
	if d.Questions == nil {
		d.Questions = []Question{}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
