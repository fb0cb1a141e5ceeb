// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package form

import "strings"

// BuildResponse produces the map persisted for a registration. Answers to
// questions outside visible are dropped, and the other sentinel of a select
// question is replaced by its trimmed free text when that text is non-empty.
func BuildResponse(answers Answers, other OtherText, visible []Question) Response {
	resp := make(Response, len(visible))
	for _, q := range visible {
		v, ok := answers[q.ID]
		if !ok || v.IsZero() {
			continue
		}

		if q.acceptsOther() && v.Str() == OtherValue {
			if text := strings.TrimSpace(other[q.ID]); text != "" {
				resp[q.ID] = String(text)
				continue
			}
		}
		resp[q.ID] = v.clone()
	}
	return resp
}

// Loaded is a persisted response turned back into an editable answer set
type Loaded struct {
	Answers   Answers
	OtherText OtherText
	// Unrecognized keeps stored values that no longer fit the current
	// questions, such as answers naming a since-deleted option.
	Unrecognized Response
}

// ApplyResponse is the inverse of BuildResponse for the current questions.
// Values that no longer match the question's options land in Unrecognized
// instead of Answers.
func ApplyResponse(questions []Question, persisted Response) Loaded {
	loaded := Loaded{
		Answers:      Answers{},
		OtherText:    OtherText{},
		Unrecognized: Response{},
	}

	known := make(map[string]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true

		v, ok := persisted[q.ID]
		if !ok || v.IsZero() {
			continue
		}

		switch {
		case q.IsTextLike():
			if v.IsString() {
				loaded.Answers[q.ID] = v
				continue
			}
		case q.Type == TypeMulti:
			if v.IsList() {
				loaded.Answers[q.ID] = v.clone()
				continue
			}
		case q.Type == TypeSingle || q.Type == TypeSelect:
			if v.IsString() && q.HasOption(v.Str()) {
				loaded.Answers[q.ID] = v
				continue
			}
			if v.IsString() && q.acceptsOther() && v.Str() != "" {
				loaded.Answers[q.ID] = String(OtherValue)
				// a bare sentinel was saved without its text
				if v.Str() != OtherValue {
					loaded.OtherText[q.ID] = v.Str()
				}
				continue
			}
		}
		loaded.Unrecognized[q.ID] = v.clone()
	}

	for id, v := range persisted {
		if !known[id] && !v.IsZero() {
			loaded.Unrecognized[id] = v.clone()
		}
	}
	return loaded
}
