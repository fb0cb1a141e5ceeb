// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package form

import "strings"

// Validate checks the required questions among visible. Hidden questions are
// never reported, whatever their answers.
func Validate(answers Answers, other OtherText, visible []Question) Errors {
	errs := Errors{}
	for _, q := range visible {
		if !q.Required {
			continue
		}
		if msg := checkRequired(q, answers[q.ID], other[q.ID]); msg != "" {
			errs[q.ID] = msg
		}
	}
	return errs
}

func checkRequired(q Question, v Value, otherText string) string {
	switch q.Type {
	case TypeText, TypeTextarea, TypeAutocomplete:
		if !v.IsString() || strings.TrimSpace(v.Str()) == "" {
			return MsgRequired
		}
	case TypeSingle:
		if v.Str() == "" {
			return MsgRequired
		}
	case TypeSelect:
		if v.Str() == "" {
			return MsgRequired
		}
		if v.Str() == OtherValue && q.AllowOther && strings.TrimSpace(otherText) == "" {
			return MsgOtherRequired
		}
	case TypeMulti:
		if !v.IsList() || len(v.list) == 0 {
			return MsgRequired
		}
	}
	return ""
}

// CheckOptions reports visible choice questions whose answer names an option
// the question does not offer, or has the wrong shape for the question type.
// Other text that matches an option id is rejected too, since the saved
// response could not tell it apart from picking that option.
// Missing answers are left to Validate.
func CheckOptions(answers Answers, other OtherText, visible []Question) Errors {
	errs := Errors{}
	for _, q := range visible {
		v, ok := answers[q.ID]
		if !ok || v.IsZero() {
			continue
		}

		switch q.Type {
		case TypeSingle, TypeSelect:
			if v.IsList() {
				errs[q.ID] = MsgInvalidOption
				continue
			}
			id := v.Str()
			if id == OtherValue && q.acceptsOther() {
				if text := strings.TrimSpace(other[q.ID]); text == OtherValue || q.HasOption(text) {
					errs[q.ID] = MsgOtherIsOption
				}
				continue
			}
			if id == "" || q.HasOption(id) {
				continue
			}
			errs[q.ID] = MsgInvalidOption
		case TypeMulti:
			if !v.IsList() {
				errs[q.ID] = MsgInvalidOption
				continue
			}
			for _, id := range v.list {
				if !q.HasOption(id) {
					errs[q.ID] = MsgInvalidOption
					break
				}
			}
		default:
			if v.IsList() {
				errs[q.ID] = MsgInvalidOption
			}
		}
	}
	return errs
}
