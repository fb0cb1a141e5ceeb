// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package form

import (
	"fmt"
	"slices"
)

// Sanitize returns a copy of questions where every dependency points at an
// earlier question and one of its current options. Other dependencies are
// cleared. AllowOther is cleared on anything but select questions.
func Sanitize(questions []Question) []Question {
	out := cloneQuestions(questions)
	position := make(map[string]int, len(out))
	for i, q := range out {
		if _, dup := position[q.ID]; !dup {
			position[q.ID] = i
		}
	}

	for i := range out {
		q := &out[i]
		if q.Type != TypeSelect {
			q.AllowOther = false
		}
		if q.DependsOn == nil {
			continue
		}

		at, ok := position[q.DependsOn.QuestionID]
		if !ok || at >= i || !out[at].HasOption(q.DependsOn.OptionID) {
			q.DependsOn = nil
		}
	}
	return out
}

// DeleteQuestion removes a question and clears dependencies left dangling
func DeleteQuestion(questions []Question, questionID string) ([]Question, error) {
	i := indexOf(questions, questionID)
	if i < 0 {
		return nil, ErrQuestionNotFound
	}
	out := slices.Delete(cloneQuestions(questions), i, i+1)
	return Sanitize(out), nil
}

// DeleteOption removes one option from a question and clears dependencies on it
func DeleteOption(questions []Question, questionID, optionID string) ([]Question, error) {
	i := indexOf(questions, questionID)
	if i < 0 {
		return nil, ErrQuestionNotFound
	}
	out := cloneQuestions(questions)
	j := slices.IndexFunc(out[i].Options, func(o Option) bool { return o.ID == optionID })
	if j < 0 {
		return nil, ErrOptionNotFound
	}
	out[i].Options = slices.Delete(out[i].Options, j, j+1)
	return Sanitize(out), nil
}

// SetDependency attaches dep to a question. It fails instead of normalizing
// when dep does not name an earlier question and one of its options.
func SetDependency(questions []Question, questionID string, dep Dependency) ([]Question, error) {
	i := indexOf(questions, questionID)
	if i < 0 {
		return nil, ErrQuestionNotFound
	}
	at := indexOf(questions, dep.QuestionID)
	if at < 0 || at >= i {
		return nil, fmt.Errorf("%w: %q is not an earlier question", ErrInvalidDependency, dep.QuestionID)
	}
	if !questions[at].HasOption(dep.OptionID) {
		return nil, fmt.Errorf("%w: %q has no option %q", ErrInvalidDependency, dep.QuestionID, dep.OptionID)
	}

	out := cloneQuestions(questions)
	out[i].DependsOn = &dep
	return out, nil
}

// ClearDependency makes a question unconditionally visible
func ClearDependency(questions []Question, questionID string) ([]Question, error) {
	i := indexOf(questions, questionID)
	if i < 0 {
		return nil, ErrQuestionNotFound
	}
	out := cloneQuestions(questions)
	out[i].DependsOn = nil
	return out, nil
}

func indexOf(questions []Question, id string) int {
	return slices.IndexFunc(questions, func(q Question) bool { return q.ID == id })
}
