// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package form

// IsVisible reports whether q should be shown for the given answers.
// Only the direct prerequisite is consulted; if that prerequisite is itself
// hidden its stale answer still counts.
func IsVisible(q Question, answers Answers) bool {
	if q.DependsOn == nil {
		return true
	}
	return answers[q.DependsOn.QuestionID].Contains(q.DependsOn.OptionID)
}

// VisibleQuestions returns the questions visible for answers, in order
func VisibleQuestions(questions []Question, answers Answers) []Question {
	visible := make([]Question, 0, len(questions))
	for _, q := range questions {
		if IsVisible(q, answers) {
			visible = append(visible, q)
		}
	}
	return visible
}
