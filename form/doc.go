// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package form implements event registration forms: question definitions,
conditional visibility, validation, and the persisted response format.

# Questions

A form is an ordered list of Question values. Each question has a type:

  - single: one option id
  - multi: a list of option ids
  - select: one option id, or OtherValue plus free text when AllowOther is set
  - text, textarea, autocomplete: free text

A question may depend on one earlier question's option:

	{ID: "laptop", Type: form.TypeText, DependsOn: &form.Dependency{QuestionID: "remote", OptionID: "yes"}}

# Answering

Answers map question ids to a Value (String or List). The request flow is:

	visible := form.VisibleQuestions(questions, answers)
	if errs := form.Validate(answers, other, visible); len(errs) > 0 {
		// report errs (question id → message)
	}
	resp := form.BuildResponse(answers, other, visible)

BuildResponse drops answers to hidden questions. ApplyResponse turns a stored
Response back into Answers and OtherText for editing.

# Authoring

Sanitize clears dependencies that do not point at an earlier question and one
of its current options. DeleteQuestion and DeleteOption run it for you.
SetDependency and ClearDependency are explicit author actions.

# Dirty State

Tracker compares the current answers with the last synced Snapshot and asks a
Confirmer before unsaved changes are discarded.
*/
package form
