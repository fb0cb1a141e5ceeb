// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package form

import (
	"errors"
	"testing"
)

func dependentPair() []Question {
	return []Question{
		{ID: "A", Type: TypeSingle, Title: "A", Options: []Option{{ID: "x", Label: "X"}, {ID: "z", Label: "Z"}}},
		{ID: "B", Type: TypeText, Title: "B", DependsOn: &Dependency{QuestionID: "A", OptionID: "x"}},
	}
}

func TestDeleteOption_ClearsDependency(t *testing.T) {
	out, err := DeleteOption(dependentPair(), "A", "x")
	if err != nil {
		t.Fatalf("DeleteOption() error = %v", err)
	}
	if out[1].DependsOn != nil {
		t.Errorf("B.DependsOn = %+v, want nil", out[1].DependsOn)
	}
	if len(out[0].Options) != 1 || out[0].Options[0].ID != "z" {
		t.Errorf("A.Options = %+v, want only z", out[0].Options)
	}
}

func TestDeleteOption_KeepsOtherDependencies(t *testing.T) {
	out, err := DeleteOption(dependentPair(), "A", "z")
	if err != nil {
		t.Fatalf("DeleteOption() error = %v", err)
	}
	if out[1].DependsOn == nil || out[1].DependsOn.OptionID != "x" {
		t.Errorf("B.DependsOn = %+v, want A/x", out[1].DependsOn)
	}
}

func TestDeleteQuestion_ClearsDependency(t *testing.T) {
	out, err := DeleteQuestion(dependentPair(), "A")
	if err != nil {
		t.Fatalf("DeleteQuestion() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "B" {
		t.Fatalf("unexpected questions %+v", out)
	}
	if out[0].DependsOn != nil {
		t.Errorf("B.DependsOn = %+v, want nil", out[0].DependsOn)
	}
}

func TestDelete_NotFound(t *testing.T) {
	if _, err := DeleteQuestion(dependentPair(), "nope"); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("DeleteQuestion() error = %v, want ErrQuestionNotFound", err)
	}
	if _, err := DeleteOption(dependentPair(), "A", "nope"); !errors.Is(err, ErrOptionNotFound) {
		t.Errorf("DeleteOption() error = %v, want ErrOptionNotFound", err)
	}
}

func TestDelete_DoesNotMutateInput(t *testing.T) {
	questions := dependentPair()
	if _, err := DeleteOption(questions, "A", "x"); err != nil {
		t.Fatal(err)
	}
	if len(questions[0].Options) != 2 || questions[1].DependsOn == nil {
		t.Error("input slice was modified")
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name    string
		dep     *Dependency
		wantNil bool
	}{
		{"valid", &Dependency{QuestionID: "A", OptionID: "x"}, false},
		{"unknown question", &Dependency{QuestionID: "nope", OptionID: "x"}, true},
		{"unknown option", &Dependency{QuestionID: "A", OptionID: "nope"}, true},
		{"later question", &Dependency{QuestionID: "C", OptionID: "c1"}, true},
		{"itself", &Dependency{QuestionID: "B", OptionID: "b1"}, true},
		{"none", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			questions := []Question{
				{ID: "A", Type: TypeSingle, Title: "A", Options: []Option{{ID: "x", Label: "X"}}},
				{ID: "B", Type: TypeSingle, Title: "B", Options: []Option{{ID: "b1", Label: "B1"}}, DependsOn: tt.dep},
				{ID: "C", Type: TypeSingle, Title: "C", Options: []Option{{ID: "c1", Label: "C1"}}},
			}

			out := Sanitize(questions)
			if got := out[1].DependsOn == nil; got != tt.wantNil {
				t.Errorf("DependsOn nil = %v, want %v", got, tt.wantNil)
			}
		})
	}
}

func TestSanitize_ClearsAllowOtherOutsideSelect(t *testing.T) {
	out := Sanitize([]Question{
		{ID: "s", Type: TypeSingle, Title: "S", AllowOther: true, Options: []Option{{ID: "a", Label: "A"}}},
		{ID: "sel", Type: TypeSelect, Title: "Sel", AllowOther: true, Options: []Option{{ID: "a", Label: "A"}}},
	})
	if out[0].AllowOther {
		t.Error("single question should not allow other")
	}
	if !out[1].AllowOther {
		t.Error("select question should keep allowOther")
	}
}

func TestSetDependency(t *testing.T) {
	questions, err := ClearDependency(dependentPair(), "B")
	if err != nil {
		t.Fatal(err)
	}
	if questions[1].DependsOn != nil {
		t.Fatal("ClearDependency() left a dependency")
	}

	tests := []struct {
		name    string
		target  string
		dep     Dependency
		wantErr error
	}{
		{"attach", "B", Dependency{QuestionID: "A", OptionID: "z"}, nil},
		{"unknown target", "nope", Dependency{QuestionID: "A", OptionID: "z"}, ErrQuestionNotFound},
		{"later prerequisite", "A", Dependency{QuestionID: "B", OptionID: "z"}, ErrInvalidDependency},
		{"unknown option", "B", Dependency{QuestionID: "A", OptionID: "nope"}, ErrInvalidDependency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := SetDependency(questions, tt.target, tt.dep)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetDependency() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && *out[1].DependsOn != tt.dep {
				t.Errorf("DependsOn = %+v, want %+v", out[1].DependsOn, tt.dep)
			}
		})
	}
}

func TestCheckDefinition(t *testing.T) {
	opts := []Option{{ID: "a", Label: "A"}}

	tests := []struct {
		name      string
		questions []Question
		wantErr   bool
	}{
		{"valid", []Question{{ID: "q1", Type: TypeSingle, Title: "Q", Options: opts}, {ID: "q2", Type: TypeText, Title: "T"}}, false},
		{"empty form", nil, false},
		{"missing id", []Question{{Type: TypeText, Title: "T"}}, true},
		{"duplicate id", []Question{{ID: "q", Type: TypeText, Title: "T"}, {ID: "q", Type: TypeText, Title: "T"}}, true},
		{"unknown type", []Question{{ID: "q", Type: "date", Title: "T"}}, true},
		{"missing title", []Question{{ID: "q", Type: TypeText}}, true},
		{"choice without options", []Question{{ID: "q", Type: TypeMulti, Title: "M"}}, true},
		{"duplicate option", []Question{{ID: "q", Type: TypeSingle, Title: "S", Options: []Option{{ID: "a"}, {ID: "a"}}}}, true},
		{"reserved option id", []Question{{ID: "q", Type: TypeSelect, Title: "S", Options: []Option{{ID: OtherValue}}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDefinition(tt.questions)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckDefinition() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidDefinition) {
				t.Errorf("error should wrap ErrInvalidDefinition, got %v", err)
			}
		})
	}
}
