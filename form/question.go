// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package form

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

type QuestionType string

const (
	TypeSingle       QuestionType = "single"
	TypeMulti        QuestionType = "multi"
	TypeSelect       QuestionType = "select"
	TypeText         QuestionType = "text"
	TypeTextarea     QuestionType = "textarea"
	TypeAutocomplete QuestionType = "autocomplete"
)

// OtherValue marks that the respondent picked the free-text escape hatch of
// a select question with AllowOther.
const OtherValue = "__other__"

// Messages shown next to a failing question
const (
	MsgRequired      = "必填项"
	MsgOtherRequired = "请填写其他选项"
	MsgInvalidOption = "选项无效"
	MsgOtherIsOption = "其他内容与已有选项重复"
)

var (
	ErrInvalidDefinition = errors.New("invalid form definition")
	ErrInvalidDependency = errors.New("invalid dependency")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrOptionNotFound    = errors.New("option not found")
)

type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Dependency makes a question visible only while QuestionID's answer selects OptionID
type Dependency struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type Question struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	Required    bool         `json:"required"`
	Options     []Option     `json:"options"`
	AllowOther  bool         `json:"allowOther,omitempty"`
	DependsOn   *Dependency  `json:"dependsOn"`
}

// IsTextLike reports whether the question takes free text
func (q Question) IsTextLike() bool {
	switch q.Type {
	case TypeText, TypeTextarea, TypeAutocomplete:
		return true
	}
	return false
}

// IsChoice reports whether answers must name one of the question's options
func (q Question) IsChoice() bool {
	switch q.Type {
	case TypeSingle, TypeMulti, TypeSelect:
		return true
	}
	return false
}

func (q Question) HasOption(id string) bool {
	return slices.ContainsFunc(q.Options, func(o Option) bool { return o.ID == id })
}

func (q Question) acceptsOther() bool {
	return q.Type == TypeSelect && q.AllowOther
}

func (q Question) clone() Question {
	c := q
	c.Options = slices.Clone(q.Options)
	if q.DependsOn != nil {
		dep := *q.DependsOn
		c.DependsOn = &dep
	}
	return c
}

func cloneQuestions(questions []Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		out[i] = q.clone()
	}
	return out
}

func validType(t QuestionType) bool {
	switch t {
	case TypeSingle, TypeMulti, TypeSelect, TypeText, TypeTextarea, TypeAutocomplete:
		return true
	}
	return false
}

// CheckDefinition rejects an authored question list that cannot be rendered:
// missing or duplicate ids, unknown types, empty titles, choice questions
// without options and duplicate option ids. Dependencies are not checked
// here, Sanitize normalizes those.
func CheckDefinition(questions []Question) error {
	seen := make(map[string]bool, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			return fmt.Errorf("%w: question %d has no id", ErrInvalidDefinition, i+1)
		}
		if seen[q.ID] {
			return fmt.Errorf("%w: duplicate question id %q", ErrInvalidDefinition, q.ID)
		}
		seen[q.ID] = true

		if !validType(q.Type) {
			return fmt.Errorf("%w: question %q has unknown type %q", ErrInvalidDefinition, q.ID, q.Type)
		}
		if q.Title == "" {
			return fmt.Errorf("%w: question %q has no title", ErrInvalidDefinition, q.ID)
		}
		if q.IsChoice() && len(q.Options) == 0 {
			return fmt.Errorf("%w: question %q needs at least one option", ErrInvalidDefinition, q.ID)
		}

		optionIDs := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			if o.ID == "" || o.ID == OtherValue {
				return fmt.Errorf("%w: question %q has an invalid option id %q", ErrInvalidDefinition, q.ID, o.ID)
			}
			if optionIDs[o.ID] {
				return fmt.Errorf("%w: question %q has duplicate option id %q", ErrInvalidDefinition, q.ID, o.ID)
			}
			optionIDs[o.ID] = true
		}
	}
	return nil
}

// Answers maps question id to the respondent's current answer
type Answers map[string]Value

// OtherText holds free text for select questions answered with OtherValue
type OtherText map[string]string

// Errors maps question id to a single message. Empty means valid.
type Errors map[string]string

// Response is the persisted answer map stored on a registration record
type Response map[string]Value

// Equal reports whether two responses hold the same keys and values
func (r Response) Equal(o Response) bool {
	return maps.EqualFunc(r, o, Value.Equal)
}
