// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

type valueKind uint8

const (
	kindNone valueKind = iota
	kindString
	kindList
)

// Value is a single answer: either a string (option id or free text) or a
// list of option ids. The zero Value means "no answer".
type Value struct {
	kind valueKind
	str  string
	list []string
}

// String builds a scalar answer
func String(s string) Value {
	return Value{kind: kindString, str: s}
}

// List builds a multi-choice answer. A nil or empty list is still a list.
func List(ids ...string) Value {
	return Value{kind: kindList, list: slices.Clone(ids)}
}

func (v Value) IsZero() bool   { return v.kind == kindNone }
func (v Value) IsString() bool { return v.kind == kindString }
func (v Value) IsList() bool   { return v.kind == kindList }

// Str returns the scalar value, or "" for lists and missing answers
func (v Value) Str() string {
	if v.kind != kindString {
		return ""
	}
	return v.str
}

// Items returns a copy of the list value, or nil for scalars
func (v Value) Items() []string {
	if v.kind != kindList {
		return nil
	}
	return slices.Clone(v.list)
}

// Contains reports whether the value selects id, as a scalar or list member
func (v Value) Contains(id string) bool {
	switch v.kind {
	case kindString:
		return v.str == id
	case kindList:
		return slices.Contains(v.list, id)
	}
	return false
}

// Equal compares two values structurally. List order matters.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case kindString:
		return v.str == o.str
	case kindList:
		return slices.Equal(v.list, o.list)
	}
	return true
}

func (v Value) clone() Value {
	if v.kind == kindList {
		return List(v.list...)
	}
	return v
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindString:
		return json.Marshal(v.str)
	case kindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts a string, an array of strings, or null. Numbers and
// booleans are kept as their literal text so old records still load.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case '[':
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("answer list must contain strings: %w", err)
		}
		if list == nil {
			list = []string{}
		}
		*v = Value{kind: kindList, list: list}
	case '{':
		return fmt.Errorf("answer must be a string or a list, got object")
	default:
		*v = String(string(data))
	}
	return nil
}
