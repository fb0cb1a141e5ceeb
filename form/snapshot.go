// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package form

import "maps"

// Snapshot is an immutable copy of an answer set and its other texts
type Snapshot struct {
	answers Answers
	other   OtherText
}

// TakeSnapshot copies answers and other so later edits do not leak in
func TakeSnapshot(answers Answers, other OtherText) Snapshot {
	s := Snapshot{answers: make(Answers, len(answers)), other: make(OtherText, len(other))}
	for id, v := range answers {
		if !v.IsZero() {
			s.answers[id] = v.clone()
		}
	}
	for id, text := range other {
		if text != "" {
			s.other[id] = text
		}
	}
	return s
}

// Equal compares two snapshots. Missing answers and empty texts are ignored.
func (s Snapshot) Equal(o Snapshot) bool {
	return maps.EqualFunc(s.answers, o.answers, Value.Equal) && maps.Equal(s.other, o.other)
}

// Confirmer asks the user whether unsaved answers may be thrown away
type Confirmer interface {
	ConfirmDiscard() bool
}

// ConfirmFunc adapts a plain function to Confirmer
type ConfirmFunc func() bool

func (f ConfirmFunc) ConfirmDiscard() bool { return f() }

// Tracker remembers the last synced state of a form being edited
type Tracker struct {
	synced Snapshot
}

func NewTracker(answers Answers, other OtherText) *Tracker {
	return &Tracker{synced: TakeSnapshot(answers, other)}
}

// Dirty reports whether the current answers differ from the last sync
func (t *Tracker) Dirty(answers Answers, other OtherText) bool {
	return !t.synced.Equal(TakeSnapshot(answers, other))
}

// MarkSynced records answers as saved
func (t *Tracker) MarkSynced(answers Answers, other OtherText) {
	t.synced = TakeSnapshot(answers, other)
}

// Leave reports whether the editor may be left. c is only asked when there
// are unsaved changes.
func (t *Tracker) Leave(answers Answers, other OtherText, c Confirmer) bool {
	if !t.Dirty(answers, other) {
		return true
	}
	return c.ConfirmDiscard()
}
