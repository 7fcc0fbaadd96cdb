package undo

import (
	"testing"

	"github.com/ramonehamilton/deckflow/internal/deck"
)

var testKey = deck.Key{Role: "buyer", Category: "bikes"}

func decision(id string, cursor int) deck.Decision {
	return deck.Decision{
		Key:         testKey,
		CandidateID: id,
		Direction:   deck.DirectionLike,
		PrevCursor:  cursor,
	}
}

func TestRecordOverwrites(t *testing.T) {
	s := NewStack()
	s.Record(decision("a", 0))
	s.Record(decision("b", 1))

	d, ok := s.Peek(testKey)
	if !ok {
		t.Fatal("Expected a pending decision")
	}
	if d.CandidateID != "b" || d.PrevCursor != 1 {
		t.Errorf("Expected latest decision to win, got %+v", d)
	}
}

func TestBeginGuardsDoubleInvocation(t *testing.T) {
	s := NewStack()
	s.Record(decision("a", 3))

	d, ok := s.Begin(testKey)
	if !ok || d.CandidateID != "a" {
		t.Fatalf("Expected to claim decision, got ok=%v d=%+v", ok, d)
	}

	if _, ok := s.Begin(testKey); ok {
		t.Error("Second Begin while in flight must fail")
	}
	if s.CanUndo(testKey) {
		t.Error("CanUndo must be false while an undo is in flight")
	}

	s.Finish(testKey)
	if _, ok := s.Peek(testKey); ok {
		t.Error("Finish must clear the entry")
	}
}

func TestBeginEmpty(t *testing.T) {
	s := NewStack()
	if _, ok := s.Begin(testKey); ok {
		t.Error("Begin on an empty stack must fail")
	}
}

func TestRecordAfterBeginSupersedes(t *testing.T) {
	s := NewStack()
	s.Record(decision("a", 0))
	s.Begin(testKey)

	// A new swipe landing while an undo is in flight replaces the
	// entry and releases the in-flight guard for the new decision.
	s.Record(decision("b", 1))
	d, ok := s.Begin(testKey)
	if !ok || d.CandidateID != "b" {
		t.Errorf("Expected new decision to be claimable, got ok=%v d=%+v", ok, d)
	}
}

func TestInvalidate(t *testing.T) {
	s := NewStack()
	s.Record(decision("a", 0))
	s.Invalidate(testKey)

	if s.CanUndo(testKey) {
		t.Error("Invalidate must drop the pending entry")
	}
}

func TestDecksAreIndependent(t *testing.T) {
	s := NewStack()
	other := deck.Key{Role: "seller", Category: "books"}
	s.Record(decision("a", 0))

	if s.CanUndo(other) {
		t.Error("Entry for one deck must not enable undo on another")
	}
}
