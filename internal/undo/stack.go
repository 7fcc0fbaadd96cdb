// Package undo retains the last committed swipe per deck so exactly
// one reversal is possible. Single-level on purpose: multi-level undo
// would need a remote log replay the write collaborator does not offer.
package undo

import (
	"sync"

	"github.com/ramonehamilton/deckflow/internal/deck"
)

// Stack holds at most one reversible decision per deck key.
type Stack struct {
	mu       sync.Mutex
	entries  map[deck.Key]deck.Decision
	inflight map[deck.Key]bool
}

// NewStack creates an empty undo stack.
func NewStack() *Stack {
	return &Stack{
		entries:  make(map[deck.Key]deck.Decision),
		inflight: make(map[deck.Key]bool),
	}
}

// Record stores the decision for its deck, overwriting any previous
// entry. A new swipe always supersedes the old undo target.
func (s *Stack) Record(d deck.Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[d.Key] = d
	delete(s.inflight, d.Key)
}

// Peek returns the pending decision for a deck without consuming it.
func (s *Stack) Peek(key deck.Key) (deck.Decision, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.entries[key]
	return d, ok
}

// CanUndo reports whether an undo is currently possible for the deck:
// an entry exists and no undo is already in flight.
func (s *Stack) CanUndo(key deck.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok && !s.inflight[key]
}

// Begin claims the deck's pending decision for an undo. It returns
// false if there is nothing to undo or an undo is already in flight,
// making double-invocation harmless.
func (s *Stack) Begin(key deck.Key) (deck.Decision, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.entries[key]
	if !ok || s.inflight[key] {
		return deck.Decision{}, false
	}
	s.inflight[key] = true
	return d, true
}

// Finish completes an in-flight undo, clearing the entry.
func (s *Stack) Finish(key deck.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	delete(s.inflight, key)
}

// Invalidate drops any pending entry for the deck. Called on deck
// reset: restoring a cursor into a rebuilt item list is never valid.
func (s *Stack) Invalidate(key deck.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	delete(s.inflight, key)
}
