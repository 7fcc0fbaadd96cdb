package events

import "github.com/ramonehamilton/deckflow/internal/deck"

// Event types published by the engine.
const (
	// TypeSwipeCommitted fires when a swipe commit becomes authoritative
	// in local state. The remote write may still be in flight.
	TypeSwipeCommitted = "swipe:committed"

	// TypeSwipeUnsaved fires when a remote write failed in a way that
	// means the decision was not durably recorded. This is the only
	// write failure surfaced to the user.
	TypeSwipeUnsaved = "swipe:unsaved"

	// TypeMatchDetected fires when a confirmed like turns out to be mutual.
	TypeMatchDetected = "match:detected"

	// TypeDeckReset fires after a deck has been cleared.
	TypeDeckReset = "deck:reset"

	// TypeUndoApplied fires after an undo restored the pre-swipe state.
	TypeUndoApplied = "undo:applied"
)

// SwipeCommittedEvent is the payload for swipe:committed.
type SwipeCommittedEvent struct {
	CandidateID string   `json:"candidateId"`
	Direction   string   `json:"direction"`
	Cursor      int      `json:"cursor"`
	Remaining   int      `json:"remaining"`
	Key         deck.Key `json:"key"`
}

// SwipeUnsavedEvent is the payload for swipe:unsaved.
type SwipeUnsavedEvent struct {
	CandidateID string `json:"candidateId"`
	Direction   string `json:"direction"`
	Reason      string `json:"reason"`
}

// MatchDetectedEvent is the payload for match:detected.
type MatchDetectedEvent struct {
	CandidateID string `json:"candidateId"`
	TargetType  string `json:"targetType"`
}

// DeckResetEvent is the payload for deck:reset.
type DeckResetEvent struct {
	Key deck.Key `json:"key"`
}

// UndoAppliedEvent is the payload for undo:applied.
type UndoAppliedEvent struct {
	CandidateID string `json:"candidateId"`
	Cursor      int    `json:"cursor"`
}
