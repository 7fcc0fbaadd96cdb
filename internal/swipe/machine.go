// Package swipe converts a user gesture into an instantaneous visual
// transition followed by a deferred, exactly-once commit. The split
// lets the exit animation run at full frame rate while the safety
// flush guarantees no swipe is ever silently dropped.
package swipe

import (
	"sync"
	"time"

	"github.com/ramonehamilton/deckflow/internal/deck"
)

// DefaultFlushTimeout forces the commit if the animation-completion
// callback never fires.
const DefaultFlushTimeout = 350 * time.Millisecond

// Phase is the machine's current state.
type Phase int

const (
	// PhaseIdle: no swipe in progress; gestures are accepted.
	PhaseIdle Phase = iota
	// PhaseAnimating: a pending transition exists; further gestures
	// are ignored until it commits.
	PhaseAnimating
)

// Pending is the transition recorded synchronously at gesture time.
type Pending struct {
	Key         deck.Key
	CandidateID string
	Direction   deck.Direction
	TargetType  string
	// PrevCursor is the cursor value before the swipe; the undo path
	// restores it verbatim.
	PrevCursor int
	// Flushed is true when the safety timeout, not the animation
	// callback, drove the commit.
	Flushed bool
}

// Machine serializes swipes: at most one transition is pending at a
// time, and its commit happens exactly once, via the animation
// callback or the safety flush, whichever comes first.
type Machine struct {
	mu         sync.Mutex
	pending    *Pending
	timer      *time.Timer
	flushAfter time.Duration
	commit     func(Pending)
}

// NewMachine creates a machine that calls commit for every completed
// swipe. A flushAfter of 0 uses DefaultFlushTimeout.
func NewMachine(flushAfter time.Duration, commit func(Pending)) *Machine {
	if flushAfter <= 0 {
		flushAfter = DefaultFlushTimeout
	}
	return &Machine{flushAfter: flushAfter, commit: commit}
}

// Phase returns the machine's current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending != nil {
		return PhaseAnimating
	}
	return PhaseIdle
}

// Begin records a pending transition and arms the safety flush.
// Returns false, with no effect, if a swipe is already animating.
func (m *Machine) Begin(p Pending) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending != nil {
		return false
	}
	pending := p
	m.pending = &pending
	m.timer = time.AfterFunc(m.flushAfter, func() {
		m.finish(true)
	})
	return true
}

// Finish is the animation-completion callback. It commits the pending
// transition; calling it with nothing pending is a no-op, so a late
// callback after a safety flush is harmless.
func (m *Machine) Finish() {
	m.finish(false)
}

// Flush commits any pending transition immediately. Called on
// teardown so an in-flight swipe is committed rather than dropped.
func (m *Machine) Flush() {
	m.finish(true)
}

func (m *Machine) finish(flushed bool) {
	m.mu.Lock()
	if m.pending == nil {
		m.mu.Unlock()
		return
	}
	p := *m.pending
	m.pending = nil
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.mu.Unlock()

	p.Flushed = flushed
	m.commit(p)
}
