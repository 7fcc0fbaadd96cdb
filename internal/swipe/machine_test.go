package swipe

import (
	"sync"
	"testing"
	"time"

	"github.com/ramonehamilton/deckflow/internal/deck"
)

type commitRecorder struct {
	mu      sync.Mutex
	commits []Pending
}

func (r *commitRecorder) commit(p Pending) {
	r.mu.Lock()
	r.commits = append(r.commits, p)
	r.mu.Unlock()
}

func (r *commitRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.commits)
}

func (r *commitRecorder) last() Pending {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commits[len(r.commits)-1]
}

func pending(id string) Pending {
	return Pending{
		Key:         deck.Key{Role: "buyer", Category: "bikes"},
		CandidateID: id,
		Direction:   deck.DirectionLike,
		TargetType:  "listing",
		PrevCursor:  0,
	}
}

func TestBeginThenFinishCommitsOnce(t *testing.T) {
	rec := &commitRecorder{}
	m := NewMachine(time.Second, rec.commit)

	if !m.Begin(pending("a")) {
		t.Fatal("Expected Begin to accept the first gesture")
	}
	if m.Phase() != PhaseAnimating {
		t.Fatal("Expected Animating phase after Begin")
	}

	m.Finish()
	if rec.count() != 1 {
		t.Fatalf("Expected 1 commit, got %d", rec.count())
	}
	if rec.last().Flushed {
		t.Error("Animation-driven commit must not be marked flushed")
	}
	if m.Phase() != PhaseIdle {
		t.Error("Expected Idle phase after commit")
	}

	// Late duplicate callback is a no-op.
	m.Finish()
	if rec.count() != 1 {
		t.Errorf("Expected duplicate Finish to be ignored, got %d commits", rec.count())
	}
}

func TestSecondGestureIgnoredWhileAnimating(t *testing.T) {
	rec := &commitRecorder{}
	m := NewMachine(time.Second, rec.commit)

	m.Begin(pending("a"))
	if m.Begin(pending("b")) {
		t.Fatal("Expected second gesture to be ignored while animating")
	}

	m.Finish()
	if rec.count() != 1 || rec.last().CandidateID != "a" {
		t.Errorf("Expected exactly the first swipe to commit, got %+v", rec.commits)
	}

	// Machine is idle again; a new gesture is accepted.
	if !m.Begin(pending("b")) {
		t.Error("Expected gesture to be accepted after commit")
	}
}

func TestSafetyFlushForcesCommit(t *testing.T) {
	rec := &commitRecorder{}
	m := NewMachine(20*time.Millisecond, rec.commit)

	m.Begin(pending("a"))
	// Animation callback never fires.

	deadline := time.Now().Add(time.Second)
	for rec.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if rec.count() != 1 {
		t.Fatalf("Expected safety flush to commit, got %d commits", rec.count())
	}
	if !rec.last().Flushed {
		t.Error("Safety-flush commit must be marked flushed")
	}

	// The normal completion path after a flush is a no-op.
	m.Finish()
	if rec.count() != 1 {
		t.Errorf("Expected Finish after flush to be ignored, got %d commits", rec.count())
	}
}

func TestNormalFinishCancelsSafetyFlush(t *testing.T) {
	rec := &commitRecorder{}
	m := NewMachine(30*time.Millisecond, rec.commit)

	m.Begin(pending("a"))
	m.Finish()

	time.Sleep(80 * time.Millisecond)
	if rec.count() != 1 {
		t.Errorf("Expected the flush timer not to double-commit, got %d commits", rec.count())
	}
}

func TestFlushOnTeardown(t *testing.T) {
	rec := &commitRecorder{}
	m := NewMachine(time.Hour, rec.commit)

	m.Begin(pending("a"))
	m.Flush()

	if rec.count() != 1 {
		t.Fatalf("Expected teardown flush to commit, got %d commits", rec.count())
	}
	if !rec.last().Flushed {
		t.Error("Teardown commit must be marked flushed")
	}
}
