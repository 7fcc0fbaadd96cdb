package swipe

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ramonehamilton/deckflow/internal/deck"
	"github.com/ramonehamilton/deckflow/internal/events"
	"github.com/ramonehamilton/deckflow/internal/remote"
)

// DecisionWriter is the external collaborator that durably records
// swipe decisions and detects mutual matches.
type DecisionWriter interface {
	RecordDecision(ctx context.Context, intentID, candidateID string, direction deck.Direction, targetType string) (*remote.DecisionResult, error)
	RollbackDecision(ctx context.Context, candidateID string) error
	RecordDismissal(ctx context.Context, candidateID string) error
}

// PendingWrite is the deferred reconciliation unit produced by a
// committed swipe. The intent id makes server-side retries idempotent.
type PendingWrite struct {
	IntentID    string
	CandidateID string
	Direction   deck.Direction
	TargetType  string
}

// NewPendingWrite builds a write intent for a committed swipe.
func NewPendingWrite(candidateID string, direction deck.Direction, targetType string) PendingWrite {
	return PendingWrite{
		IntentID:    uuid.NewString(),
		CandidateID: candidateID,
		Direction:   direction,
		TargetType:  targetType,
	}
}

// Writer dispatches pending writes off the interactive path and
// classifies their outcomes. Only outcomes meaning "your decision was
// not saved" are surfaced; benign conflicts are absorbed.
type Writer struct {
	client     DecisionWriter
	dispatcher *events.Dispatcher
	liked      *LikedList
	timeout    time.Duration
	wg         sync.WaitGroup
}

// NewWriter creates a writer. The dispatcher may be nil, in which case
// outcomes are only logged.
func NewWriter(client DecisionWriter, dispatcher *events.Dispatcher) *Writer {
	return &Writer{
		client:     client,
		dispatcher: dispatcher,
		liked:      NewLikedList(),
		timeout:    30 * time.Second,
	}
}

// Liked returns the locally cached list of confirmed likes.
func (w *Writer) Liked() *LikedList { return w.liked }

// Dispatch sends the write to the remote collaborator on its own
// goroutine. The caller never waits; the card transition has already
// completed by the time the outcome arrives.
func (w *Writer) Dispatch(pw PendingWrite) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()

		result, err := w.client.RecordDecision(ctx, pw.IntentID, pw.CandidateID, pw.Direction, pw.TargetType)
		switch remote.Classify(err) {
		case remote.ClassOK:
			// Optimistic cache updates only after confirmed success.
			if pw.Direction == deck.DirectionLike {
				w.liked.Add(pw.CandidateID)
			}
			if result != nil && result.Mutual {
				w.publish(events.TypeMatchDetected, events.MatchDetectedEvent{
					CandidateID: pw.CandidateID,
					TargetType:  pw.TargetType,
				})
			}
		case remote.ClassBenign:
			// Remote state already reflects the decision, or the row is
			// gone for reasons unrelated to user intent.
			log.Printf("[Writer] absorbed benign outcome for %s: %v", pw.CandidateID, err)
		case remote.ClassSelfTarget:
			log.Printf("[Writer] self-target slipped past ingestion filter: %s", pw.CandidateID)
			w.publish(events.TypeSwipeUnsaved, events.SwipeUnsavedEvent{
				CandidateID: pw.CandidateID,
				Direction:   pw.Direction.String(),
				Reason:      "cannot decide on your own candidate",
			})
		case remote.ClassUnexpected:
			log.Printf("[Writer] decision for %s not saved: %v", pw.CandidateID, err)
			w.publish(events.TypeSwipeUnsaved, events.SwipeUnsavedEvent{
				CandidateID: pw.CandidateID,
				Direction:   pw.Direction.String(),
				Reason:      "decision was not saved, please retry",
			})
		}
	}()
}

// Rollback reverses a dispatched write, also off the interactive path.
// The local undo has already been applied; a failed rollback is logged
// and absorbed.
func (w *Writer) Rollback(candidateID string) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()

		if err := w.client.RollbackDecision(ctx, candidateID); err != nil {
			log.Printf("[Writer] rollback failed for %s: %v", candidateID, err)
			return
		}
		w.liked.Remove(candidateID)
	}()
}

// Dismiss records a dismissal, off the interactive path.
func (w *Writer) Dismiss(candidateID string) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()

		if err := w.client.RecordDismissal(ctx, candidateID); err != nil {
			log.Printf("[Writer] dismissal failed for %s: %v", candidateID, err)
		}
	}()
}

// Wait blocks until all dispatched writes have resolved. Intended for
// tests and shutdown.
func (w *Writer) Wait() {
	w.wg.Wait()
}

func (w *Writer) publish(eventType string, payload any) {
	if w.dispatcher == nil {
		return
	}
	w.dispatcher.Publish(events.NewEvent(eventType, payload, nil))
}

// LikedList is the locally cached set of confirmed likes, updated only
// after the remote write succeeds.
type LikedList struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewLikedList creates an empty liked list.
func NewLikedList() *LikedList {
	return &LikedList{ids: make(map[string]struct{})}
}

// Add records a confirmed like.
func (l *LikedList) Add(candidateID string) {
	l.mu.Lock()
	l.ids[candidateID] = struct{}{}
	l.mu.Unlock()
}

// Remove drops a like (after a confirmed rollback).
func (l *LikedList) Remove(candidateID string) {
	l.mu.Lock()
	delete(l.ids, candidateID)
	l.mu.Unlock()
}

// Contains reports whether a candidate is in the liked list.
func (l *LikedList) Contains(candidateID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.ids[candidateID]
	return ok
}
