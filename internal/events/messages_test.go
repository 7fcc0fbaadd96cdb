package events

import (
	"context"
	"testing"
)

func TestNewEvent(t *testing.T) {
	ctx := context.Background()

	event := NewEvent(TypeSwipeCommitted, SwipeCommittedEvent{
		CandidateID: "cand-1",
		Direction:   "like",
		Cursor:      3,
		Remaining:   7,
	}, ctx)

	if event.Type != TypeSwipeCommitted {
		t.Errorf("Expected type %q, got %q", TypeSwipeCommitted, event.Type)
	}

	payload, ok := event.Payload.(SwipeCommittedEvent)
	if !ok {
		t.Fatalf("Expected payload to be SwipeCommittedEvent, got %T", event.Payload)
	}

	if payload.CandidateID != "cand-1" || payload.Cursor != 3 {
		t.Errorf("Unexpected payload: %+v", payload)
	}
}

func TestNewEventNilContext(t *testing.T) {
	event := NewEvent(TypeDeckReset, nil, nil)
	if event.Context == nil {
		t.Error("Expected a non-nil context")
	}
}

func TestDispatcherPublish(t *testing.T) {
	d := NewDispatcher()
	obs := NewChannelObserver(4, TypeSwipeUnsaved)
	d.Register(obs)

	if d.ObserverCount() != 1 {
		t.Fatalf("Expected 1 observer, got %d", d.ObserverCount())
	}

	// Filtered out: observer only handles swipe:unsaved.
	d.Publish(NewEvent(TypeSwipeCommitted, nil, nil))
	d.Publish(NewEvent(TypeSwipeUnsaved, SwipeUnsavedEvent{
		CandidateID: "cand-2",
		Direction:   "like",
		Reason:      "network error",
	}, nil))

	select {
	case event := <-obs.Events():
		if event.Type != TypeSwipeUnsaved {
			t.Errorf("Expected swipe:unsaved, got %s", event.Type)
		}
	default:
		t.Fatal("Expected an event on the channel")
	}

	select {
	case event := <-obs.Events():
		t.Fatalf("Expected no further events, got %s", event.Type)
	default:
	}
}

func TestDispatcherUnregister(t *testing.T) {
	d := NewDispatcher()
	obs := NewChannelObserver(1)
	d.Register(obs)
	d.Unregister(obs)

	d.Publish(NewEvent(TypeDeckReset, DeckResetEvent{}, nil))

	select {
	case <-obs.Events():
		t.Fatal("Unregistered observer should not receive events")
	default:
	}
}
