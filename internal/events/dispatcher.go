// Package events distributes engine notifications to interested
// observers: committed swipes, write failures that need user attention,
// mutual matches, deck resets. The interactive path publishes and moves
// on; observers decide what is worth showing.
package events

import (
	"context"
	"log"
	"sync"
)

// Event is one engine notification.
type Event struct {
	// Type is the event type (e.g. "swipe:committed", "swipe:unsaved").
	Type string

	// Payload is the typed event payload; may be nil for events that
	// carry no data beyond their type.
	Payload any

	// Context is the execution context the event was published under.
	Context context.Context
}

// NewEvent creates an event with a typed payload.
func NewEvent(eventType string, payload any, ctx context.Context) Event {
	if ctx == nil {
		ctx = context.Background()
	}
	return Event{Type: eventType, Payload: payload, Context: ctx}
}

// Observer is notified of published events.
type Observer interface {
	// OnEvent handles one event. Errors are logged by the dispatcher
	// and never stop delivery to other observers.
	OnEvent(event Event) error

	// Name returns a human-readable observer name for logging.
	Name() string

	// ShouldHandle filters the event types this observer cares about.
	ShouldHandle(eventType string) bool
}

// Dispatcher fans events out to registered observers. Thread-safe.
type Dispatcher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{observers: make([]Observer, 0)}
}

// Register adds an observer. It will see all future events that pass
// its ShouldHandle filter.
func (d *Dispatcher) Register(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.observers = append(d.observers, observer)
	log.Printf("[Dispatcher] Registered observer: %s", observer.Name())
}

// Unregister removes an observer.
func (d *Dispatcher) Unregister(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, obs := range d.observers {
		if obs == observer {
			d.observers[i] = d.observers[len(d.observers)-1]
			d.observers = d.observers[:len(d.observers)-1]
			return
		}
	}
}

// Publish delivers an event to all observers, sequentially, in
// registration order. Observer errors are logged and skipped.
func (d *Dispatcher) Publish(event Event) {
	d.mu.RLock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.RUnlock()

	for _, observer := range observers {
		if !observer.ShouldHandle(event.Type) {
			continue
		}
		if err := observer.OnEvent(event); err != nil {
			log.Printf("[Dispatcher] Observer %s failed on %s: %v",
				observer.Name(), event.Type, err)
		}
	}
}

// ObserverCount returns the number of registered observers.
func (d *Dispatcher) ObserverCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.observers)
}

// Clear removes all observers. Intended for tests and teardown.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = d.observers[:0]
}
