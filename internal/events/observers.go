package events

import (
	"log"
)

// LogObserver writes every event it handles to the process log.
// Used as the default observer when no UI layer is attached.
type LogObserver struct {
	name string
}

// NewLogObserver creates a log observer.
func NewLogObserver() *LogObserver {
	return &LogObserver{name: "LogObserver"}
}

// OnEvent logs the event.
func (o *LogObserver) OnEvent(event Event) error {
	log.Printf("[%s] %s: %+v", o.name, event.Type, event.Payload)
	return nil
}

// Name returns the observer's name.
func (o *LogObserver) Name() string { return o.name }

// ShouldHandle accepts every event type.
func (o *LogObserver) ShouldHandle(string) bool { return true }

// ChannelObserver forwards events onto a channel, dropping events when
// the channel is full rather than blocking the publisher. The UI layer
// (or a test) drains the channel at its own pace.
type ChannelObserver struct {
	name   string
	types  map[string]struct{}
	events chan Event
}

// NewChannelObserver creates a channel observer with the given buffer.
// If types is empty the observer handles all event types.
func NewChannelObserver(buffer int, types ...string) *ChannelObserver {
	filter := make(map[string]struct{}, len(types))
	for _, t := range types {
		filter[t] = struct{}{}
	}
	return &ChannelObserver{
		name:   "ChannelObserver",
		types:  filter,
		events: make(chan Event, buffer),
	}
}

// Events returns the receive side of the observer's channel.
func (o *ChannelObserver) Events() <-chan Event { return o.events }

// OnEvent forwards the event without blocking. A full channel drops
// the event; notifications are advisory, never load-bearing.
func (o *ChannelObserver) OnEvent(event Event) error {
	select {
	case o.events <- event:
	default:
	}
	return nil
}

// Name returns the observer's name.
func (o *ChannelObserver) Name() string { return o.name }

// ShouldHandle reports whether the event type passes the filter.
func (o *ChannelObserver) ShouldHandle(eventType string) bool {
	if len(o.types) == 0 {
		return true
	}
	_, ok := o.types[eventType]
	return ok
}
