package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/waymark/internal/event/topic"
)

// Event is a published notification. Events are immutable once created.
type Event struct {
	// Type is the hierarchical event type (e.g., "chart.waypoint.moved").
	Type topic.Topic

	// Payload contains the event-specific data.
	Payload any

	// Metadata contains standard event information.
	Metadata Metadata
}

// Metadata contains standard information attached to every event.
type Metadata struct {
	// ID is a unique identifier for this event instance.
	ID string

	// Timestamp is when the event was created.
	Timestamp time.Time

	// Source identifies the component that published the event.
	Source string
}

// New creates an event with the given type and payload.
func New(eventType topic.Topic, payload any, source string) Event {
	return Event{
		Type:    eventType,
		Payload: payload,
		Metadata: Metadata{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Source:    source,
		},
	}
}

// Handler receives events.
type Handler func(Event) error
