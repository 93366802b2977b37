// Package events is the in-process publish/subscribe bus modules use to react
// to each other without importing one another.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is a named domain event.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries the id and timestamp every event embeds.
type BaseEvent struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt returns the publication time.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// EventID identifies one publication in logs.
func (e BaseEvent) EventID() uuid.UUID {
	return e.ID
}

// NewBaseEvent stamps a fresh id and the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{ID: uuid.New(), Timestamp: time.Now().UTC()}
}

// Handler reacts to an event. Returned errors are logged by the bus.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain func subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus delivers events by name. Publish returns immediately; PublishSync runs
// handlers in order and joins their errors.
type Bus interface {
	Publish(ctx context.Context, event Event)
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}

type identified interface {
	EventID() uuid.UUID
}

func eventID(event Event) string {
	if e, ok := event.(identified); ok && e.EventID() != uuid.Nil {
		return e.EventID().String()
	}
	return ""
}
