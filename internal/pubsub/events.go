// Package pubsub fans asset change notifications out to any number of
// subscribers.
package pubsub

import (
	"context"
	"time"
)

// EventType says what happened to the file behind an event.
type EventType string

const (
	CreatedEvent EventType = "created"
	UpdatedEvent EventType = "updated"
	DeletedEvent EventType = "deleted"
)

// Event is one published notification.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber hands out event channels that close with ctx.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher is the sending side; the watcher only needs this.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
