// Package pubsub provides a minimal generic broker used to fan out service
// events (snapshots resolved, runs recorded, logs written) to subscribers.
package pubsub

import "context"

type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
)

// Event carries a typed payload from a service to its subscribers.
type Event[T any] struct {
	Type    EventType
	Payload T
}

// Subscriber is implemented by services that publish events. The returned
// channel is closed when ctx is cancelled or the broker shuts down.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
