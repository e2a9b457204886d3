package pubsub

import (
	"context"
	"sync"
)

const channelBufferSize = 64

// Broker fans out events of one payload type to any number of subscribers.
// Publishing never blocks: events for subscribers with a full channel are
// dropped rather than stalling the publishing service.
type Broker[T any] struct {
	mu       sync.RWMutex
	subs     map[chan Event[T]]struct{}
	done     chan struct{}
	shutOnce sync.Once
}

func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{
		subs: make(map[chan Event[T]]struct{}),
		done: make(chan struct{}),
	}
}

// Subscribe registers a new subscriber channel. The subscription is removed
// and the channel closed when ctx is cancelled or the broker shuts down.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event[T], channelBufferSize)

	select {
	case <-b.done:
		// Broker already shut down; hand back a closed channel.
		close(ch)
		return ch
	default:
	}

	b.subs[ch] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
			b.remove(ch)
		case <-b.done:
			// Shutdown closes every channel; nothing left to do here.
		}
	}()

	return ch
}

func (b *Broker[T]) remove(ch chan Event[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Publish delivers an event to all current subscribers.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return
	default:
	}

	for ch := range b.subs {
		select {
		case ch <- Event[T]{Type: eventType, Payload: payload}:
		default:
			// Slow subscriber; drop instead of blocking the publisher.
		}
	}
}

// GetSubscriberCount returns the number of active subscriptions.
func (b *Broker[T]) GetSubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Shutdown closes every subscriber channel and rejects further activity.
func (b *Broker[T]) Shutdown() {
	b.shutOnce.Do(func() {
		close(b.done)
		b.mu.Lock()
		defer b.mu.Unlock()
		for ch := range b.subs {
			delete(b.subs, ch)
			close(ch)
		}
	})
}
