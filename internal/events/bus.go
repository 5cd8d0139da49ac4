package events

import "sync"

// DefaultSubscriberCapacity is the per-subscriber backlog used by Subscribe.
const DefaultSubscriberCapacity = 64

// Bus fans every published event out to all current subscribers.
type Bus[T any] struct {
	mu     sync.RWMutex
	subs   map[*RingChannel[T]]struct{}
	closed bool
}

// NewBus creates an empty bus.
func NewBus[T any]() *Bus[T] {
	return &Bus[T]{subs: make(map[*RingChannel[T]]struct{})}
}

// Subscribe registers a new subscriber. A capacity <= 0 selects DefaultSubscriberCapacity.
func (b *Bus[T]) Subscribe(capacity int) *RingChannel[T] {
	if capacity <= 0 {
		capacity = DefaultSubscriberCapacity
	}
	rc := NewRingChannel[T](capacity)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		rc.Close()
		return rc
	}
	b.subs[rc] = struct{}{}
	return rc
}

// Unsubscribe removes and closes a subscriber.
func (b *Bus[T]) Unsubscribe(rc *RingChannel[T]) {
	b.mu.Lock()
	_, ok := b.subs[rc]
	delete(b.subs, rc)
	b.mu.Unlock()
	if ok {
		rc.Close()
	}
}

// Publish delivers v to every subscriber without blocking.
func (b *Bus[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for rc := range b.subs {
		rc.Send(v)
	}
}

// Subscribers returns the current number of subscribers.
func (b *Bus[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscriber; later subscriptions are born closed.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for rc := range b.subs {
		rc.Close()
	}
	b.subs = map[*RingChannel[T]]struct{}{}
}
