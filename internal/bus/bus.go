// Package bus is the in-process broadcast channel for domain events.
// Producers publish after their transaction commits; every subscriber owns an
// independent bounded cursor, so a slow consumer sheds its own oldest events
// instead of backpressuring publishers or its peers.
package bus

import (
	"context"
	"sync"
	"time"

	"gatehouse.org/internal/ids"
	"gatehouse.org/internal/obs"
)

const defaultCapacity = 10

// Event is a domain fact carried by the bus. The set of implementations is
// closed: user, profile, permission and tenant lifecycle events.
type Event interface {
	Kind() string
}

// Envelope wraps an event with its broadcast identity. Envelope IDs are
// sortable, so a subscriber's stream orders by publication time.
type Envelope struct {
	ID    string
	At    time.Time
	Event Event
}

// Bus fan-outs envelopes to all active subscribers.
type Bus struct {
	mu       sync.Mutex
	subs     map[int]chan Envelope
	next     int
	capacity int
}

// New initialises an empty bus. Each subscriber gets a buffer of the given
// capacity; non-positive values fall back to the default.
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Bus{
		subs:     make(map[int]chan Envelope),
		capacity: capacity,
	}
}

// Subscribe registers a subscriber and returns the channel its events arrive
// on. The channel is closed when the provided context ends.
func (b *Bus) Subscribe(ctx context.Context) <-chan Envelope {
	ch := make(chan Envelope, b.capacity)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
		b.mu.Unlock()
	}()

	return ch
}

// Publish stamps an envelope and fan-outs it to all subscribers. It never
// blocks waiting on subscriber progress: when one cursor is a full buffer
// behind, that subscriber's oldest unread envelope is dropped to make room.
func (b *Bus) Publish(evt Event) Envelope {
	env := Envelope{
		ID:    ids.New(),
		At:    time.Now().UTC(),
		Event: evt,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		delivered := false
		for !delivered {
			select {
			case ch <- env:
				delivered = true
			default:
				select {
				case <-ch:
					obs.EventDropped(evt.Kind())
				default:
				}
			}
		}
	}
	obs.EventPublished(evt.Kind())
	return env
}

// Subscribers returns the number of active cursors.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
