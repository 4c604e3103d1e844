package events

import (
	"sync"
	"time"
)

// Kind identifies the type of a lifecycle event.
type Kind uint8

const (
	// KindCreated indicates a new subscription was established.
	KindCreated Kind = iota

	// KindUpdated indicates a subscription's data was updated.
	KindUpdated

	// KindDeleted indicates a subscription was removed.
	KindDeleted

	// KindPayload indicates an inbound relay message for a known topic.
	KindPayload
)

// String returns a human-readable event kind name.
func (k Kind) String() string {
	switch k {
	case KindCreated:
		return "CREATED"
	case KindUpdated:
		return "UPDATED"
	case KindDeleted:
		return "DELETED"
	case KindPayload:
		return "PAYLOAD"
	default:
		return "UNKNOWN"
	}
}

// Event is the envelope delivered to listeners.
type Event struct {
	// Kind is the event type.
	Kind Kind

	// Topic is the subscription topic the event relates to.
	Topic string

	// Data is the subscription data at the time of the event.
	// For DELETED events this is the data prior to removal.
	Data map[string]any

	// Reason is the caller-supplied removal reason. Set on DELETED only.
	Reason string

	// Payload is the raw inbound message body. Set on PAYLOAD only.
	Payload []byte

	// Timestamp is when the event was published.
	Timestamp time.Time
}

// Handler receives published events.
type Handler func(Event)

// Bus is a synchronous in-process publish/subscribe point for lifecycle
// events. The zero value is not usable; create one with NewBus.
type Bus struct {
	mu        sync.RWMutex
	listeners map[Kind]map[uint64]Handler
	nextID    uint64
}

// NewBus creates a new event bus with no listeners.
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[Kind]map[uint64]Handler),
	}
}

// Subscribe registers a handler for one event kind and returns a listener
// id usable with Unsubscribe.
func (b *Bus) Subscribe(kind Kind, h Handler) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID

	if b.listeners[kind] == nil {
		b.listeners[kind] = make(map[uint64]Handler)
	}
	b.listeners[kind][id] = h

	return id
}

// Unsubscribe removes a previously registered listener.
// Unknown ids are ignored.
func (b *Bus) Unsubscribe(kind Kind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.listeners[kind], id)
	if len(b.listeners[kind]) == 0 {
		delete(b.listeners, kind)
	}
}

// Publish delivers the event synchronously to every listener registered
// for its kind. A zero Timestamp is filled in with the current time.
func (b *Bus) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	// Capture handlers under the lock, invoke outside it so listeners
	// may register or remove listeners without deadlocking.
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.listeners[ev.Kind]))
	for _, h := range b.listeners[ev.Kind] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// ListenerCount returns the number of listeners registered for a kind.
func (b *Bus) ListenerCount(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[kind])
}
