package relay

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Loopback is an in-process Transport. Messages published to a topic are
// delivered synchronously to every handler subscribed to that topic.
//
// Loopback models the relay's failure behavior: on disconnect all server-side
// subscription state is dropped, so subscriptions do not survive a
// Disconnect/Connect cycle and must be re-established by the client.
type Loopback struct {
	mu    sync.RWMutex
	state State
	subs  map[string]*loopbackSub

	onConnect    map[uint64]func()
	onDisconnect map[uint64]func()
	nextCallback uint64
}

// loopbackSub is one active subscription on the loopback relay.
type loopbackSub struct {
	id      string
	topic   string
	handler MessageHandler
}

// NewLoopback creates a connected loopback transport.
func NewLoopback() *Loopback {
	return &Loopback{
		state:        StateConnected,
		subs:         make(map[string]*loopbackSub),
		onConnect:    make(map[uint64]func()),
		onDisconnect: make(map[uint64]func()),
	}
}

// State returns the current connection state.
func (l *Loopback) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Subscribe registers a topic handler and returns a fresh subscription id.
func (l *Loopback) Subscribe(_ context.Context, topic string, handler MessageHandler, _ ProtocolOptions) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateClosed:
		return "", ErrClosed
	case StateDisconnected:
		return "", ErrNotConnected
	}

	sub := &loopbackSub{
		id:      uuid.NewString(),
		topic:   topic,
		handler: handler,
	}
	l.subs[sub.id] = sub

	return sub.id, nil
}

// Unsubscribe removes a subscription by id.
func (l *Loopback) Unsubscribe(_ context.Context, id string, _ ProtocolOptions) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateClosed:
		return ErrClosed
	case StateDisconnected:
		return ErrNotConnected
	}

	if _, ok := l.subs[id]; !ok {
		return ErrUnknownSubscription
	}
	delete(l.subs, id)

	return nil
}

// Publish delivers a payload to every handler subscribed to topic.
// Delivery is synchronous; Publish returns after all handlers have run.
func (l *Loopback) Publish(topic string, payload []byte) error {
	l.mu.RLock()
	if l.state != StateConnected {
		state := l.state
		l.mu.RUnlock()
		if state == StateClosed {
			return ErrClosed
		}
		return ErrNotConnected
	}
	var handlers []MessageHandler
	for _, sub := range l.subs {
		if sub.topic == topic {
			handlers = append(handlers, sub.handler)
		}
	}
	l.mu.RUnlock()

	msg := Message{Topic: topic, Payload: payload, PublishedAt: time.Now()}
	for _, h := range handlers {
		h(msg)
	}
	return nil
}

// Disconnect simulates connection loss. All subscription state is dropped,
// mirroring a relay that keeps no per-client state across connections.
// Disconnect callbacks fire before it returns.
func (l *Loopback) Disconnect() {
	l.mu.Lock()
	if l.state != StateConnected {
		l.mu.Unlock()
		return
	}
	l.state = StateDisconnected
	l.subs = make(map[string]*loopbackSub)
	callbacks := l.disconnectCallbacksLocked()
	l.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Connect (re)establishes the connection. Connect callbacks fire before it
// returns, so callers observe a fully replayed client state afterwards.
func (l *Loopback) Connect() {
	l.mu.Lock()
	if l.state != StateDisconnected {
		l.mu.Unlock()
		return
	}
	l.state = StateConnected
	callbacks := l.connectCallbacksLocked()
	l.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Close shuts the transport down. Further calls fail with ErrClosed.
func (l *Loopback) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state = StateClosed
	l.subs = make(map[string]*loopbackSub)
	l.onConnect = make(map[uint64]func())
	l.onDisconnect = make(map[uint64]func())
}

// OnConnect registers a callback fired once per successful (re)connection.
func (l *Loopback) OnConnect(fn func()) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextCallback++
	id := l.nextCallback
	l.onConnect[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.onConnect, id)
	}
}

// OnDisconnect registers a callback fired when the connection is lost.
func (l *Loopback) OnDisconnect(fn func()) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextCallback++
	id := l.nextCallback
	l.onDisconnect[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.onDisconnect, id)
	}
}

// SubscriptionCount returns the number of active subscriptions.
func (l *Loopback) SubscriptionCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs)
}

// IsSubscribed reports whether any active subscription covers topic.
func (l *Loopback) IsSubscribed(topic string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, sub := range l.subs {
		if sub.topic == topic {
			return true
		}
	}
	return false
}

func (l *Loopback) connectCallbacksLocked() []func() {
	out := make([]func(), 0, len(l.onConnect))
	for _, fn := range l.onConnect {
		out = append(out, fn)
	}
	return out
}

func (l *Loopback) disconnectCallbacksLocked() []func() {
	out := make([]func(), 0, len(l.onDisconnect))
	for _, fn := range l.onDisconnect {
		out = append(out, fn)
	}
	return out
}

// Compile-time interface satisfaction check.
var _ Transport = (*Loopback)(nil)
