package subscriber

import (
	"context"
	"sync"
)

// gate is the operation gating state: enabled during normal operation,
// disabled while a reconnect replay (or the initial restore) is pending.
//
// While disabled it holds the snapshot of the pre-disconnect record set
// that the replay will resubscribe. Disabling again before the replay
// finishes never overwrites an already-cached snapshot: the in-flight
// replay's view of which topics were active is authoritative.
type gate struct {
	mu      sync.Mutex
	enabled bool
	closed  bool
	ready   chan struct{} // closed while enabled
	cache   []Subscription
}

func newGate() *gate {
	ready := make(chan struct{})
	close(ready)
	return &gate{enabled: true, ready: ready}
}

// await blocks until the gate is enabled, the context is cancelled, or
// the gate is closed.
func (g *gate) await(ctx context.Context) error {
	for {
		g.mu.Lock()
		if g.closed {
			g.mu.Unlock()
			return ErrClosed
		}
		if g.enabled {
			g.mu.Unlock()
			return nil
		}
		ready := g.ready
		g.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ready:
		}
	}
}

// disable suspends operations and caches snapshot for the pending replay.
// An already-cached snapshot is kept; an empty snapshot caches nothing.
func (g *gate) disable(snapshot []Subscription) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	if g.enabled {
		g.enabled = false
		g.ready = make(chan struct{})
	}
	if g.cache == nil && len(snapshot) > 0 {
		g.cache = snapshot
	}
}

// pending returns the cached snapshot, or nil if none is pending.
func (g *gate) pending() []Subscription {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cache
}

// enable clears the cache and releases every waiting operation.
func (g *gate) enable() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.cache = nil
	if !g.enabled {
		g.enabled = true
		close(g.ready)
	}
}

// close releases all waiters with ErrClosed. The gate stays closed.
func (g *gate) close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.closed = true
	g.cache = nil
	if !g.enabled {
		close(g.ready)
	}
}

// isEnabled reports the current gating state.
func (g *gate) isEnabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}
