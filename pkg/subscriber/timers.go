package subscriber

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// expiryTimers tracks at most one live expiry timer per topic.
//
// Arming a topic that already has a timer is a no-op. Arming with an
// expiry already in the past does not schedule anything: it reports
// fired=true and the caller runs the expiry path synchronously, which
// keeps lock ordering in the Controller simple.
type expiryTimers struct {
	mu       sync.Mutex
	clock    clock.Clock
	timers   map[string]*clock.Timer
	onExpire func(topic string)
}

func newExpiryTimers(c clock.Clock, onExpire func(topic string)) *expiryTimers {
	return &expiryTimers{
		clock:    c,
		timers:   make(map[string]*clock.Timer),
		onExpire: onExpire,
	}
}

// arm schedules a one-shot timer firing at expiry. Returns true if the
// expiry is already due, in which case nothing was scheduled and the
// caller must run the expiry path itself.
func (t *expiryTimers) arm(topic string, expiry time.Time) bool {
	t.mu.Lock()

	if _, ok := t.timers[topic]; ok {
		t.mu.Unlock()
		return false
	}

	delay := expiry.Sub(t.clock.Now())
	if delay <= 0 {
		t.mu.Unlock()
		return true
	}

	t.timers[topic] = t.clock.AfterFunc(delay, func() {
		t.fire(topic)
	})
	t.mu.Unlock()

	return false
}

// fire clears the topic's slot and invokes the expiry handler. A slot
// already cancelled between scheduling and execution fires nothing.
func (t *expiryTimers) fire(topic string) {
	t.mu.Lock()
	if _, ok := t.timers[topic]; !ok {
		t.mu.Unlock()
		return
	}
	delete(t.timers, topic)
	t.mu.Unlock()

	t.onExpire(topic)
}

// cancel removes the topic's slot and stops its timer without firing.
func (t *expiryTimers) cancel(topic string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.timers[topic]; ok {
		timer.Stop()
		delete(t.timers, topic)
	}
}

// clear cancels every slot without firing any. Used when entering the
// disabled gating state: relay-side state is unknown after a reconnect,
// so timers are re-armed during replay instead.
func (t *expiryTimers) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for topic, timer := range t.timers {
		timer.Stop()
		delete(t.timers, topic)
	}
}

// has reports whether a timer is live for topic.
func (t *expiryTimers) has(topic string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.timers[topic]
	return ok
}

// count returns the number of live timers.
func (t *expiryTimers) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}
