package subscriber_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/relaymesh/relaymesh-go/pkg/events"
	"github.com/relaymesh/relaymesh-go/pkg/relay"
	"github.com/relaymesh/relaymesh-go/pkg/storage"
	"github.com/relaymesh/relaymesh-go/pkg/subscriber"
)

func TestReconnectReplaysAllTopics(t *testing.T) {
	ts := newTestStack(t)
	ctx := context.Background()
	require.NoError(t, ts.ctrl.Start(ctx))

	require.NoError(t, ts.ctrl.Set(ctx, "t1", subscriber.Data{"x": 1}, subscriber.Options{}))
	require.NoError(t, ts.ctrl.Set(ctx, "t2", subscriber.Data{"y": 2}, subscriber.Options{}))

	sub1Before, _ := ts.ctrl.Store().Get("t1")

	ts.lb.Disconnect()
	require.Equal(t, 0, ts.lb.SubscriptionCount())

	// Connect fires the replay synchronously: when it returns, exactly
	// the two cached topics are resubscribed.
	ts.lb.Connect()

	require.Equal(t, 2, ts.lb.SubscriptionCount())
	require.True(t, ts.lb.IsSubscribed("t1"))
	require.True(t, ts.lb.IsSubscribed("t2"))
	require.Equal(t, 2, ts.ctrl.Store().Len())

	// The pre-disconnect id is invalid on the new connection; the record
	// carries a fresh one.
	sub1After, ok := ts.ctrl.Store().Get("t1")
	require.True(t, ok)
	require.NotEqual(t, sub1Before.ID, sub1After.ID)

	// Data survives the replay untouched.
	data, err := ts.ctrl.Get(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, subscriber.Data{"x": 1}, data)
}

// Operations issued during the reconnect window suspend until the replay
// has resubscribed every cached topic.
func TestOperationsSuspendDuringReplay(t *testing.T) {
	ts := newTestStack(t)
	ctx := context.Background()
	require.NoError(t, ts.ctrl.Start(ctx))

	require.NoError(t, ts.ctrl.Set(ctx, "t1", nil, subscriber.Options{}))
	require.NoError(t, ts.ctrl.Set(ctx, "t2", nil, subscriber.Options{}))

	ts.lb.Disconnect()

	setDone := make(chan error, 1)
	go func() {
		setDone <- ts.ctrl.Set(ctx, "t3", subscriber.Data{"z": 3}, subscriber.Options{})
	}()

	select {
	case err := <-setDone:
		t.Fatalf("Set resolved during the disabled window: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	ts.lb.Connect()

	select {
	case err := <-setDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("queued Set never released after replay")
	}

	require.Equal(t, 3, ts.ctrl.Store().Len())
	require.True(t, ts.lb.IsSubscribed("t3"))
}

// Expiry is not reset by a reconnect: the replay re-arms timers against
// each record's original expiry.
func TestReplayKeepsOriginalExpiry(t *testing.T) {
	ts := newTestStack(t)
	ctx := context.Background()
	require.NoError(t, ts.ctrl.Start(ctx))

	expiry := ts.clock.Now().Add(10 * time.Minute)
	require.NoError(t, ts.ctrl.Set(ctx, "t1", nil, subscriber.Options{Expiry: expiry}))

	ts.clock.Add(5 * time.Minute)
	ts.lb.Disconnect()
	ts.lb.Connect()

	sub, ok := ts.ctrl.Store().Get("t1")
	require.True(t, ok)
	require.Equal(t, expiry, sub.Opts.Expiry)

	// The remaining lifetime is 5 minutes, not a fresh 10.
	rec := recordEvents(ts.ctrl.Events(), events.KindDeleted)
	ts.clock.Add(6 * time.Minute)

	ev := rec.wait(t, events.KindDeleted)
	require.Equal(t, "t1", ev.Topic)
	require.Equal(t, subscriber.ReasonExpired, ev.Reason)
}

// A record that expired while disconnected lapses during the replay.
func TestReplayExpiresOverdueRecords(t *testing.T) {
	ts := newTestStack(t)
	ctx := context.Background()
	require.NoError(t, ts.ctrl.Start(ctx))

	require.NoError(t, ts.ctrl.Set(ctx, "short", nil, subscriber.Options{
		Expiry: ts.clock.Now().Add(time.Minute),
	}))
	require.NoError(t, ts.ctrl.Set(ctx, "long", nil, subscriber.Options{
		Expiry: ts.clock.Now().Add(time.Hour),
	}))

	ts.lb.Disconnect()
	ts.clock.Add(10 * time.Minute)
	ts.lb.Connect()

	require.False(t, ts.ctrl.Store().Has("short"))
	require.True(t, ts.ctrl.Store().Has("long"))
}

// Inbound payloads are routed by topic, so delivery keeps working after
// the relay id changed across a reconnect.
func TestPayloadRoutingSurvivesReconnect(t *testing.T) {
	ts := newTestStack(t)
	ctx := context.Background()
	require.NoError(t, ts.ctrl.Start(ctx))
	rec := recordEvents(ts.ctrl.Events(), events.KindPayload)

	require.NoError(t, ts.ctrl.Set(ctx, "t1", nil, subscriber.Options{}))

	ts.lb.Disconnect()
	ts.lb.Connect()

	require.NoError(t, ts.lb.Publish("t1", []byte("after")))

	ev := rec.wait(t, events.KindPayload)
	require.Equal(t, "t1", ev.Topic)
	require.Equal(t, []byte("after"), ev.Payload)
}

// Close releases operations stranded in a disabled window.
func TestCloseReleasesQueuedOperations(t *testing.T) {
	ts := newTestStack(t)
	ctx := context.Background()
	require.NoError(t, ts.ctrl.Start(ctx))

	ts.lb.Disconnect()

	setDone := make(chan error, 1)
	go func() {
		setDone <- ts.ctrl.Set(ctx, "t1", nil, subscriber.Options{})
	}()

	// Give the goroutine time to park on the gate.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, ts.ctrl.Close())

	select {
	case err := <-setDone:
		require.ErrorIs(t, err, subscriber.ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("queued Set never released by Close")
	}
}

// Mutations made after a reconnect persist the replayed state, so a
// later restart sees the post-reconnect subscription set.
func TestReconnectThenRestartRoundTrip(t *testing.T) {
	ts := newTestStack(t)
	ctx := context.Background()
	require.NoError(t, ts.ctrl.Start(ctx))

	require.NoError(t, ts.ctrl.Set(ctx, "t1", subscriber.Data{"x": 1}, subscriber.Options{}))
	ts.lb.Disconnect()
	ts.lb.Connect()
	require.NoError(t, ts.ctrl.Set(ctx, "t2", subscriber.Data{"y": 2}, subscriber.Options{}))
	require.NoError(t, ts.ctrl.Close())

	lb2 := relay.NewLoopback()
	defer lb2.Close()
	second := newRestoreController(t, ts.kv, lb2, ts.clock)
	require.NoError(t, second.Start(ctx))
	require.Equal(t, 2, second.Store().Len())
	require.True(t, lb2.IsSubscribed("t1"))
	require.True(t, lb2.IsSubscribed("t2"))
}

// scriptedRelay is a transport double whose Subscribe calls can be held
// open, so tests can pin operations mid-flight against connection
// signals.
type scriptedRelay struct {
	mu         sync.Mutex
	subscribes map[string]int
	nextID     int
	hold       chan struct{} // when non-nil, Subscribe blocks until closed
	entered    chan string   // when non-nil, receives the topic on entry

	onConnect    []func()
	onDisconnect []func()
}

func newScriptedRelay() *scriptedRelay {
	return &scriptedRelay{subscribes: make(map[string]int)}
}

func (r *scriptedRelay) Subscribe(_ context.Context, topic string, _ relay.MessageHandler, _ relay.ProtocolOptions) (string, error) {
	r.mu.Lock()
	hold := r.hold
	entered := r.entered
	r.mu.Unlock()

	if entered != nil {
		select {
		case entered <- topic:
		default:
		}
	}
	if hold != nil {
		<-hold
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribes[topic]++
	r.nextID++
	return fmt.Sprintf("sub-%d", r.nextID), nil
}

func (r *scriptedRelay) Unsubscribe(context.Context, string, relay.ProtocolOptions) error {
	return nil
}

func (r *scriptedRelay) OnConnect(fn func()) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onConnect = append(r.onConnect, fn)
	return func() {}
}

func (r *scriptedRelay) OnDisconnect(fn func()) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onDisconnect = append(r.onDisconnect, fn)
	return func() {}
}

// holdSubscribes makes every later Subscribe block until the returned
// channel is closed.
func (r *scriptedRelay) holdSubscribes() chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hold = make(chan struct{})
	return r.hold
}

// watchSubscribes announces each later Subscribe's topic on entry.
func (r *scriptedRelay) watchSubscribes() chan string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entered = make(chan string, 8)
	return r.entered
}

func (r *scriptedRelay) fireConnect() {
	r.mu.Lock()
	fns := append([]func(){}, r.onConnect...)
	r.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (r *scriptedRelay) fireDisconnect() {
	r.mu.Lock()
	fns := append([]func(){}, r.onDisconnect...)
	r.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (r *scriptedRelay) count(topic string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subscribes[topic]
}

func newScriptedController(t *testing.T, rt *scriptedRelay) *subscriber.Controller {
	t.Helper()

	ctrl, err := subscriber.NewController(subscriber.Config{
		Relay:   rt,
		Storage: storage.NewMemoryStore(),
		Logger:  zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, ctrl.Close()) })

	return ctrl
}

// Two connect signals racing each other must both finish with the gate
// enabled, and the later one must run its own replay: everything the
// earlier replay established belongs to a connection that is dead again.
func TestOverlappingConnectSignalsBothReplay(t *testing.T) {
	rt := newScriptedRelay()
	ctrl := newScriptedController(t, rt)
	ctx := context.Background()
	require.NoError(t, ctrl.Start(ctx))

	require.NoError(t, ctrl.Set(ctx, "t1", nil, subscriber.Options{}))
	require.NoError(t, ctrl.Set(ctx, "t2", nil, subscriber.Options{}))

	rt.fireDisconnect()
	release := rt.holdSubscribes()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rt.fireConnect()
		}()
	}

	// Let one connect block inside its replay and the other queue
	// behind it, then release the held subscribes.
	time.Sleep(100 * time.Millisecond)
	close(release)

	handlersDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(handlersDone)
	}()
	select {
	case <-handlersDone:
	case <-time.After(2 * time.Second):
		t.Fatal("connect handlers never returned")
	}

	// The gate must end enabled: a fresh operation proceeds immediately.
	setDone := make(chan error, 1)
	go func() {
		setDone <- ctrl.Set(ctx, "t3", nil, subscriber.Options{})
	}()
	select {
	case err := <-setDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("operations still gated after overlapping connects")
	}

	// One initial subscribe plus one per replay, for each topic.
	require.Equal(t, 3, rt.count("t1"))
	require.Equal(t, 3, rt.count("t2"))
	require.Equal(t, 3, ctrl.Store().Len())
}

// A record whose Set was mid-flight at disconnect time must still make
// the replay cache: the snapshot waits for the mutation to finish.
func TestDisconnectDuringSetCachesNewRecord(t *testing.T) {
	rt := newScriptedRelay()
	ctrl := newScriptedController(t, rt)
	ctx := context.Background()
	require.NoError(t, ctrl.Start(ctx))

	require.NoError(t, ctrl.Set(ctx, "t1", nil, subscriber.Options{}))

	entered := rt.watchSubscribes()
	release := rt.holdSubscribes()

	setDone := make(chan error, 1)
	go func() {
		setDone <- ctrl.Set(ctx, "t2", nil, subscriber.Options{})
	}()

	// Wait for the Set to reach the relay, then signal connection loss
	// while it is still in flight.
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("Set never reached the relay")
	}

	discDone := make(chan struct{})
	go func() {
		rt.fireDisconnect()
		close(discDone)
	}()

	time.Sleep(50 * time.Millisecond)
	close(release)

	select {
	case err := <-setDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("held Set never completed")
	}
	select {
	case <-discDone:
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect handler never returned")
	}

	rt.fireConnect()

	// The in-flight record was cached and replayed onto the new
	// connection.
	require.Equal(t, 2, rt.count("t2"))
	require.True(t, ctrl.Store().Has("t2"))
}
