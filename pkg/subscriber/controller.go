package subscriber

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/relaymesh/relaymesh-go/pkg/events"
	"github.com/relaymesh/relaymesh-go/pkg/relay"
	"github.com/relaymesh/relaymesh-go/pkg/storage"
)

// Config holds controller configuration. Relay and Storage are required;
// everything else has a working default.
type Config struct {
	// Relay is the transport subscriptions are established on.
	Relay relay.Transport

	// Storage is the persistence adapter for the subscription snapshot.
	Storage storage.Store

	// ClientID identifies this client in the storage key.
	ClientID string

	// Namespace names the subscription context (e.g. an encrypted vs.
	// plaintext namespace). Part of the storage key.
	Namespace string

	// Encrypted marks the context as encrypted: subscriptions created
	// without decryption key material are rejected.
	Encrypted bool

	// DefaultTTL is the expiry applied when a caller supplies none.
	DefaultTTL time.Duration

	// Logger receives background failure reports. Defaults to a no-op.
	Logger *zap.Logger

	// Clock drives expiry timers. Defaults to the wall clock.
	Clock clock.Clock

	// Bus is the lifecycle event bus. A private bus is created when nil.
	Bus *events.Bus
}

// busHook records one event bus registration owned by the controller.
type busHook struct {
	kind events.Kind
	id   uint64
}

// Controller orchestrates the subscription lifecycle: it validates
// inputs, drives subscribe/unsubscribe against the relay, maintains the
// store and expiry timers, emits lifecycle events, and persists the full
// snapshot after every mutation.
//
// All public operations wait for the gating state to be enabled before
// touching any state, so callers never observe a half-replayed store
// during a reconnect window.
type Controller struct {
	mu sync.Mutex

	store  *Store
	relay  relay.Transport
	kv     storage.Store
	bus    *events.Bus
	clock  clock.Clock
	timers *expiryTimers
	gate   *gate
	log    *zap.Logger

	storageKey string
	encrypted  bool
	defaultTTL time.Duration

	hooks            []busHook
	removeConnect    func()
	removeDisconnect func()

	started atomic.Bool
	closed  atomic.Bool

	// replayMu serializes reconnect replays: a connect signal arriving
	// while a replay is in flight runs its own replay after the first
	// completes instead of being dropped.
	replayMu sync.Mutex

	// wg tracks background persistence writes for clean shutdown.
	wg sync.WaitGroup
}

// NewController creates a controller. Call Start to restore persisted
// state and begin tracking relay connectivity.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Relay == nil {
		return nil, errors.New("subscriber: relay transport is required")
	}
	if cfg.Storage == nil {
		return nil, errors.New("subscriber: storage is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "default"
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "default"
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Bus == nil {
		cfg.Bus = events.NewBus()
	}

	c := &Controller{
		store:      NewStore(),
		relay:      cfg.Relay,
		kv:         cfg.Storage,
		bus:        cfg.Bus,
		clock:      cfg.Clock,
		gate:       newGate(),
		log:        cfg.Logger,
		storageKey: StorageKey(cfg.ClientID, cfg.Namespace),
		encrypted:  cfg.Encrypted,
		defaultTTL: cfg.DefaultTTL,
	}
	c.timers = newExpiryTimers(cfg.Clock, c.expire)

	// The persistence hook is an ordinary listener: every mutation is
	// followed by an attempt to write the full snapshot.
	persist := func(events.Event) { c.persistAsync() }
	for _, kind := range []events.Kind{events.KindCreated, events.KindUpdated, events.KindDeleted} {
		c.hooks = append(c.hooks, busHook{kind: kind, id: c.bus.Subscribe(kind, persist)})
	}

	return c, nil
}

// Store returns the read view of the subscription set.
func (c *Controller) Store() *Store {
	return c.store
}

// Events returns the lifecycle event bus.
func (c *Controller) Events() *events.Bus {
	return c.bus
}

// Start restores the persisted snapshot and registers for relay
// connectivity signals. Operations issued before Start completes queue
// on the gating state rather than racing the restore.
//
// Restore I/O failures are absorbed: the controller continues with an
// empty store. Restoring into a non-empty store fails with
// ErrRestoreConflict and leaves the store untouched.
func (c *Controller) Start(ctx context.Context) error {
	if c.started.Swap(true) {
		return nil
	}

	c.removeConnect = c.relay.OnConnect(c.handleConnect)
	c.removeDisconnect = c.relay.OnDisconnect(c.handleDisconnect)

	return c.restore(ctx)
}

// Close detaches from the relay and the event bus, cancels all timers,
// and releases queued operations with ErrClosed. It waits for in-flight
// persistence writes to finish.
func (c *Controller) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	if c.removeConnect != nil {
		c.removeConnect()
	}
	if c.removeDisconnect != nil {
		c.removeDisconnect()
	}
	for _, h := range c.hooks {
		c.bus.Unsubscribe(h.kind, h.id)
	}

	c.timers.clear()
	c.gate.close()
	c.wg.Wait()

	return nil
}

// Set establishes a subscription for topic. If topic already has a
// record the call behaves exactly like Update and the relay is not
// subscribed again. A zero Opts.Expiry defaults to now + DefaultTTL.
func (c *Controller) Set(ctx context.Context, topic string, data Data, opts Options) error {
	if err := c.gate.await(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.Has(topic) {
		return c.updateLocked(topic, data)
	}

	if c.encrypted && len(opts.DecryptKeys) == 0 {
		return ErrMissingDecryptParams
	}
	if opts.Expiry.IsZero() {
		opts.Expiry = c.clock.Now().Add(c.defaultTTL)
	}

	id, err := c.relay.Subscribe(ctx, topic, c.payloadHandler(topic), opts.Relay)
	if err != nil {
		return fmt.Errorf("relay subscribe: %w", err)
	}

	sub := &Subscription{ID: id, Topic: topic, Data: cloneData(data), Opts: opts}
	c.store.put(sub)
	c.bus.Publish(events.Event{Kind: events.KindCreated, Topic: topic, Data: cloneData(sub.Data)})

	if fired := c.timers.arm(topic, opts.Expiry); fired {
		// Expiry already due: the subscription lapses before Set returns.
		return c.removeLocked(ctx, topic, ReasonExpired)
	}
	return nil
}

// Get returns the data for an existing subscription.
func (c *Controller) Get(ctx context.Context, topic string) (Data, error) {
	if err := c.gate.await(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sub, ok := c.store.Get(topic)
	if !ok {
		return nil, ErrNotFound
	}
	return sub.Data, nil
}

// Update merges partial into the existing data for topic. Keys in
// partial overwrite same-named keys; all other keys are retained.
func (c *Controller) Update(ctx context.Context, topic string, partial Data) error {
	if err := c.gate.await(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.updateLocked(topic, partial)
}

// Delete removes the subscription for topic, unsubscribes from the
// relay, and emits a DELETED event carrying the prior data and reason.
//
// Delete does not cancel the topic's expiry timer; a later firing for a
// removed topic is a no-op.
func (c *Controller) Delete(ctx context.Context, topic, reason string) error {
	if err := c.gate.await(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.removeLocked(ctx, topic, reason)
}

// updateLocked merges partial into topic's data and emits UPDATED.
// Caller holds c.mu.
func (c *Controller) updateLocked(topic string, partial Data) error {
	sub, ok := c.store.get(topic)
	if !ok {
		return ErrNotFound
	}

	if sub.Data == nil {
		sub.Data = make(Data, len(partial))
	}
	for k, v := range partial {
		sub.Data[k] = v
	}

	c.bus.Publish(events.Event{Kind: events.KindUpdated, Topic: topic, Data: cloneData(sub.Data)})
	return nil
}

// removeLocked removes topic's record, unsubscribes from the relay, and
// emits DELETED. Caller holds c.mu.
func (c *Controller) removeLocked(ctx context.Context, topic, reason string) error {
	sub, ok := c.store.get(topic)
	if !ok {
		return ErrNotFound
	}
	c.store.remove(topic)

	// A relay-side failure does not resurrect the local record; the
	// in-memory removal already happened and is authoritative.
	if err := c.relay.Unsubscribe(ctx, sub.ID, sub.Opts.Relay); err != nil {
		c.log.Warn("relay unsubscribe failed",
			zap.String("topic", topic),
			zap.Error(err))
	}

	c.bus.Publish(events.Event{
		Kind:   events.KindDeleted,
		Topic:  topic,
		Data:   cloneData(sub.Data),
		Reason: reason,
	})
	return nil
}

// expire is the timer-firing path: delete with reason "Expired". The
// record may already be gone if the caller deleted it after the timer
// was scheduled.
func (c *Controller) expire(topic string) {
	err := c.Delete(context.Background(), topic, ReasonExpired)
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrClosed) {
		c.log.Warn("expire subscription failed",
			zap.String("topic", topic),
			zap.Error(err))
	}
}

// payloadHandler routes inbound messages for topic to the event bus.
// Routing keys on the topic captured here: relay ids are not stable
// across reconnects.
func (c *Controller) payloadHandler(topic string) relay.MessageHandler {
	return func(msg relay.Message) {
		if !c.store.Has(topic) {
			return
		}
		c.bus.Publish(events.Event{
			Kind:    events.KindPayload,
			Topic:   topic,
			Payload: msg.Payload,
		})
	}
}

// restore loads the persisted snapshot and resubscribes every record
// through the relay, re-arming timers. CREATED events are not emitted:
// this is a resume, not new subscriptions.
func (c *Controller) restore(ctx context.Context) error {
	c.gate.disable(nil)
	defer c.gate.enable()

	data, err := c.kv.Get(ctx, c.storageKey)
	if err != nil {
		c.log.Warn("load subscription snapshot failed", zap.Error(err))
		return nil
	}
	if data == nil {
		return nil
	}

	var snap snapshot
	if err := storage.Unmarshal(data, &snap); err != nil {
		c.log.Warn("decode subscription snapshot failed", zap.Error(err))
		return nil
	}
	if snap.Version != snapshotVersion {
		c.log.Warn("subscription snapshot version mismatch",
			zap.Int("version", snap.Version),
			zap.Int("want", snapshotVersion))
		return nil
	}
	if len(snap.Subscriptions) == 0 {
		return nil
	}

	if c.store.Len() > 0 {
		c.log.Error("restore attempted into a non-empty store",
			zap.Int("records", c.store.Len()))
		return ErrRestoreConflict
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var errs error
	for i := range snap.Subscriptions {
		rec := snap.Subscriptions[i]

		// The stored id belongs to a previous connection; resubscribe
		// for a fresh one.
		id, err := c.relay.Subscribe(ctx, rec.Topic, c.payloadHandler(rec.Topic), rec.Opts.Relay)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("resubscribe %s: %w", rec.Topic, err))
			continue
		}
		rec.ID = id
		c.store.put(&rec)

		if fired := c.timers.arm(rec.Topic, rec.Opts.Expiry); fired {
			if err := c.removeLocked(ctx, rec.Topic, ReasonExpired); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
	}
	if errs != nil {
		c.log.Warn("restore resubscribe failed", zap.Error(errs))
	}
	return nil
}

// handleDisconnect enters the disabled gating state: the current record
// set is cached for the coming replay and all timers are cancelled,
// since relay-side state is unknown until after the resubscribe.
//
// The snapshot is taken under c.mu so a mutation in flight at disconnect
// time either fully precedes it (and is cached) or fully follows it (and
// queues on the gate).
func (c *Controller) handleDisconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gate.disable(c.store.All())
	c.timers.clear()
}

// handleConnect replays the cached record set against the fresh
// connection, then re-enables operations. A connect without a preceding
// disconnect still invalidates relay-side state, so the current set is
// snapshotted unless a cache is already pending.
//
// Connects are serialized on replayMu: a signal arriving mid-replay
// waits, then re-snapshots and replays the record set onto its own
// connection, since everything the earlier replay established belongs to
// a link that is now dead.
func (c *Controller) handleConnect() {
	c.mu.Lock()
	c.gate.disable(c.store.All())
	c.timers.clear()
	c.mu.Unlock()

	c.replayMu.Lock()
	defer c.replayMu.Unlock()

	// If an earlier replay finished while this connect waited, it
	// re-enabled the gate and cleared the cache; disable again with a
	// fresh snapshot so this connection gets its own replay.
	c.mu.Lock()
	c.gate.disable(c.store.All())
	c.mu.Unlock()

	c.replay(c.gate.pending())
	c.gate.enable()
}

// replay resubscribes every cached record concurrently, re-inserting
// each with the fresh relay id and re-arming its timer against the
// original expiry. Failures are aggregated and logged; the replay as a
// whole still completes so queued operations are never stranded.
func (c *Controller) replay(cached []Subscription) {
	if len(cached) == 0 {
		return
	}

	ctx := context.Background()
	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		errs  error
	)

	for i := range cached {
		rec := cached[i]
		wg.Add(1)
		go func() {
			defer wg.Done()

			id, err := c.relay.Subscribe(ctx, rec.Topic, c.payloadHandler(rec.Topic), rec.Opts.Relay)
			if err != nil {
				errMu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("resubscribe %s: %w", rec.Topic, err))
				errMu.Unlock()
				return
			}

			c.mu.Lock()
			defer c.mu.Unlock()

			// The pre-disconnect id is invalid on the new connection.
			rec.ID = id
			c.store.put(&rec)

			if fired := c.timers.arm(rec.Topic, rec.Opts.Expiry); fired {
				if err := c.removeLocked(ctx, rec.Topic, ReasonExpired); err != nil && !errors.Is(err, ErrNotFound) {
					errMu.Lock()
					errs = multierr.Append(errs, err)
					errMu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if errs != nil {
		c.log.Warn("reconnect replay failed", zap.Error(errs))
	}
}

// persistAsync schedules a full-snapshot write. Writes are not
// serialized against each other; last write wins on the storage key.
func (c *Controller) persistAsync() {
	if c.closed.Load() {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.persist(context.Background())
	}()
}

// persist writes the full subscription set. Failures are logged and
// swallowed: a failed persist never rolls back an in-memory mutation.
func (c *Controller) persist(ctx context.Context) {
	snap := snapshot{
		Version:       snapshotVersion,
		SavedAt:       c.clock.Now(),
		Subscriptions: c.store.All(),
	}

	data, err := storage.Marshal(snap)
	if err != nil {
		c.log.Error("encode subscription snapshot failed", zap.Error(err))
		return
	}
	if err := c.kv.Set(ctx, c.storageKey, data); err != nil {
		c.log.Warn("persist subscription snapshot failed", zap.Error(err))
	}
}
