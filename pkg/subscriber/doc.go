// Package subscriber implements the topic subscription lifecycle engine
// for a relay-connected client.
//
// The Controller owns the topic→subscription mapping, mediates all
// subscribe/unsubscribe calls to the relay transport, enforces per-topic
// expiry, and keeps the subscription set durable across process restarts
// and transport reconnects.
//
// # Operations
//
// Set establishes a subscription for a topic; calling Set on a topic that
// already has a record behaves exactly like Update and never subscribes
// twice. Get returns the caller data for a topic, Update merges a partial
// data map into it, Delete removes the record and unsubscribes from the
// relay. Every mutation publishes a lifecycle event and triggers an
// asynchronous write of the full subscription snapshot.
//
// # Expiry
//
// Each subscription carries an absolute expiry, defaulting to now plus
// DefaultTTL. At most one timer is live per topic; when it fires the
// subscription is deleted with reason "Expired". An expiry already in the
// past fires synchronously.
//
// # Reconnects
//
// Relay-assigned subscription ids do not survive a reconnect. When the
// transport signals connection loss, the Controller snapshots the active
// topic set, cancels all timers, and suspends public operations. On the
// connect signal every cached topic is resubscribed with a fresh id and
// its timer re-armed against the original expiry; only then are suspended
// operations released. A second disconnect during an in-flight replay
// does not widen the cached snapshot.
//
// # Persistence
//
// The full subscription set is written to the persistence adapter after
// every mutation, keyed by client identity, protocol version, and
// namespace. On Start the snapshot is restored and each record is
// resubscribed without re-emitting CREATED events. Restore and persist
// failures are logged and absorbed; they never fail a caller operation.
package subscriber
