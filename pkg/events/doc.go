// Package events implements the in-process lifecycle event bus for
// subscription state changes and inbound relay payloads.
//
// The bus carries four event kinds:
//   - CREATED: a new subscription was established
//   - UPDATED: a subscription's data was partially updated
//   - DELETED: a subscription was removed (carries the prior data and a reason)
//   - PAYLOAD: an inbound relay message arrived for a known topic
//
// Listeners are plain registrations identified by an id returned from
// Subscribe. They are not durable: registrations are lost across restarts
// and must be re-established by the embedding client.
//
// # Delivery
//
// Publish fans out synchronously to every listener registered for the
// event's kind, in unspecified order. Listeners must be fast; long-running
// work should be moved to a goroutine by the listener itself.
//
// The bus is an owned component passed by reference to its consumers,
// not a process-global emitter.
package events
