// Package storage provides the persistence adapter used to keep client
// state durable across process restarts.
//
// The Store interface is a minimal byte-oriented key/value contract:
// Get returns nil for absent keys, Set overwrites with last-write-wins
// semantics, Delete is idempotent. Values are opaque to the store; callers
// encode them with the CBOR codec in this package.
//
// Two implementations are provided:
//   - MemoryStore: map-backed, for tests and ephemeral clients
//   - FileStore: one file per key under a directory, for durable clients
//
// Neither implementation offers transactions; concurrent writers to the
// same key race and the last write wins.
package storage
