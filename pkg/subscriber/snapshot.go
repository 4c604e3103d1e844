package subscriber

import (
	"fmt"
	"time"
)

// snapshotVersion is the persisted snapshot format version. Snapshots
// written by a different version are discarded on restore.
const snapshotVersion = 1

// Protocol identity baked into storage keys.
const (
	protocolName    = "relaymesh"
	protocolVersion = 1
)

// snapshot is the persisted form of the full subscription set. Record
// order is store iteration order and carries no meaning.
type snapshot struct {
	// Version is the snapshot format version.
	Version int `cbor:"version"`

	// SavedAt is when the snapshot was written.
	SavedAt time.Time `cbor:"saved_at"`

	// Subscriptions is the full record set.
	Subscriptions []Subscription `cbor:"subscriptions,omitempty"`
}

// StorageKey derives the deterministic persistence key for one client's
// subscription context.
func StorageKey(clientID, namespace string) string {
	return fmt.Sprintf("%s@%d:%s//%s//subscriptions", protocolName, protocolVersion, clientID, namespace)
}
