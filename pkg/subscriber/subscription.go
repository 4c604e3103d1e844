package subscriber

import (
	"errors"
	"time"

	"github.com/relaymesh/relaymesh-go/pkg/relay"
)

// Subscription errors.
var (
	ErrNotFound             = errors.New("subscription not found")
	ErrMissingDecryptParams = errors.New("decryption parameters required for encrypted topic")
	ErrRestoreConflict      = errors.New("cannot restore subscriptions into a non-empty store")
	ErrClosed               = errors.New("subscriber closed")
)

// DefaultTTL is the subscription lifetime applied when the caller does
// not supply an expiry.
const DefaultTTL = 30 * 24 * time.Hour

// ReasonExpired is the delete reason used when a subscription's expiry
// timer fires.
const ReasonExpired = "Expired"

// Data is the caller-supplied subscription payload. Updates merge
// shallowly: keys present in the partial overwrite same-named keys,
// all other keys are retained.
type Data = map[string]any

// Options carries the parameters of one subscription.
type Options struct {
	// Relay holds relay-specific subscription parameters, passed through
	// to the transport on every subscribe and unsubscribe.
	Relay relay.ProtocolOptions `cbor:"relay"`

	// DecryptKeys is opaque key material for decrypting inbound payloads.
	// The engine never examines its content, only its presence: encrypted
	// contexts reject subscriptions created without it.
	DecryptKeys []byte `cbor:"decrypt_keys,omitempty"`

	// Expiry is the absolute time the subscription lapses. Zero means
	// now + DefaultTTL, resolved at creation.
	Expiry time.Time `cbor:"expiry"`
}

// Subscription is one active relay subscription.
type Subscription struct {
	// ID is the handle the relay assigned at subscribe time. It is owned
	// exclusively by this record and is required to unsubscribe. Not
	// stable across reconnects.
	ID string `cbor:"id"`

	// Topic is the subscription key, unique within a store and immutable
	// for the life of the record.
	Topic string `cbor:"topic"`

	// Data is the caller payload, mutable via partial update.
	Data Data `cbor:"data,omitempty"`

	// Opts are the subscription options the record was created with.
	Opts Options `cbor:"opts"`
}

// cloneData returns a shallow copy of d. Values are shared; the map
// itself is not.
func cloneData(d Data) Data {
	if d == nil {
		return nil
	}
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// copyRecord returns a value copy of sub safe to hand to callers.
func copyRecord(sub *Subscription) Subscription {
	out := *sub
	out.Data = cloneData(sub.Data)
	if sub.Opts.DecryptKeys != nil {
		out.Opts.DecryptKeys = make([]byte, len(sub.Opts.DecryptKeys))
		copy(out.Opts.DecryptKeys, sub.Opts.DecryptKeys)
	}
	return out
}
