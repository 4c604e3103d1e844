package relay

import (
	"context"
	"errors"
	"time"
)

// Transport errors.
var (
	ErrNotConnected        = errors.New("relay not connected")
	ErrClosed              = errors.New("relay closed")
	ErrUnknownSubscription = errors.New("unknown subscription id")
)

// DefaultProtocol is the relay protocol negotiated when the caller does
// not specify one.
const DefaultProtocol = "irn"

// Message is an inbound payload delivered for a subscribed topic.
type Message struct {
	// Topic is the topic the message was published to.
	Topic string

	// Payload is the raw message body. Decryption, if any, happens
	// outside this package.
	Payload []byte

	// PublishedAt is when the relay accepted the message.
	PublishedAt time.Time
}

// MessageHandler receives inbound messages for one subscription.
// Handlers are supplied at subscribe time and must be fast; slow work
// should be moved to a goroutine by the handler itself.
type MessageHandler func(Message)

// ProtocolOptions carries relay-specific subscription parameters.
type ProtocolOptions struct {
	// Protocol names the relay protocol to use. Empty means DefaultProtocol.
	Protocol string
}

// Transport is the relay contract consumed by the subscription engine.
// Implementations must be safe for concurrent use.
type Transport interface {
	// Subscribe registers interest in a topic and returns the relay-assigned
	// subscription id. The handler is invoked for every inbound message on
	// the topic for the lifetime of the subscription.
	Subscribe(ctx context.Context, topic string, handler MessageHandler, opts ProtocolOptions) (string, error)

	// Unsubscribe removes a subscription by its relay-assigned id.
	Unsubscribe(ctx context.Context, id string, opts ProtocolOptions) error

	// OnConnect registers a callback fired once per successful
	// (re)connection. The returned function removes the registration.
	OnConnect(fn func()) func()

	// OnDisconnect registers a callback fired when the connection is lost.
	// The returned function removes the registration.
	OnDisconnect(fn func()) func()
}
