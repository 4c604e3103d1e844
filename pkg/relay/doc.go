// Package relay defines the transport contract between the subscription
// engine and the intermediary relay that carries topic messages.
//
// The engine consumes the Transport interface only: subscribe to a topic
// with a payload handler, unsubscribe by the id the relay assigned, and
// register for connect/disconnect notifications. Connection establishment,
// wire protocol, and link-level retry all live behind the interface.
//
// # Subscription ids
//
// The id returned by Subscribe is owned by the relay connection that
// produced it. It is not stable across reconnects: after a connection is
// re-established, previously returned ids are invalid and topics must be
// subscribed again. Payload routing therefore keys on the topic captured
// at subscribe time, never on the id.
//
// # Loopback
//
// Loopback is a complete in-process implementation used by tests and
// examples. It routes published messages to topic handlers synchronously
// and can simulate connection loss and recovery.
package relay
