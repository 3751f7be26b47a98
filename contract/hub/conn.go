package hub

import "context"

// Wildcard is the reserved event name meaning "every event known right now".
// It is expanded at (un)subscribe time and never stored as a key.
const Wildcard = "*"

// ConnID is the opaque identity of one live connection.
// It is issued by the hub and compared by equality only; the core never inspects it.
type ConnID string

// String returns the identity as issued.
func (c ConnID) String() string { return string(c) }

// Sender abstracts the per-connection send primitive of a transport.
// Library users provide an implementation backed by their connection layer (NATS, Kafka, RabbitMQ, in-memory).
// Send is best-effort and must not block indefinitely; implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, conn ConnID, event string, payload []byte) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, conn ConnID, event string, payload []byte) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, conn ConnID, event string, payload []byte) error {
	return f(ctx, conn, event, payload)
}
