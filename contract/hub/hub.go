package hub

import "context"

// Outcome is the settled state of one remote call.
// Exactly one of Result and Err is meaningful: Err non-nil means the call was rejected.
type Outcome struct {
	Result any
	Err    error
}

// Pending is the caller's view of an in-flight call.
type Pending interface {
	// Done is closed once the call has settled.
	Done() <-chan struct{}
	// Wait blocks until the call settles or ctx ends. Giving up leaves the call untouched.
	Wait(ctx context.Context) (any, error)
}

// Hub is a minimal, transport-agnostic view of the concrete event hub.
// It is intended for consumers that want to depend only on contracts.
type Hub interface {
	// Routines
	Register(name string, handler RoutineHandler)
	Unregister(name string)

	// Events
	Publish(ctx context.Context, event string, message any) error

	// Calls
	Call(ctx context.Context, routine string, args Args) Pending

	// Lifecycle
	Close() error
}
