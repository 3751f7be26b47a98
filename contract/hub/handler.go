package hub

import "context"

// Args is the opaque structured argument object passed to a routine.
type Args map[string]any

// RoutineHandler handles remote calls of one named routine.
// Implementations must be safe for concurrent use by multiple goroutines.
// Handle may block for as long as it needs; it never runs under a hub lock.
type RoutineHandler interface {
	Handle(ctx context.Context, args Args) (any, error)
}

// RoutineFunc adapts a plain function to RoutineHandler.
type RoutineFunc func(ctx context.Context, args Args) (any, error)

// Handle calls f.
func (f RoutineFunc) Handle(ctx context.Context, args Args) (any, error) { return f(ctx, args) }
