package hub

import "context"

// HeaderPropagator copies request-scoped context (trace ids, baggage) into delivery headers.
// Implementations mutate the provided map and must be safe for concurrent use.
type HeaderPropagator interface {
	Inject(ctx context.Context, headers map[string]string)
}

// NopHeaderPropagator leaves headers untouched.
type NopHeaderPropagator struct{}

func (NopHeaderPropagator) Inject(context.Context, map[string]string) {}
