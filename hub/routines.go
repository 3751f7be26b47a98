package hub

import (
	"maps"
	"slices"
	"sync"

	chub "github.com/next-trace/scg-event-hub/contract/hub"
)

// Routines maps routine names to their handlers. Registering an existing name replaces it.
type Routines struct {
	mu       sync.RWMutex
	handlers map[string]chub.RoutineHandler
}

// NewRoutines returns an empty registry.
func NewRoutines() *Routines {
	return &Routines{handlers: make(map[string]chub.RoutineHandler)}
}

// Register stores handler under name, replacing any previous handler.
// A nil handler unregisters name.
func (r *Routines) Register(name string, handler chub.RoutineHandler) {
	if handler == nil {
		r.Unregister(name)
		return
	}

	r.mu.Lock()
	r.handlers[name] = handler
	r.mu.Unlock()
}

// Unregister removes name. Unknown names are ignored.
func (r *Routines) Unregister(name string) {
	r.mu.Lock()
	delete(r.handlers, name)
	r.mu.Unlock()
}

// Lookup returns the handler registered under name.
func (r *Routines) Lookup(name string) (chub.RoutineHandler, bool) {
	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()

	return h, ok
}

// Names returns the registered routine names, sorted.
func (r *Routines) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.handlers))
}
