package hub

import (
	"context"
	"sync"

	chub "github.com/next-trace/scg-event-hub/contract/hub"
)

// Future is the pending outcome of one call. It settles exactly once.
// Settling never blocks: a future nobody waits on is simply dropped.
type Future struct {
	done    chan struct{}
	once    sync.Once
	outcome chub.Outcome
}

var _ chub.Pending = (*Future)(nil)

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// settle records the outcome; later attempts are ignored and report false.
func (f *Future) settle(result any, err error) bool {
	settled := false

	f.once.Do(func() {
		if err != nil {
			result = nil
		}

		f.outcome = chub.Outcome{Result: result, Err: err}
		close(f.done)
		settled = true
	})

	return settled
}

// Done is closed once the call has settled.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the call settles or ctx ends.
// Returning on ctx leaves the future pending; a late outcome is then discarded unseen.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.outcome.Result, f.outcome.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Outcome returns the settled outcome, and false while the call is still running.
func (f *Future) Outcome() (chub.Outcome, bool) {
	select {
	case <-f.done:
		return f.outcome, true
	default:
		return chub.Outcome{}, false
	}
}
