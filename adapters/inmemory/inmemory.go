package inmemory

import (
	"context"
	"slices"
	"sync"

	chub "github.com/next-trace/scg-event-hub/contract/hub"
)

// Delivery is one recorded send.
type Delivery struct {
	Conn    chub.ConnID
	Event   string
	Payload []byte
}

// Transport is a thread-safe in-memory implementation of chub.Sender.
// It records deliveries for testing and examples. Sends to a connection listed in Fail return that error.
type Transport struct {
	mu         sync.Mutex
	deliveries []Delivery
	fail       map[chub.ConnID]error
}

var _ chub.Sender = (*Transport)(nil)

// New creates a new in-memory transport.
func New() *Transport { return &Transport{fail: make(map[chub.ConnID]error)} }

func (t *Transport) Send(ctx context.Context, conn chub.ConnID, event string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err, ok := t.fail[conn]; ok {
		return err
	}

	t.deliveries = append(t.deliveries, Delivery{Conn: conn, Event: event, Payload: slices.Clone(payload)})

	return nil
}

// Fail makes every later send to conn return err. A nil err clears it.
func (t *Transport) Fail(conn chub.ConnID, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err == nil {
		delete(t.fail, conn)
		return
	}

	t.fail[conn] = err
}

// Deliveries returns a copy of everything sent so far, in send order.
func (t *Transport) Deliveries() []Delivery {
	t.mu.Lock()
	defer t.mu.Unlock()

	return slices.Clone(t.deliveries)
}

// For returns the deliveries addressed to conn.
func (t *Transport) For(conn chub.ConnID) []Delivery {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Delivery

	for _, d := range t.deliveries {
		if d.Conn == conn {
			out = append(out, d)
		}
	}

	return out
}

// Reset forgets recorded deliveries.
func (t *Transport) Reset() {
	t.mu.Lock()
	t.deliveries = nil
	t.mu.Unlock()
}
