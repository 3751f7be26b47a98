package memory

import (
	"log/slog"

	"github.com/next-trace/scg-event-hub/adapters/inmemory"
	"github.com/next-trace/scg-event-hub/hub"
)

// New constructs a hub backed by the in-memory transport and returns both,
// along with a cleanup function that closes the hub.
func New(logger *slog.Logger, opts ...hub.Option) (*hub.Hub, *inmemory.Transport, func()) {
	tr := inmemory.New()
	h := hub.New(tr, logger, opts...)
	cleanup := func() { _ = h.Close() }

	return h, tr, cleanup
}
