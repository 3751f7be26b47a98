package hub

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/alphadose/haxmap"
	"github.com/google/uuid"

	berr "github.com/next-trace/scg-event-hub/contract/errors"
	chub "github.com/next-trace/scg-event-hub/contract/hub"
)

// Hub composes the subscription and routine registries with the publisher and the call dispatcher.
// Transports open a Session per connection; embedding code registers routines and publishes.
//
// Hub is concurrency-safe and contains no global state.
type Hub struct {
	subs     *Subscriptions
	routines *Routines
	pub      *Publisher
	calls    *Dispatcher

	sessions *haxmap.Map[chub.ConnID, *Session]
	closed   atomic.Bool

	routineMW []RoutineMiddleware
	logger    *slog.Logger
}

var _ chub.Hub = (*Hub)(nil)

// Option configures a Hub instance.
type Option func(*Hub)

// WithRoutineMiddleware registers routine middleware applied to every call.
func WithRoutineMiddleware(mw ...RoutineMiddleware) Option {
	return func(h *Hub) { h.routineMW = append(h.routineMW, mw...) }
}

// Stats is a point-in-time view of the hub's registries.
type Stats struct {
	Events        int `json:"events"`
	Subscriptions int `json:"subscriptions"`
	Routines      int `json:"routines"`
	Sessions      int `json:"sessions"`
}

// New constructs a Hub that delivers published messages through sender.
// A nil logger discards hub logs.
func New(sender chub.Sender, logger *slog.Logger, opts ...Option) *Hub {
	h := &Hub{
		subs:     NewSubscriptions(),
		routines: NewRoutines(),
		sessions: haxmap.New[chub.ConnID, *Session](),
		logger:   orDiscard(logger),
	}

	for _, o := range opts {
		o(h)
	}

	h.pub = NewPublisher(h.subs, sender, h.logger)
	h.calls = NewDispatcher(h.routines, h.logger, h.routineMW...)

	return h
}

// Connect opens a session for a new connection and issues its identity.
func (h *Hub) Connect() (*Session, error) {
	if h.closed.Load() {
		return nil, fmt.Errorf("connect: %w", berr.ErrHubClosed)
	}

	s := &Session{id: chub.ConnID(uuid.Must(uuid.NewV7()).String()), hub: h}
	h.sessions.Set(s.id, s)

	// Close may have taken its snapshot between the check above and Set.
	if h.closed.Load() {
		s.Disconnect()
		return nil, fmt.Errorf("connect: %w", berr.ErrHubClosed)
	}

	h.logger.Debug("connected", slog.String("conn", s.id.String()))

	return s, nil
}

// Session returns the live session for id.
func (h *Hub) Session(id chub.ConnID) (*Session, bool) {
	return h.sessions.Get(id)
}

// Register stores handler under name; an existing routine of that name is replaced.
func (h *Hub) Register(name string, handler chub.RoutineHandler) {
	h.routines.Register(name, handler)
}

// RegisterFunc is Register for plain functions.
func (h *Hub) RegisterFunc(name string, fn func(ctx context.Context, args chub.Args) (any, error)) {
	h.routines.Register(name, chub.RoutineFunc(fn))
}

// Unregister removes the routine registered under name.
func (h *Hub) Unregister(name string) { h.routines.Unregister(name) }

// Publish broadcasts message to the current subscribers of event.
func (h *Hub) Publish(ctx context.Context, event string, message any) error {
	return h.pub.Publish(ctx, event, message)
}

// Call invokes routine with args and returns its pending outcome.
func (h *Hub) Call(ctx context.Context, routine string, args chub.Args) chub.Pending {
	return h.calls.Call(ctx, routine, args)
}

// SubscribersOf returns the connections currently subscribed to event.
func (h *Hub) SubscribersOf(event string) []chub.ConnID { return h.subs.SubscribersOf(event) }

// Events returns the event names that currently have subscribers.
func (h *Hub) Events() []string { return h.subs.Events() }

// Routines returns the registered routine names.
func (h *Hub) Routines() []string { return h.routines.Names() }

// Stats reports registry sizes.
func (h *Hub) Stats() Stats {
	return Stats{
		Events:        h.subs.EventCount(),
		Subscriptions: h.subs.SubscriptionCount(),
		Routines:      len(h.routines.Names()),
		Sessions:      int(h.sessions.Len()),
	}
}

// Close disconnects every live session and refuses new ones. Running calls are left to finish.
func (h *Hub) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}

	var live []*Session

	h.sessions.ForEach(func(_ chub.ConnID, s *Session) bool {
		live = append(live, s)
		return true
	})

	for _, s := range live {
		s.Disconnect()
	}

	h.logger.Info("hub closed", slog.Int("sessions", len(live)))

	return nil
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return logger
}
