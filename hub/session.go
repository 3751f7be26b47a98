package hub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	berr "github.com/next-trace/scg-event-hub/contract/errors"
	chub "github.com/next-trace/scg-event-hub/contract/hub"
	"github.com/next-trace/scg-event-hub/wire"
)

// ReplyFunc sends a response frame back over the connection that issued a request.
type ReplyFunc func(ctx context.Context, response []byte) error

// Session is the hub's side of one external connection.
// It validates requests before they reach the registries and purges the connection on Disconnect.
//
// Subscribe, Unsubscribe and Disconnect are serialized per session, so one connection's
// requests apply in the order they are made.
type Session struct {
	id     chub.ConnID
	hub    *Hub
	mu     sync.Mutex
	closed bool
}

// ID returns the connection identity issued for this session.
func (s *Session) ID() chub.ConnID { return s.id }

// Subscribe subscribes the connection to event, or to every known event for the wildcard.
func (s *Session) Subscribe(event string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check("subscribe", event, berr.ErrMissingEventName); err != nil {
		return err
	}

	s.hub.subs.Subscribe(event, s.id)
	s.hub.logger.Debug("subscribed", slog.String("conn", s.id.String()), slog.String("event", event))

	return nil
}

// Unsubscribe removes the connection from event, or from every known event for the wildcard.
func (s *Session) Unsubscribe(event string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check("unsubscribe", event, berr.ErrMissingEventName); err != nil {
		return err
	}

	s.hub.subs.Unsubscribe(event, s.id)
	s.hub.logger.Debug("unsubscribed", slog.String("conn", s.id.String()), slog.String("event", event))

	return nil
}

// Call starts routine with args on behalf of the connection.
// An empty name fails fast; everything else is reported through the returned Pending.
func (s *Session) Call(ctx context.Context, routine string, args chub.Args) (chub.Pending, error) {
	s.mu.Lock()
	err := s.check("call", routine, berr.ErrMissingRoutineName)
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}

	return s.hub.calls.Call(ctx, routine, args), nil
}

// Disconnect removes the connection from every event it is subscribed to.
// It is idempotent; requests made afterwards fail with ErrSessionClosed.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true
	s.hub.subs.Unsubscribe(chub.Wildcard, s.id)
	s.hub.sessions.Del(s.id)
	s.hub.logger.Debug("disconnected", slog.String("conn", s.id.String()))
}

// Closed reports whether Disconnect has run.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// HandleFrame decodes one inbound frame and applies it.
// Rejected requests are answered through reply with an error response. Call outcomes are relayed
// through reply once they settle; reply may be nil for fire-and-forget transports.
func (s *Session) HandleFrame(ctx context.Context, data []byte, reply ReplyFunc) error {
	f, err := wire.Decode(data)
	if err != nil {
		s.respond(ctx, reply, wire.EncodeError("", err))
		return err
	}

	switch f.Type {
	case wire.FrameSubscribe:
		err = s.Subscribe(f.EventName)
	case wire.FrameUnsubscribe:
		err = s.Unsubscribe(f.EventName)
	case wire.FrameCall:
		var p chub.Pending

		p, err = s.Call(ctx, f.RoutineName, f.Args)
		if err == nil {
			go s.relay(ctx, f.ID, p, reply)
		}
	case wire.FrameDisconnect:
		s.Disconnect()
	case wire.FramePing:
	}

	if err != nil {
		s.respond(ctx, reply, wire.EncodeError(f.ID, err))
	}

	return err
}

func (s *Session) relay(ctx context.Context, id string, p chub.Pending, reply ReplyFunc) {
	<-p.Done()

	res, err := p.Wait(context.WithoutCancel(ctx))
	s.respond(ctx, reply, wire.EncodeOutcome(id, res, err))
}

// respond delivers a response; a client that is gone is not an error.
func (s *Session) respond(ctx context.Context, reply ReplyFunc, body []byte) {
	if reply == nil {
		return
	}

	if err := reply(context.WithoutCancel(ctx), body); err != nil {
		s.hub.logger.Debug("reply dropped", slog.String("conn", s.id.String()), slog.String("error", err.Error()))
	}
}

// check must run with s.mu held.
func (s *Session) check(op, name string, missing error) error {
	if s.closed {
		return fmt.Errorf("%s: %w", op, berr.ErrSessionClosed)
	}

	if name == "" {
		return fmt.Errorf("%s: %w: %w", op, missing, berr.ErrValidation)
	}

	return nil
}
