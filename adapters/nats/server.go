package nats

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alphadose/haxmap"
	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	chub "github.com/next-trace/scg-event-hub/contract/hub"
	"github.com/next-trace/scg-event-hub/hub"
	"github.com/next-trace/scg-event-hub/wire"
)

// Conn is the subscribing half of a NATS connection; *nats.Conn satisfies it.
type Conn interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// ServerConfig tunes a Server.
type ServerConfig struct {
	Prefix string
	// IdleTimeout disconnects sessions that sent no frame for this long. Zero disables it.
	IdleTimeout time.Duration
}

// Connected answers a connect request.
type Connected struct {
	Conn    chub.ConnID `json:"conn"`
	Frames  string      `json:"frames"`
	Deliver string      `json:"deliver"`
}

// Server accepts sessions over NATS and feeds their frames into a hub.
// NATS hands one subscription's messages to its callback in order, so each session's
// frames are applied in the order the client sent them.
type Server struct {
	hub    *hub.Hub
	conn   Conn
	out    *Adapter
	cfg    ServerConfig
	logger *slog.Logger

	ctx        context.Context
	peers      *haxmap.Map[chub.ConnID, *peer]
	connectSub *nats.Subscription
	stop       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

type peer struct {
	sess *hub.Session
	sub  *nats.Subscription
	seen atomic.Int64
}

func (p *peer) touch() { p.seen.Store(time.Now().UnixNano()) }

// NewServer builds a Server; out carries replies and must publish on the same NATS cluster as conn.
func NewServer(h *hub.Hub, conn Conn, out *Adapter, cfg ServerConfig, logger *slog.Logger) *Server {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		hub:    h,
		conn:   conn,
		out:    out,
		cfg:    cfg,
		logger: logger,
		ctx:    context.Background(),
		peers:  haxmap.New[chub.ConnID, *peer](),
		stop:   make(chan struct{}),
	}
}

// Start subscribes to the connect subject. ctx is handed to every routine call made through the server.
func (s *Server) Start(ctx context.Context) error {
	s.ctx = ctx

	sub, err := s.conn.Subscribe(ConnectSubject(s.cfg.Prefix), s.onConnect)
	if err != nil {
		return fmt.Errorf("nats server subscribe %s: %w", ConnectSubject(s.cfg.Prefix), err)
	}

	s.connectSub = sub

	if s.cfg.IdleTimeout > 0 {
		s.wg.Add(1)

		go s.reap()
	}

	s.logger.Info("nats server started", slog.String("prefix", s.cfg.Prefix), slog.Duration("idle_timeout", s.cfg.IdleTimeout))

	return nil
}

// Sessions returns the number of sessions the server is carrying.
func (s *Server) Sessions() int { return int(s.peers.Len()) }

// Close stops accepting sessions and disconnects the ones it carries.
func (s *Server) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()

	if s.connectSub != nil {
		_ = s.connectSub.Unsubscribe()
	}

	for _, id := range s.ids() {
		s.drop(id)
	}

	return nil
}

func (s *Server) onConnect(m *nats.Msg) {
	reply := s.replyTo(m.Reply)

	sess, err := s.hub.Connect()
	if err != nil {
		s.respond(reply, wire.EncodeError("", err))
		return
	}

	p := &peer{sess: sess}
	p.touch()

	frames := SessionSubject(s.cfg.Prefix, sess.ID())

	sub, err := s.conn.Subscribe(frames, func(msg *nats.Msg) { s.onFrame(p, msg) })
	if err != nil {
		sess.Disconnect()
		s.respond(reply, wire.EncodeError("", fmt.Errorf("nats subscribe %s: %w", frames, err)))

		return
	}

	p.sub = sub
	s.peers.Set(sess.ID(), p)

	body, err := json.Marshal(Connected{Conn: sess.ID(), Frames: frames, Deliver: DeliverSubject(s.cfg.Prefix, sess.ID())})
	if err != nil {
		s.drop(sess.ID())
		return
	}

	s.respond(reply, body)
	s.logger.Info("session opened", slog.String("conn", sess.ID().String()))
}

func (s *Server) onFrame(p *peer, msg *nats.Msg) {
	p.touch()

	if err := p.sess.HandleFrame(s.ctx, msg.Data, s.replyTo(msg.Reply)); err != nil {
		s.logger.Debug("frame rejected", slog.String("conn", p.sess.ID().String()), slog.String("error", err.Error()))
	}

	if p.sess.Closed() {
		s.drop(p.sess.ID())
	}
}

func (s *Server) replyTo(subject string) hub.ReplyFunc {
	if subject == "" || s.out == nil {
		return nil
	}

	return func(ctx context.Context, body []byte) error { return s.out.Reply(ctx, subject, body) }
}

func (s *Server) respond(reply hub.ReplyFunc, body []byte) {
	if reply == nil {
		return
	}

	if err := reply(s.ctx, body); err != nil {
		s.logger.Debug("reply dropped", slog.String("error", err.Error()))
	}
}

// drop forgets a session, stops its frame subscription and purges its subscriptions.
func (s *Server) drop(id chub.ConnID) {
	p, ok := s.peers.Get(id)
	if !ok {
		return
	}

	s.peers.Del(id)

	if p.sub != nil {
		_ = p.sub.Unsubscribe()
	}

	p.sess.Disconnect()
	s.logger.Info("session closed", slog.String("conn", id.String()))
}

func (s *Server) ids() []chub.ConnID {
	var ids []chub.ConnID

	s.peers.ForEach(func(id chub.ConnID, _ *peer) bool {
		ids = append(ids, id)
		return true
	})

	return ids
}

func (s *Server) reap() {
	defer s.wg.Done()

	t := time.NewTicker(max(s.cfg.IdleTimeout/2, time.Millisecond))
	defer t.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-s.ctx.Done():
			return
		case now := <-t.C:
			s.reapIdle(now)
		}
	}
}

func (s *Server) reapIdle(now time.Time) {
	cutoff := now.Add(-s.cfg.IdleTimeout).UnixNano()

	var stale []chub.ConnID

	s.peers.ForEach(func(id chub.ConnID, p *peer) bool {
		if p.seen.Load() < cutoff {
			stale = append(stale, id)
		}

		return true
	})

	for _, id := range stale {
		s.logger.Info("session idle", slog.String("conn", id.String()))
		s.drop(id)
	}
}
