package nats

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	berr "github.com/next-trace/scg-event-hub/contract/errors"
)

// Config describes the NATS connection shared by the Server and the Adapter.
type Config struct {
	URL           string
	Name          string
	Prefix        string
	ConnTimeout   time.Duration
	MaxReconnects int
	ReconnectWait time.Duration
	Logger        *slog.Logger
}

// options translates cfg into nats.go options; connection state changes are logged.
func (cfg Config) options() []nats.Option {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := []nats.Option{
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrlRedacted()))
		}),
	}

	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}

	if cfg.ConnTimeout > 0 {
		opts = append(opts, nats.Timeout(cfg.ConnTimeout))
	}

	if cfg.MaxReconnects != 0 {
		opts = append(opts, nats.MaxReconnects(cfg.MaxReconnects))
	}

	if cfg.ReconnectWait > 0 {
		opts = append(opts, nats.ReconnectWait(cfg.ReconnectWait))
	}

	return opts
}

// connClient publishes through a live *nats.Conn. Publishing is buffered by nats.go; nothing flushes per message.
type connClient struct{ nc *nats.Conn }

func (c connClient) Publish(subject string, data []byte, headers map[string]string) error {
	msg := nats.NewMsg(subject)
	msg.Data = data

	for k, v := range headers {
		msg.Header.Set(k, v)
	}

	return c.nc.PublishMsg(msg)
}

// Dial connects to NATS and returns the connection with a cleanup that drains it.
func Dial(cfg Config) (*nats.Conn, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("%w: nats url required", berr.ErrTransportNotConfigured)
	}

	nc, err := nats.Connect(cfg.URL, cfg.options()...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: nats connect %s: %w", berr.ErrTransportNotConfigured, cfg.URL, err)
	}

	cleanup := func() {
		if nc.IsClosed() {
			return
		}

		//nolint:errcheck // shutdown path, nothing to report to
		_ = nc.Drain()
	}

	return nc, cleanup, nil
}

// NewFromConn wraps an existing NATS connection in an Adapter.
func NewFromConn(nc *nats.Conn, prefix string) *Adapter {
	return New(connClient{nc: nc}, prefix)
}

// NewWithNATS dials NATS and returns an Adapter and a cleanup.
func NewWithNATS(cfg Config) (*Adapter, func(), error) {
	nc, cleanup, err := Dial(cfg)
	if err != nil {
		return nil, nil, err
	}

	return NewFromConn(nc, cfg.Prefix), cleanup, nil
}
