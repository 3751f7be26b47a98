package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	berr "github.com/next-trace/scg-event-hub/contract/errors"
)

// Concrete AMQP connection-backed constructor and a publisher that redials after the broker drops it.

const (
	deliverExchangeType = "topic"
	minBackoff          = time.Second
	maxBackoff          = 30 * time.Second
)

// Config describes the broker connection behind NewWithAMQPConn.
type Config struct {
	URL         string
	Exchange    string
	ConnTimeout time.Duration
	// SendTimeout bounds every Send; zero means DefaultSendTimeout.
	SendTimeout time.Duration
	Logger      *slog.Logger
}

// redialPublisher holds at most one live channel. Publish fails with ErrSendFailed while the connection is down.
type redialPublisher struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.RWMutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	done     chan struct{}
	stopOnce sync.Once
}

func newRedialPublisher(cfg Config) *redialPublisher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	rp := &redialPublisher{
		cfg:    cfg,
		logger: logger,
		done:   make(chan struct{}),
	}

	go rp.loop()

	return rp
}

func (rp *redialPublisher) Publish(ctx context.Context, m PubMsg) error {
	ch, err := rp.channel()
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, m.Exchange, m.RoutingKey, false, false, publishing(m))
}

// channel returns the live channel; it never waits for a redial.
func (rp *redialPublisher) channel() (*amqp.Channel, error) {
	select {
	case <-rp.done:
		return nil, fmt.Errorf("rabbitmq publisher closed: %w", berr.ErrSendFailed)
	default:
	}

	rp.mu.RLock()
	ch := rp.ch
	rp.mu.RUnlock()

	if ch == nil {
		return nil, fmt.Errorf("rabbitmq not connected: %w", berr.ErrSendFailed)
	}

	return ch, nil
}

func (rp *redialPublisher) dial() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(rp.cfg.URL, amqp.Config{
		Locale:     "en_US",
		Properties: amqp.Table{"product": "scg-event-hub"},
		Dial:       amqp.DefaultDial(rp.cfg.ConnTimeout),
	})
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	// Deliveries are transient, so the exchange is not durable either.
	if err := ch.ExchangeDeclare(rp.cfg.Exchange, deliverExchangeType, false, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return nil, nil, err
	}

	return conn, ch, nil
}

func (rp *redialPublisher) loop() {
	backoff := minBackoff

	for {
		conn, ch, err := rp.dial()
		if err != nil {
			wait := jitter(backoff)
			rp.logger.Warn("rabbitmq dial failed", slog.String("error", err.Error()), slog.Duration("retry_in", wait))

			if !rp.sleep(wait) {
				return
			}

			backoff = min(backoff*2, maxBackoff)

			continue
		}

		backoff = minBackoff

		rp.mu.Lock()
		rp.conn, rp.ch = conn, ch
		rp.mu.Unlock()

		rp.logger.Info("rabbitmq connected", slog.String("exchange", rp.cfg.Exchange))

		lost := conn.NotifyClose(make(chan *amqp.Error, 1))

		select {
		case <-rp.done:
			rp.teardown()
			return
		case amqpErr := <-lost:
			if amqpErr != nil {
				rp.logger.Warn("rabbitmq connection lost", slog.String("error", amqpErr.Error()))
			}

			rp.teardown()
		}
	}
}

// teardown releases the current connection; publishes fail until the next dial succeeds.
func (rp *redialPublisher) teardown() {
	rp.mu.Lock()
	conn, ch := rp.conn, rp.ch
	rp.conn, rp.ch = nil, nil
	rp.mu.Unlock()

	if ch != nil {
		_ = ch.Close()
	}

	if conn != nil {
		_ = conn.Close()
	}
}

// sleep waits d and reports false when the publisher was closed meanwhile.
func (rp *redialPublisher) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-rp.done:
		return false
	case <-t.C:
		return true
	}
}

func (rp *redialPublisher) shutdown() {
	rp.stopOnce.Do(func() { close(rp.done) })
}

// jitter spreads redials of many hubs against one broker; the result never exceeds maxBackoff.
func jitter(d time.Duration) time.Duration {
	//nolint:gosec // backoff jitter needs no crypto RNG
	return min(d+rand.N(d/2+1), maxBackoff)
}

// NewWithAMQPConn dials RabbitMQ in the background, declares the delivery exchange, and returns Adapter and cleanup.
func NewWithAMQPConn(cfg Config) (*Adapter, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("%w: rabbitmq url required", berr.ErrTransportNotConfigured)
	}

	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}

	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}

	pub := newRedialPublisher(cfg)
	ad := New(pub)
	ad.Exchange = cfg.Exchange
	ad.SendTimeout = cfg.SendTimeout

	return ad, pub.shutdown, nil
}
