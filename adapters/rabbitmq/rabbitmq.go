package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	berr "github.com/next-trace/scg-event-hub/contract/errors"
	chub "github.com/next-trace/scg-event-hub/contract/hub"
)

const (
	// DefaultExchange receives deliveries when no exchange is configured.
	DefaultExchange = "eventhub.deliver"
	// EventHeader carries the event name of a delivery.
	EventHeader = "event"
	// DefaultSendTimeout bounds a Send made through NewWithAMQPConn when Config leaves it unset.
	DefaultSendTimeout = 5 * time.Second
)

// PubMsg is one outbound AMQP publishing.
type PubMsg struct {
	Exchange   string
	RoutingKey string
	Body       []byte
	Headers    map[string]string
}

// Publisher is the AMQP publishing primitive the Adapter needs.
type Publisher interface {
	Publish(ctx context.Context, m PubMsg) error
}

// Adapter implements chub.Sender on a topic exchange.
type Adapter struct {
	Publisher  Publisher
	Exchange   string
	Propagator chub.HeaderPropagator // optional
	// SendTimeout bounds each Send. Zero leaves the caller's context as the only bound.
	SendTimeout time.Duration
}

var _ chub.Sender = (*Adapter)(nil)

// New creates an Adapter publishing through p to DefaultExchange.
func New(p Publisher) *Adapter { return &Adapter{Publisher: p} }

// NewWithPropagator is New with a HeaderPropagator copying request context into delivery headers.
func NewWithPropagator(p Publisher, hp chub.HeaderPropagator) *Adapter {
	return &Adapter{Publisher: p, Propagator: hp}
}

// Send publishes payload with routing key RoutingKey(conn, event).
func (a *Adapter) Send(ctx context.Context, conn chub.ConnID, event string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Publisher == nil {
		return fmt.Errorf("rabbitmq send: %w", errors.Join(berr.ErrSendFailed, berr.ErrTransportNotConfigured))
	}

	headers := map[string]string{EventHeader: event}
	if a.Propagator != nil {
		a.Propagator.Inject(ctx, headers)
	}

	msg := PubMsg{
		Exchange:   a.exchange(),
		RoutingKey: RoutingKey(conn, event),
		Body:       payload,
		Headers:    headers,
	}

	sendCtx := ctx

	if a.SendTimeout > 0 {
		var cancel context.CancelFunc

		sendCtx, cancel = context.WithTimeout(ctx, a.SendTimeout)
		defer cancel()
	}

	if err := a.Publisher.Publish(sendCtx, msg); err != nil {
		// an expired SendTimeout is a failed send; the caller's own cancellation passes through
		timedOut := sendCtx.Err() != nil && ctx.Err() == nil
		if !timedOut && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return err
		}

		return fmt.Errorf("rabbitmq send to %s: %w", conn, errors.Join(berr.ErrSendFailed, err))
	}

	return nil
}

// RoutingKey is the routing key of a delivery of event to conn. Clients bind "<conn>.#".
func RoutingKey(conn chub.ConnID, event string) string { return conn.String() + "." + event }

func (a *Adapter) exchange() string {
	if a.Exchange == "" {
		return DefaultExchange
	}

	return a.Exchange
}

// publishing maps m onto a transient JSON publishing.
func publishing(m PubMsg) amqp.Publishing {
	var headers amqp.Table

	if len(m.Headers) > 0 {
		headers = make(amqp.Table, len(m.Headers))
		for k, v := range m.Headers {
			headers[k] = v
		}
	}

	return amqp.Publishing{
		DeliveryMode: amqp.Transient,
		ContentType:  "application/json",
		Type:         m.Headers[EventHeader],
		Timestamp:    time.Now(),
		Headers:      headers,
		Body:         m.Body,
	}
}
