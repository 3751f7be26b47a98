package nats

import (
	"context"
	"errors"
	"fmt"

	berr "github.com/next-trace/scg-event-hub/contract/errors"
	chub "github.com/next-trace/scg-event-hub/contract/hub"
)

const (
	// DefaultPrefix is the subject prefix used when none is configured.
	DefaultPrefix = "eventhub"
	// EventHeader carries the event name of a delivery.
	EventHeader = "Eventhub-Event"

	connectToken = "connect"
	sessionToken = "session"
	deliverToken = "deliver"
)

// Client is a minimal NATS-like publisher interface decoupled from any concrete library.
// Users can provide a wrapper around their NATS connection to satisfy this.
type Client interface {
	// Publish publishes a message to a subject with optional headers.
	Publish(subject string, data []byte, headers map[string]string) error
}

// Adapter implements chub.Sender using an injected NATS-like Client.
type Adapter struct {
	Client     Client
	Prefix     string
	Propagator chub.HeaderPropagator // optional, injected into delivery headers
}

// Ensure Adapter implements the sender contract.
var _ chub.Sender = (*Adapter)(nil)

// New creates a new NATS adapter instance with the provided client.
func New(c Client, prefix string) *Adapter { return &Adapter{Client: c, Prefix: prefix} }

// Send publishes payload on the delivery subject of conn.
func (a *Adapter) Send(ctx context.Context, conn chub.ConnID, event string, payload []byte) error {
	args := &publishArgs{
		subject: DeliverSubject(a.prefix(), conn),
		body:    payload,
		headers: map[string]string{EventHeader: event},
		wrap:    berr.ErrSendFailed,
		label:   "send",
	}

	return a.buildAndSend(ctx, args)
}

// Reply publishes a response frame on a request's reply subject.
func (a *Adapter) Reply(ctx context.Context, subject string, body []byte) error {
	args := &publishArgs{
		subject: subject,
		body:    body,
		wrap:    berr.ErrSendFailed,
		label:   "reply",
	}

	return a.buildAndSend(ctx, args)
}

func (a *Adapter) buildAndSend(ctx context.Context, args *publishArgs) error {
	if err := a.ready(ctx, args.wrap, args.label); err != nil {
		return err
	}

	return a.publish(ctx, args)
}

type publishArgs struct {
	subject string
	body    []byte
	headers map[string]string
	wrap    error
	label   string
}

func (a *Adapter) publish(ctx context.Context, args *publishArgs) error {
	if args.headers != nil && a.Propagator != nil {
		a.Propagator.Inject(ctx, args.headers)
	}

	if err := a.Client.Publish(args.subject, args.body, args.headers); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("nats %s publish: %w", args.label, errors.Join(args.wrap, err))
	}

	return nil
}

func (a *Adapter) ready(ctx context.Context, base error, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Client == nil {
		return fmt.Errorf("nats %s: %w", label, errors.Join(base, berr.ErrTransportNotConfigured))
	}

	return nil
}

func (a *Adapter) prefix() string {
	if a.Prefix == "" {
		return DefaultPrefix
	}

	return a.Prefix
}

// subjects

// ConnectSubject is where clients request a new session.
func ConnectSubject(prefix string) string { return prefix + "." + connectToken }

// SessionSubject is where a session's client sends its frames.
func SessionSubject(prefix string, conn chub.ConnID) string {
	return prefix + "." + sessionToken + "." + conn.String()
}

// DeliverSubject is where a session's client receives published messages.
func DeliverSubject(prefix string, conn chub.ConnID) string {
	return prefix + "." + deliverToken + "." + conn.String()
}
