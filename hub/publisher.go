package hub

import (
	"context"
	"fmt"
	"log/slog"

	berr "github.com/next-trace/scg-event-hub/contract/errors"
	chub "github.com/next-trace/scg-event-hub/contract/hub"
	"github.com/next-trace/scg-event-hub/wire"
)

// Publisher fans a message out to the current subscribers of an event.
type Publisher struct {
	subs   *Subscriptions
	sender chub.Sender
	logger *slog.Logger
}

// NewPublisher constructs a Publisher delivering through sender.
func NewPublisher(subs *Subscriptions, sender chub.Sender, logger *slog.Logger) *Publisher {
	return &Publisher{subs: subs, sender: sender, logger: orDiscard(logger)}
}

// Publish encodes message once and sends it to every subscriber of event.
// With no subscribers it returns immediately without encoding or sending.
// A failed send is logged and skipped; it never reaches the caller nor stops the remaining sends.
// Only an unencodable message (or a missing sender) is reported.
func (p *Publisher) Publish(ctx context.Context, event string, message any) error {
	conns := p.subs.SubscribersOf(event)
	if len(conns) == 0 {
		return nil
	}

	if p.sender == nil {
		return fmt.Errorf("publish %s: %w", event, berr.ErrTransportNotConfigured)
	}

	payload, err := wire.Encode(message)
	if err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}

	failed := 0

	for _, conn := range conns {
		if err := p.send(ctx, conn, event, payload); err != nil {
			failed++

			p.logger.WarnContext(ctx, "delivery failed",
				slog.String("event", event),
				slog.String("conn", conn.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	p.logger.DebugContext(ctx, "published",
		slog.String("event", event),
		slog.Int("subscribers", len(conns)),
		slog.Int("failed", failed),
	)

	return nil
}

func (p *Publisher) send(ctx context.Context, conn chub.ConnID, event string, payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("send to %s: %w: %v", conn, berr.ErrSendFailed, r)
		}
	}()

	return p.sender.Send(ctx, conn, event, payload)
}
