package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	berr "github.com/next-trace/scg-event-hub/contract/errors"
	chub "github.com/next-trace/scg-event-hub/contract/hub"
)

const (
	// DefaultTopic receives deliveries when no topic is configured.
	DefaultTopic = "eventhub.deliver"
	// EventHeader carries the event name of a delivery.
	EventHeader = "event"
	// DefaultSendTimeout bounds a Send made through NewWithKgo when Config leaves it unset.
	DefaultSendTimeout = 5 * time.Second
)

// Writer is a minimal Kafka-like writer interface.
// Users can adapt segmentio/kafka-go or any other client to this.
type Writer interface {
	Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Adapter implements chub.Sender using an injected Writer.
// Every delivery goes to one topic keyed by connection id, so one client's messages share a partition
// and keep their order; clients consume the topic and keep the records carrying their key.
type Adapter struct {
	Writer Writer
	Topic  string
	// SendTimeout bounds each Send. Zero leaves the caller's context as the only bound.
	SendTimeout time.Duration
}

var _ chub.Sender = (*Adapter)(nil)

// New creates a new Kafka adapter instance with the provided writer.
func New(w Writer, topic string) *Adapter { return &Adapter{Writer: w, Topic: topic} }

func (a *Adapter) Send(ctx context.Context, conn chub.ConnID, event string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Writer == nil {
		return fmt.Errorf("kafka send: %w", errors.Join(berr.ErrSendFailed, berr.ErrTransportNotConfigured))
	}

	headers := map[string]string{EventHeader: event}

	writeCtx := ctx

	if a.SendTimeout > 0 {
		var cancel context.CancelFunc

		writeCtx, cancel = context.WithTimeout(ctx, a.SendTimeout)
		defer cancel()
	}

	if err := a.Writer.Write(writeCtx, a.topic(), []byte(conn), payload, headers); err != nil {
		// an expired SendTimeout is a failed send; the caller's own cancellation passes through
		timedOut := writeCtx.Err() != nil && ctx.Err() == nil
		if !timedOut && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return err
		}

		return fmt.Errorf("kafka send write: %w", errors.Join(berr.ErrSendFailed, err))
	}

	return nil
}

func (a *Adapter) topic() string {
	if a.Topic == "" {
		return DefaultTopic
	}

	return a.Topic
}
