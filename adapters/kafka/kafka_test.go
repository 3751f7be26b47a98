package kafka_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/next-trace/scg-event-hub/adapters/kafka"
	berr "github.com/next-trace/scg-event-hub/contract/errors"
)

type fakeWriter struct {
	calls []struct {
		topic   string
		key     []byte
		value   []byte
		headers map[string]string
	}
	err error
}

func (f *fakeWriter) Write(_ context.Context, topic string, key, value []byte, headers map[string]string) error {
	f.calls = append(f.calls, struct {
		topic   string
		key     []byte
		value   []byte
		headers map[string]string
	}{topic, key, value, headers})

	return f.err
}

func TestKafka_Send(t *testing.T) {
	fw := &fakeWriter{}
	ad := kafka.New(fw, "hub.out")

	if err := ad.Send(t.Context(), "c1", "orders.created", []byte(`{"id":7}`)); err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(fw.calls) != 1 {
		t.Fatalf("want 1, got %d", len(fw.calls))
	}

	c := fw.calls[0]

	if c.topic != "hub.out" {
		t.Fatalf("topic: %s", c.topic)
	}

	if string(c.key) != "c1" {
		t.Fatalf("key: %s", c.key)
	}

	if string(c.value) != `{"id":7}` {
		t.Fatalf("value: %s", c.value)
	}

	if c.headers[kafka.EventHeader] != "orders.created" {
		t.Fatalf("headers: %+v", c.headers)
	}
}

func TestKafka_DefaultTopic(t *testing.T) {
	fw := &fakeWriter{}

	if err := kafka.New(fw, "").Send(t.Context(), "c1", "e", nil); err != nil {
		t.Fatalf("send: %v", err)
	}

	if fw.calls[0].topic != kafka.DefaultTopic {
		t.Fatalf("topic: %s", fw.calls[0].topic)
	}
}

func TestKafka_NilWriterError(t *testing.T) {
	err := kafka.New(nil, "").Send(t.Context(), "c1", "e", nil)
	if !errors.Is(err, berr.ErrTransportNotConfigured) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestKafka_ErrorWrapping_And_ContextCancel(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker down")}

	if err := kafka.New(fw, "").Send(t.Context(), "c1", "e", nil); !errors.Is(err, berr.ErrSendFailed) {
		t.Fatalf("want ErrSendFailed, got %v", err)
	}

	fw2 := &fakeWriter{err: context.DeadlineExceeded}

	err := kafka.New(fw2, "").Send(t.Context(), "c1", "e", nil)
	if !errors.Is(err, context.DeadlineExceeded) || errors.Is(err, berr.ErrSendFailed) {
		t.Fatalf("want bare deadline error, got %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	fw3 := &fakeWriter{}
	if err := kafka.New(fw3, "").Send(ctx, "c1", "e", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}

	if len(fw3.calls) != 0 {
		t.Fatalf("writer called with cancelled ctx")
	}
}

func TestNewWithKgo_NoBrokers(t *testing.T) {
	_, _, err := kafka.NewWithKgo(kafka.Config{})
	if !errors.Is(err, berr.ErrTransportNotConfigured) {
		t.Fatalf("want ErrTransportNotConfigured, got %v", err)
	}
}

// stalledWriter never hears back from the broker.
type stalledWriter struct{}

func (stalledWriter) Write(ctx context.Context, _ string, _, _ []byte, _ map[string]string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestKafka_SendTimeoutBoundsStalledBroker(t *testing.T) {
	ad := kafka.New(stalledWriter{}, "")
	ad.SendTimeout = 20 * time.Millisecond

	start := time.Now()

	err := ad.Send(context.Background(), "c1", "e", nil)
	if !errors.Is(err, berr.ErrSendFailed) {
		t.Fatalf("want ErrSendFailed, got %v", err)
	}

	if took := time.Since(start); took > time.Second {
		t.Fatalf("send blocked for %v", took)
	}
}

func TestNewWithKgo_UnreachableBrokerFailsSend(t *testing.T) {
	ad, cleanup, err := kafka.NewWithKgo(kafka.Config{
		Brokers:     []string{"127.0.0.1:1"},
		SendTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer cleanup()

	if ad.SendTimeout != 100*time.Millisecond {
		t.Fatalf("send timeout: %v", ad.SendTimeout)
	}

	done := make(chan error, 1)

	go func() { done <- ad.Send(context.Background(), "c1", "e", []byte(`1`)) }()

	select {
	case err := <-done:
		if !errors.Is(err, berr.ErrSendFailed) {
			t.Fatalf("want ErrSendFailed, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("send still blocked while the broker is unreachable")
	}
}
