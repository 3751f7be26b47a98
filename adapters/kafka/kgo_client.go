package kafka

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	berr "github.com/next-trace/scg-event-hub/contract/errors"
)

// Config configures the franz-go backed Writer.
type Config struct {
	Brokers  []string
	Topic    string
	ClientID string
	TLS      *tls.Config
	// Acks defaults to leader-only.
	Acks        *kgo.Acks
	Compression []kgo.CompressionCodec
	// PingTimeout bounds the startup broker check. Zero skips the check.
	PingTimeout time.Duration
	// SendTimeout bounds every Send and the broker-side delivery of its record; zero means DefaultSendTimeout.
	SendTimeout time.Duration
}

func (cfg Config) options() []kgo.Opt {
	acks := kgo.LeaderAck()
	if cfg.Acks != nil {
		acks = *cfg.Acks
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.RequiredAcks(acks),
		kgo.DefaultProduceTopic(cfg.Topic),
	}

	if cfg.SendTimeout > 0 {
		opts = append(opts, kgo.RecordDeliveryTimeout(cfg.SendTimeout))
	}

	// Idempotent writes require acks from all replicas.
	if acks != kgo.AllISRAcks() {
		opts = append(opts, kgo.DisableIdempotentWrite())
	}

	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}

	if cfg.TLS != nil {
		opts = append(opts, kgo.DialTLSConfig(cfg.TLS))
	}

	if len(cfg.Compression) > 0 {
		opts = append(opts, kgo.ProducerBatchCompression(cfg.Compression...))
	}

	return opts
}

// kgoWriter produces one record per delivery and waits for the broker's ack.
type kgoWriter struct{ cl *kgo.Client }

func (w kgoWriter) Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) error {
	rec := kgo.KeySliceRecord(key, value)
	rec.Topic = topic

	for k, v := range headers {
		rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}

	return w.cl.ProduceSync(ctx, rec).FirstErr()
}

// NewWithKgo builds a franz-go client based Adapter. The returned cleanup closes the client.
func NewWithKgo(cfg Config) (*Adapter, func(), error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil, fmt.Errorf("%w: kafka brokers required", berr.ErrTransportNotConfigured)
	}

	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}

	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}

	cl, err := kgo.NewClient(cfg.options()...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: kafka client init: %w", berr.ErrTransportNotConfigured, err)
	}

	if cfg.PingTimeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
		defer cancel()

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return nil, nil, fmt.Errorf("%w: kafka ping: %w", berr.ErrTransportNotConfigured, err)
		}
	}

	ad := New(kgoWriter{cl: cl}, cfg.Topic)
	ad.SendTimeout = cfg.SendTimeout

	return ad, cl.Close, nil
}
