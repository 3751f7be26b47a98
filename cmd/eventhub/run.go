package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/next-trace/scg-event-hub/adapters/kafka"
	natsadapter "github.com/next-trace/scg-event-hub/adapters/nats"
	"github.com/next-trace/scg-event-hub/adapters/rabbitmq"
	chub "github.com/next-trace/scg-event-hub/contract/hub"
	"github.com/next-trace/scg-event-hub/hub"
)

// run serves the hub until the process is interrupted.
func run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", slog.String("app", appName), slog.String("version", appVersion),
		slog.String("delivery", cfg.Delivery), slog.String("prefix", cfg.SubjectPrefix))

	nc, closeNATS, err := natsadapter.Dial(natsadapter.Config{
		URL:           cfg.NATSURL,
		Name:          appName,
		Prefix:        cfg.SubjectPrefix,
		MaxReconnects: -1,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	defer closeNATS()

	replies := natsadapter.NewFromConn(nc, cfg.SubjectPrefix)

	sender, closeSender, err := newSender(cfg, replies, logger)
	if err != nil {
		return err
	}
	defer closeSender()

	h := hub.New(sender, logger, hub.WithRoutineMiddleware(hub.LogCalls(logger)))
	registerBuiltins(h)

	srv := natsadapter.NewServer(h, nc, replies, natsadapter.ServerConfig{
		Prefix:      cfg.SubjectPrefix,
		IdleTimeout: cfg.IdleTimeout,
	}, logger)

	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down", slog.Int("sessions", srv.Sessions()))

	_ = srv.Close()

	return h.Close()
}

// newSender picks the delivery transport. NATS delivery reuses the server connection.
func newSender(cfg Config, natsSender *natsadapter.Adapter, logger *slog.Logger) (chub.Sender, func(), error) {
	switch cfg.Delivery {
	case DeliveryNATS:
		return natsSender, func() {}, nil
	case DeliveryKafka:
		return kafka.NewWithKgo(kafka.Config{
			Brokers:     cfg.KafkaBrokers,
			Topic:       cfg.KafkaTopic,
			ClientID:    appName,
			PingTimeout: 10 * time.Second,
		})
	case DeliveryRabbitMQ:
		return rabbitmq.NewWithAMQPConn(rabbitmq.Config{URL: cfg.AMQPURL, Exchange: cfg.AMQPExchange, Logger: logger})
	default:
		return nil, nil, fmt.Errorf("unknown delivery %q", cfg.Delivery)
	}
}
