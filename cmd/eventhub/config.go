package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Delivery modes select the transport that carries published messages to clients.
const (
	DeliveryNATS     = "nats"
	DeliveryKafka    = "kafka"
	DeliveryRabbitMQ = "rabbitmq"
)

// Config holds the hub server configuration.
type Config struct {
	NATSURL       string
	SubjectPrefix string
	Delivery      string
	KafkaBrokers  []string
	KafkaTopic    string
	AMQPURL       string
	AMQPExchange  string
	IdleTimeout   time.Duration
	LogLevel      string
	LogFormat     string
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		NATSURL:       "nats://127.0.0.1:4222",
		SubjectPrefix: "eventhub",
		Delivery:      DeliveryNATS,
		KafkaTopic:    "eventhub.deliver",
		AMQPExchange:  "eventhub.deliver",
		IdleTimeout:   0,
		LogLevel:      "info",
		LogFormat:     "json",
	}
}

// LoadConfig reads an optional .env file and then EVENTHUB_* variables over the defaults.
// Variables already present in the environment win over the .env file.
func LoadConfig(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	cfg := DefaultConfig()

	setString(&cfg.NATSURL, "EVENTHUB_NATS_URL")
	setString(&cfg.SubjectPrefix, "EVENTHUB_SUBJECT_PREFIX")
	setString(&cfg.Delivery, "EVENTHUB_DELIVERY")
	setString(&cfg.KafkaTopic, "EVENTHUB_KAFKA_TOPIC")
	setString(&cfg.AMQPURL, "EVENTHUB_AMQP_URL")
	setString(&cfg.AMQPExchange, "EVENTHUB_AMQP_EXCHANGE")
	setString(&cfg.LogLevel, "EVENTHUB_LOG_LEVEL")
	setString(&cfg.LogFormat, "EVENTHUB_LOG_FORMAT")

	if v := os.Getenv("EVENTHUB_KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = splitList(v)
	}

	if v := os.Getenv("EVENTHUB_IDLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("EVENTHUB_IDLE_TIMEOUT: %w", err)
		}

		cfg.IdleTimeout = d
	}

	return cfg, nil
}

// Validate checks that the selected delivery mode has what it needs.
func (c Config) Validate() error {
	if c.NATSURL == "" {
		return fmt.Errorf("nats url is required")
	}

	if c.SubjectPrefix == "" {
		return fmt.Errorf("subject prefix is required")
	}

	if c.IdleTimeout < 0 {
		return fmt.Errorf("idle timeout must not be negative")
	}

	switch c.Delivery {
	case DeliveryNATS:
	case DeliveryKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("kafka delivery requires at least one broker")
		}
	case DeliveryRabbitMQ:
		if c.AMQPURL == "" {
			return fmt.Errorf("rabbitmq delivery requires an amqp url")
		}
	default:
		return fmt.Errorf("unknown delivery %q (want %s, %s or %s)", c.Delivery, DeliveryNATS, DeliveryKafka, DeliveryRabbitMQ)
	}

	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string

	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	return out
}
