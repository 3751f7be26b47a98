package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const (
	appName    = "eventhub"
	appVersion = "0.1.0"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := DefaultConfig()

	var (
		envFile string
		brokers string
	)

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "In-process event hub served over NATS",
		Long: `eventhub accepts client sessions over NATS, lets them subscribe to named events,
fans published messages out to subscribers, and relays remote routine calls.`,
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var files []string
			if envFile != "" {
				files = append(files, envFile)
			}

			loaded, err := LoadConfig(files...)
			if err != nil {
				return err
			}

			// flags set on the command line override environment values
			merged := mergeFlags(cmd, loaded, cfg, brokers)
			if err := merged.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			return run(cmd.Context(), merged, newLogger(os.Stderr, merged.LogLevel, merged.LogFormat))
		},
	}

	f := rootCmd.Flags()
	f.StringVar(&envFile, "env-file", "", "Optional .env file to load (defaults to ./.env when present)")
	f.StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "NATS server URL")
	f.StringVar(&cfg.SubjectPrefix, "subject-prefix", cfg.SubjectPrefix, "Prefix of every hub subject")
	f.StringVar(&cfg.Delivery, "delivery", cfg.Delivery, "Delivery transport: nats, kafka or rabbitmq")
	f.StringVar(&brokers, "kafka-brokers", "", "Comma separated Kafka seed brokers")
	f.StringVar(&cfg.KafkaTopic, "kafka-topic", cfg.KafkaTopic, "Kafka delivery topic")
	f.StringVar(&cfg.AMQPURL, "amqp-url", cfg.AMQPURL, "RabbitMQ URL")
	f.StringVar(&cfg.AMQPExchange, "amqp-exchange", cfg.AMQPExchange, "RabbitMQ delivery exchange")
	f.DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "Disconnect sessions idle for this long (0 disables)")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	f.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: json or console")

	return rootCmd
}

// mergeFlags copies every explicitly set flag from flagged over loaded.
func mergeFlags(cmd *cobra.Command, loaded, flagged Config, brokers string) Config {
	changed := cmd.Flags().Changed

	if changed("nats-url") {
		loaded.NATSURL = flagged.NATSURL
	}

	if changed("subject-prefix") {
		loaded.SubjectPrefix = flagged.SubjectPrefix
	}

	if changed("delivery") {
		loaded.Delivery = strings.ToLower(flagged.Delivery)
	}

	if changed("kafka-brokers") {
		loaded.KafkaBrokers = splitList(brokers)
	}

	if changed("kafka-topic") {
		loaded.KafkaTopic = flagged.KafkaTopic
	}

	if changed("amqp-url") {
		loaded.AMQPURL = flagged.AMQPURL
	}

	if changed("amqp-exchange") {
		loaded.AMQPExchange = flagged.AMQPExchange
	}

	if changed("idle-timeout") {
		loaded.IdleTimeout = flagged.IdleTimeout
	}

	if changed("log-level") {
		loaded.LogLevel = flagged.LogLevel
	}

	if changed("log-format") {
		loaded.LogFormat = flagged.LogFormat
	}

	return loaded
}
