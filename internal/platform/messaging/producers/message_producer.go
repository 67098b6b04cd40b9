package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/banquito-core-processor/internal/config"
	"github.com/segmentio/kafka-go"
)

// MessageProducer writes JSON events to a single topic, keyed by the caller
type MessageProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewMessageProducer ensures the topic exists and returns a synchronous producer for it
func NewMessageProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig, topic string) (*MessageProducer, error) {
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is not configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for %s producer: %w", topic, err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, topic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure topic %s exists: %w", topic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &MessageProducer{
		logger: logger,
		writer: writer,
		topic:  topic,
	}, nil
}

// Publish marshals value to JSON and writes it under key.
// Messages with the same key land on the same partition.
func (p *MessageProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for topic %s: %w", p.topic, err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published message",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *MessageProducer) Topic() string {
	return p.topic
}

func (p *MessageProducer) Close() error {
	p.logger.Info("Closing Kafka message producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
