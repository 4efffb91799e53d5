// Package kafka provides Kafka producer and consumer clients backed by
// segmentio/kafka-go. The consumer is pull-based: each Next call fetches and
// commits exactly one message. The producer serialises events as JSON.
package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/config"
	"github.com/segmentio/kafka-go"
)

// Message is a fetched Kafka record.
type Message struct {
	Key       []byte
	Value     []byte
	Partition int
	Offset    int64
}

// Consumer reads messages from a Kafka topic one at a time.
type Consumer struct {
	reader *kafka.Reader
	logger *slog.Logger
}

// NewConsumer creates a Consumer for the given topic. A new consumer group
// starts from the earliest offset so a whole word stream is replayed.
func NewConsumer(cfg config.KafkaConfig, topic string) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})

	return &Consumer{
		reader: r,
		logger: slog.Default().With("component", "kafka-consumer", "topic", topic),
	}
}

// Next blocks until a message is available, commits it and returns it.
func (c *Consumer) Next(ctx context.Context) (Message, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return Message{}, fmt.Errorf("fetching message: %w", err)
	}
	c.logger.Debug("message received",
		"partition", msg.Partition,
		"offset", msg.Offset,
		"value_size", len(msg.Value),
	)
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("failed to commit message",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
	}
	return Message{
		Key:       msg.Key,
		Value:     msg.Value,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	}, nil
}

// Close closes the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
