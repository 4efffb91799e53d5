package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/kafka"
)

// Fetcher is the part of kafka.Consumer the source needs.
type Fetcher interface {
	Next(ctx context.Context) (kafka.Message, error)
}

// Kafka treats each message value on a topic as one line. Topics never end,
// so the stream stops on the sentinel value, on a fetch error, or when no
// message arrives within idle (if idle > 0).
type Kafka struct {
	fetcher Fetcher
	idle    time.Duration
	logger  *slog.Logger
}

func NewKafka(f Fetcher, idle time.Duration) *Kafka {
	return &Kafka{
		fetcher: f,
		idle:    idle,
		logger:  slog.Default().With("component", "kafka-source"),
	}
}

func (k *Kafka) ReadLine(ctx context.Context) (string, error) {
	if k.idle > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.idle)
		defer cancel()
	}
	msg, err := k.fetcher.Next(ctx)
	if err != nil {
		return "", fmt.Errorf("reading word from kafka: %w", err)
	}
	k.logger.Debug("word fetched", "partition", msg.Partition, "offset", msg.Offset)
	return string(msg.Value), nil
}
