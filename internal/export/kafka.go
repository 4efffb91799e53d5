package export

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/kafka"
)

const kafkaBatchSize = 500

// BatchPublisher is implemented by pkg/kafka.Producer.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// FrequencyEvent is the payload published for every distinct word.
type FrequencyEvent struct {
	RunID      string    `json:"run_id"`
	Word       string    `json:"word"`
	Count      int       `json:"count"`
	CapturedAt time.Time `json:"captured_at"`
}

// Kafka publishes one event per word, keyed by word, in batches.
type Kafka struct {
	producer BatchPublisher
}

func NewKafka(p BatchPublisher) *Kafka {
	return &Kafka{producer: p}
}

func (k *Kafka) Name() string { return "kafka" }

func (k *Kafka) Export(ctx context.Context, snap Snapshot) error {
	for start := 0; start < len(snap.Entries); start += kafkaBatchSize {
		end := min(start+kafkaBatchSize, len(snap.Entries))
		events := make([]kafka.Event, 0, end-start)
		for _, e := range snap.Entries[start:end] {
			events = append(events, kafka.Event{
				Key: e.Word,
				Value: FrequencyEvent{
					RunID:      snap.RunID,
					Word:       e.Word,
					Count:      e.Count,
					CapturedAt: snap.CapturedAt,
				},
			})
		}
		if err := k.producer.PublishBatch(ctx, events); err != nil {
			return err
		}
	}
	return nil
}
