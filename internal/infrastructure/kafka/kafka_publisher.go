package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/obesitrack/obesitrack/pkg/events"
	pkgkafka "github.com/obesitrack/obesitrack/pkg/kafka"
)

var _ events.EntryPublisher = (*Publisher)(nil)

// Publisher implements events.EntryPublisher using Kafka. Outbox entries
// carry their payload pre-marshalled from the save transaction, so
// publishing never re-serializes the event.
type Publisher struct {
	producer *pkgkafka.Producer
	logger   *slog.Logger
	topic    string
}

// NewPublisher creates a new Kafka entry publisher.
func NewPublisher(producer *pkgkafka.Producer, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// PublishEntries sends outbox entries to Kafka. Messages are keyed by
// aggregate ID so one record's events stay ordered within a partition.
func (p *Publisher) PublishEntries(ctx context.Context, entries ...events.OutboxEntry) error {
	messages := make([]pkgkafka.Message, 0, len(entries))
	for _, entry := range entries {
		p.logger.DebugContext(ctx, "publishing event",
			slog.String("event_type", entry.EventType),
			slog.String("topic", p.topic),
			slog.Int("payload_size", len(entry.Payload)),
		)

		messages = append(messages, pkgkafka.Message{
			Key:   []byte(entry.AggregateID.String()),
			Value: entry.Payload,
			Headers: map[string]string{
				"event_type": entry.EventType,
				"event_id":   entry.ID.String(),
			},
		})
	}

	if len(messages) == 0 {
		return nil
	}

	if err := p.producer.Publish(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("failed to publish events to topic %s: %w", p.topic, err)
	}

	return nil
}
