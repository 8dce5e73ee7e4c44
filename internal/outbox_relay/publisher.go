package outbox_relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/financial-transactions-api/internal/domain/outbox"
	"github.com/financial-transactions-api/internal/platform/messaging/producers"
	"github.com/segmentio/kafka-go"
)

// Kafka headers set on every published event
const (
	HeaderEventType = "event-type"
	HeaderEventID   = "event-id"
)

// EventPublisher delivers one outbox message to the event stream
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// KafkaEventPublisher implements EventPublisher on a Kafka producer. Events
// are keyed by transaction ID so one transaction's events share a partition.
type KafkaEventPublisher struct {
	producer producers.MessagePublisher
	logger   *slog.Logger
}

func NewKafkaEventPublisher(producer producers.MessagePublisher, logger *slog.Logger) EventPublisher {
	return &KafkaEventPublisher{
		producer: producer,
		logger:   logger,
	}
}

// PublishEvent refuses payloads that do not decode as an event, since no
// consumer could read them either.
func (p *KafkaEventPublisher) PublishEvent(ctx context.Context, message *outbox.Message) error {
	event, err := message.Event()
	if err != nil {
		return fmt.Errorf("decode outbox message %d: %w", message.ID, err)
	}

	headers := []kafka.Header{
		{Key: HeaderEventType, Value: []byte(message.EventType)},
		{Key: HeaderEventID, Value: []byte(message.EventID.String())},
	}

	if err := p.producer.Publish(ctx, message.TransactionID.String(), message.Payload, headers...); err != nil {
		return fmt.Errorf("publish outbox message %d: %w", message.ID, err)
	}

	p.logger.Debug("Published transaction event",
		"outbox_id", message.ID,
		"event_id", message.EventID,
		"event_type", message.EventType,
		"transaction_id", message.TransactionID,
		"actor", event.Actor,
	)
	return nil
}
