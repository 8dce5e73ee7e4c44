package transaction

import (
	"time"

	"github.com/google/uuid"
)

// Event records one lifecycle change of a transaction, with the snapshot taken
// after the change (before it, for deletions).
type Event struct {
	EventID     uuid.UUID   `json:"event_id"`
	Type        EventType   `json:"event_type"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Actor       string      `json:"actor"`
	Transaction Transaction `json:"transaction"`
}

func NewEvent(eventType EventType, tx *Transaction, actor string, at time.Time) *Event {
	return &Event{
		EventID:     uuid.New(),
		Type:        eventType,
		OccurredAt:  at.UTC(),
		Actor:       actor,
		Transaction: *tx,
	}
}
