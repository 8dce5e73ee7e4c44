package outbox

import (
	"encoding/json"
	"time"

	"github.com/financial-transactions-api/internal/domain/transaction"
	"github.com/google/uuid"
)

// Status defines message publishing states
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusProcessed       Status = "PROCESSED"
	StatusFailedToPublish Status = "FAILED_TO_PUBLISH"
)

// Message stores a transaction lifecycle event until it is published
type Message struct {
	ID            int64                 `json:"id"`
	EventID       uuid.UUID             `json:"event_id"`
	EventType     transaction.EventType `json:"event_type"`
	TransactionID uuid.UUID             `json:"transaction_id"`
	AccountID     string                `json:"account_id"`
	Payload       json.RawMessage       `json:"payload"`
	Status        Status                `json:"status"`
	Attempts      int                   `json:"attempts"`
	CreatedAt     time.Time             `json:"created_at"`
	LastAttemptAt *time.Time            `json:"last_attempt_at,omitempty"`
}

func NewMessage(event *transaction.Event) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:       event.EventID,
		EventType:     event.Type,
		TransactionID: event.Transaction.TransactionID,
		AccountID:     event.Transaction.AccountID,
		Payload:       payload,
		Status:        StatusPending,
		Attempts:      0,
		CreatedAt:     event.OccurredAt,
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

// RetriesExhausted reports whether the attempts made so far reached max
func (m *Message) RetriesExhausted(max int) bool {
	return m.Attempts >= max
}

// Event decodes the lifecycle event from the payload
func (m *Message) Event() (*transaction.Event, error) {
	var event transaction.Event
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
