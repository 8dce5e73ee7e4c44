package transaction

// Type is the direction of a transaction
type Type string

const (
	TypeDebit  Type = "DEBIT"
	TypeCredit Type = "CREDIT"
)

// Valid reports whether t is a known transaction type
func (t Type) Valid() bool {
	return t == TypeDebit || t == TypeCredit
}

// Status defines transaction processing states
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// EventType names a lifecycle change recorded in the outbox
type EventType string

const (
	EventTypeCreated EventType = "TRANSACTION_CREATED"
	EventTypeUpdated EventType = "TRANSACTION_UPDATED"
	EventTypeDeleted EventType = "TRANSACTION_DELETED"
)
