package transaction

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages transaction persistence
type Repository interface {
	Create(ctx context.Context, tx *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	GetAll(ctx context.Context) ([]*Transaction, error)
	GetByAccountID(ctx context.Context, accountID string) ([]*Transaction, error)

	// LockForUpdate reads the row and holds a row lock until the surrounding
	// database transaction ends
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// Update writes the mutable columns (description, status) only
	Update(ctx context.Context, tx *Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error
	WithTx(tx pgx.Tx) Repository
}

// ErrTransactionNotFound indicates a missing transaction
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found with ID: " + e.TransactionID.String()
}

// Is matches any ErrTransactionNotFound when the target ID is uuid.Nil
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// ErrValidation collects field-level rule violations keyed by field name
type ErrValidation struct {
	Fields map[string]string
}

func (e *ErrValidation) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any field failed
func (e *ErrValidation) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ErrValidation) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
