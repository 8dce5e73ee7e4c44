package service

import (
	"context"

	"github.com/financial-transactions-api/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionService defines the transaction lifecycle operations
type TransactionService interface {
	// CreateTransaction stores a new PENDING transaction
	// Returns *transaction.ErrValidation if a field breaks a rule
	CreateTransaction(ctx context.Context, req transaction.CreateRequest) (*transaction.Transaction, error)

	// GetTransactionByID returns transaction.ErrTransactionNotFound if the
	// transaction doesn't exist
	GetTransactionByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)

	// GetAllTransactions returns every transaction, never nil
	GetAllTransactions(ctx context.Context) ([]*transaction.Transaction, error)

	// GetTransactionsByAccountID returns the transactions of one account, never nil
	GetTransactionsByAccountID(ctx context.Context, accountID string) ([]*transaction.Transaction, error)

	// UpdateTransaction applies the present fields of req and returns the
	// stored result
	UpdateTransaction(ctx context.Context, id uuid.UUID, req transaction.UpdateRequest) (*transaction.Transaction, error)

	// DeleteTransaction removes a transaction permanently
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
}

// TxRunner runs fn inside a database transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}
