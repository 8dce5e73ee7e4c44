// Package postgres provides PostgreSQL implementations of the domain repositories.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/financial-transactions-api/internal/domain/transaction"
	"github.com/financial-transactions-api/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const transactionColumns = `transaction_id, account_id, type, amount::text, currency, description, timestamp, status`

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier // *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewTransactionRepository creates a repository on the pool of db
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new transaction. The amount is sent in its exact decimal
// text form.
func (r *TransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (transaction_id, account_id, type, amount, currency, description, timestamp, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		t.TransactionID,
		t.AccountID,
		t.Type,
		t.Amount.String(),
		t.Currency,
		t.Description,
		t.Timestamp,
		t.Status,
	)
	if err != nil {
		r.logger.Error("Failed to create transaction", "transaction_id", t.TransactionID.String(), "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction by its identifier
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE transaction_id = $1
	`

	t, err := scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get transaction", "transaction_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return t, nil
}

// LockForUpdate reads a transaction with FOR UPDATE. It must run on a
// repository bound to a database transaction.
func (r *TransactionRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE transaction_id = $1
		FOR UPDATE
	`

	t, err := scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to lock transaction", "transaction_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock transaction: %w", err)
	}

	return t, nil
}

// GetAll returns every stored transaction in creation order
func (r *TransactionRepository) GetAll(ctx context.Context) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		ORDER BY timestamp ASC, transaction_id ASC
	`

	return r.queryTransactions(ctx, "get all transactions", query)
}

// GetByAccountID returns the transactions of one account in creation order
func (r *TransactionRepository) GetByAccountID(ctx context.Context, accountID string) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY timestamp ASC, transaction_id ASC
	`

	return r.queryTransactions(ctx, "get transactions by account", query, accountID)
}

// Update writes description and status. The other columns are never touched.
func (r *TransactionRepository) Update(ctx context.Context, t *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET description = $1, status = $2
		WHERE transaction_id = $3
	`

	result, err := r.querier.Exec(ctx, query, t.Description, t.Status, t.TransactionID)
	if err != nil {
		r.logger.Error("Failed to update transaction", "transaction_id", t.TransactionID.String(), "error", err)
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrTransactionNotFound{TransactionID: t.TransactionID}
	}

	return nil
}

// Delete removes a transaction permanently
func (r *TransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM transactions
		WHERE transaction_id = $1
	`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete transaction", "transaction_id", id.String(), "error", err)
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrTransactionNotFound{TransactionID: id}
	}

	return nil
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, op, query string, args ...interface{}) ([]*transaction.Transaction, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op, "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	transactions := make([]*transaction.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			r.logger.Error("Failed to scan transaction", "error", err)
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over transactions", "error", err)
		return nil, fmt.Errorf("error iterating over transactions: %w", err)
	}

	return transactions, nil
}

func scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var (
		t      transaction.Transaction
		amount string
	)
	err := row.Scan(
		&t.TransactionID,
		&t.AccountID,
		&t.Type,
		&amount,
		&t.Currency,
		&t.Description,
		&t.Timestamp,
		&t.Status,
	)
	if err != nil {
		return nil, err
	}

	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	t.Timestamp = t.Timestamp.UTC()

	return &t, nil
}
