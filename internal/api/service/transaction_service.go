package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/financial-transactions-api/internal/api/middleware"
	"github.com/financial-transactions-api/internal/auth"
	"github.com/financial-transactions-api/internal/domain/outbox"
	"github.com/financial-transactions-api/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionServiceImpl implements TransactionService. Every mutation writes
// its lifecycle event to the outbox in the same database transaction.
type TransactionServiceImpl struct {
	db              TxRunner
	transactionRepo transaction.Repository
	outboxRepo      outbox.Repository
	logger          *slog.Logger
	now             func() time.Time
}

func NewTransactionService(
	logger *slog.Logger,
	db TxRunner,
	transactionRepo transaction.Repository,
	outboxRepo outbox.Repository,
) TransactionService {
	return &TransactionServiceImpl{
		db:              db,
		transactionRepo: transactionRepo,
		outboxRepo:      outboxRepo,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *TransactionServiceImpl) CreateTransaction(ctx context.Context, req transaction.CreateRequest) (*transaction.Transaction, error) {
	tx, err := transaction.NewTransaction(req, s.now())
	if err != nil {
		return nil, err
	}

	err = s.db.ExecuteTx(ctx, func(dbTx pgx.Tx) error {
		if err := s.transactionRepo.WithTx(dbTx).Create(ctx, tx); err != nil {
			return err
		}
		return s.recordEvent(ctx, dbTx, transaction.EventTypeCreated, tx)
	})
	if err != nil {
		s.log(ctx).Error("Failed to create transaction",
			"account_id", tx.AccountID,
			"error", err,
		)
		return nil, err
	}

	s.log(ctx).Info("Transaction created",
		"transaction_id", tx.TransactionID.String(),
		"account_id", tx.AccountID,
		"type", string(tx.Type),
		"amount", tx.Amount.String(),
		"currency", tx.Currency,
	)
	return tx, nil
}

func (s *TransactionServiceImpl) GetTransactionByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	tx, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, transaction.ErrTransactionNotFound{}) {
			s.log(ctx).Error("Failed to get transaction", "transaction_id", id.String(), "error", err)
		}
		return nil, err
	}
	return tx, nil
}

func (s *TransactionServiceImpl) GetAllTransactions(ctx context.Context) ([]*transaction.Transaction, error) {
	txs, err := s.transactionRepo.GetAll(ctx)
	if err != nil {
		s.log(ctx).Error("Failed to list transactions", "error", err)
		return nil, err
	}
	return txs, nil
}

func (s *TransactionServiceImpl) GetTransactionsByAccountID(ctx context.Context, accountID string) ([]*transaction.Transaction, error) {
	txs, err := s.transactionRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		s.log(ctx).Error("Failed to list account transactions", "account_id", accountID, "error", err)
		return nil, err
	}
	return txs, nil
}

// UpdateTransaction locks the row, applies the update and writes it back in
// one database transaction
func (s *TransactionServiceImpl) UpdateTransaction(ctx context.Context, id uuid.UUID, req transaction.UpdateRequest) (*transaction.Transaction, error) {
	var updated *transaction.Transaction

	err := s.db.ExecuteTx(ctx, func(dbTx pgx.Tx) error {
		repo := s.transactionRepo.WithTx(dbTx)

		tx, err := repo.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.ApplyUpdate(req); err != nil {
			return err
		}
		if err := repo.Update(ctx, tx); err != nil {
			return err
		}

		updated = tx
		return s.recordEvent(ctx, dbTx, transaction.EventTypeUpdated, tx)
	})
	if err != nil {
		if !isExpected(err) {
			s.log(ctx).Error("Failed to update transaction", "transaction_id", id.String(), "error", err)
		}
		return nil, err
	}

	s.log(ctx).Info("Transaction updated",
		"transaction_id", id.String(),
		"status", string(updated.Status),
	)
	return updated, nil
}

func (s *TransactionServiceImpl) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	err := s.db.ExecuteTx(ctx, func(dbTx pgx.Tx) error {
		repo := s.transactionRepo.WithTx(dbTx)

		tx, err := repo.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		return s.recordEvent(ctx, dbTx, transaction.EventTypeDeleted, tx)
	})
	if err != nil {
		if !isExpected(err) {
			s.log(ctx).Error("Failed to delete transaction", "transaction_id", id.String(), "error", err)
		}
		return err
	}

	s.log(ctx).Info("Transaction deleted", "transaction_id", id.String())
	return nil
}

func (s *TransactionServiceImpl) recordEvent(ctx context.Context, dbTx pgx.Tx, eventType transaction.EventType, tx *transaction.Transaction) error {
	event := transaction.NewEvent(eventType, tx, auth.ActorFrom(ctx), s.now())

	message, err := outbox.NewMessage(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}
	return s.outboxRepo.WithTx(dbTx).Create(ctx, message)
}

func (s *TransactionServiceImpl) log(ctx context.Context) *slog.Logger {
	logger := s.logger
	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		logger = logger.With("correlation_id", id)
	}
	if p, ok := auth.PrincipalFrom(ctx); ok {
		logger = logger.With("user", p.Username)
	}
	return logger
}

// isExpected reports failures that are answered to the caller and not
// logged as server errors
func isExpected(err error) bool {
	var verr *transaction.ErrValidation
	return errors.Is(err, transaction.ErrTransactionNotFound{}) || errors.As(err, &verr)
}
