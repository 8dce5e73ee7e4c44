package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/financial-transactions-api/internal/auth"
	"github.com/financial-transactions-api/internal/domain/outbox"
	"github.com/financial-transactions-api/internal/domain/principal"
	"github.com/financial-transactions-api/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTxRunner runs fn directly and returns its error, like a transaction
// that commits on success and rolls back on failure
type MockTxRunner struct {
	calls int
}

func (m *MockTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	m.calls++
	return fn(nil)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *transaction.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetAll(ctx context.Context) ([]*transaction.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByAccountID(ctx context.Context, accountID string) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Update(ctx context.Context, tx *transaction.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return m
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	return m.Called(ctx, message).Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) UpdateStatus(ctx context.Context, id int64, status outbox.Status) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockOutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return m
}

type serviceFixture struct {
	service    *TransactionServiceImpl
	runner     *MockTxRunner
	txRepo     *MockTransactionRepository
	outboxRepo *MockOutboxRepository
	now        time.Time
}

func newFixture() *serviceFixture {
	f := &serviceFixture{
		runner:     &MockTxRunner{},
		txRepo:     new(MockTransactionRepository),
		outboxRepo: new(MockOutboxRepository),
		now:        time.Date(2026, 4, 2, 9, 30, 0, 987654321, time.UTC),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.service = NewTransactionService(logger, f.runner, f.txRepo, f.outboxRepo).(*TransactionServiceImpl)
	f.service.now = func() time.Time { return f.now }
	return f
}

func authenticatedContext(username string) context.Context {
	p := principal.New(username, "hash", principal.RoleUser)
	return auth.WithPrincipal(context.Background(), &p)
}

func existingTransaction() *transaction.Transaction {
	desc := "original"
	return &transaction.Transaction{
		TransactionID: uuid.New(),
		AccountID:     "ACC123456789",
		Type:          transaction.TypeCredit,
		Amount:        decimal.RequireFromString("1500.50"),
		Currency:      "USD",
		Description:   &desc,
		Timestamp:     time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC),
		Status:        transaction.StatusPending,
	}
}

func eventOf(t *testing.T, message *outbox.Message) *transaction.Event {
	t.Helper()
	event, err := message.Event()
	require.NoError(t, err)
	return event
}

func TestTransactionService_CreateTransaction(t *testing.T) {
	t.Run("StoresPendingTransactionAndEvent", func(t *testing.T) {
		f := newFixture()
		ctx := authenticatedContext("admin")

		var stored *transaction.Transaction
		var message *outbox.Message
		f.txRepo.On("Create", ctx, mock.AnythingOfType("*transaction.Transaction")).
			Run(func(args mock.Arguments) { stored = args.Get(1).(*transaction.Transaction) }).
			Return(nil).Once()
		f.outboxRepo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).
			Run(func(args mock.Arguments) { message = args.Get(1).(*outbox.Message) }).
			Return(nil).Once()

		start := time.Now()
		f.service.now = time.Now
		created, err := f.service.CreateTransaction(ctx, transaction.CreateRequest{
			AccountID: "ACC123456789",
			Type:      transaction.TypeCredit,
			Amount:    decimal.RequireFromString("1500.50"),
			Currency:  "USD",
		})
		require.NoError(t, err)

		assert.Equal(t, transaction.StatusPending, created.Status)
		assert.NotEqual(t, uuid.Nil, created.TransactionID)
		assert.False(t, created.Timestamp.Before(start))
		assert.Same(t, stored, created)
		assert.Equal(t, 1, f.runner.calls)

		require.NotNil(t, message)
		assert.Equal(t, transaction.EventTypeCreated, message.EventType)
		assert.Equal(t, created.TransactionID, message.TransactionID)
		assert.Equal(t, outbox.StatusPending, message.Status)
		event := eventOf(t, message)
		assert.Equal(t, "admin", event.Actor)
		assert.Equal(t, created.TransactionID, event.Transaction.TransactionID)

		f.txRepo.AssertExpectations(t)
		f.outboxRepo.AssertExpectations(t)
	})

	t.Run("ValidationFailureTouchesNothing", func(t *testing.T) {
		f := newFixture()

		_, err := f.service.CreateTransaction(context.Background(), transaction.CreateRequest{
			AccountID: "short",
			Type:      transaction.TypeDebit,
			Amount:    decimal.NewFromInt(10),
			Currency:  "USD",
		})

		var verr *transaction.ErrValidation
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "accountId")
		assert.Equal(t, 0, f.runner.calls)
		f.txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("OutboxFailureFailsTheCreate", func(t *testing.T) {
		f := newFixture()
		ctx := context.Background()
		outboxErr := errors.New("outbox insert failed")

		f.txRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
		f.outboxRepo.On("Create", ctx, mock.Anything).Return(outboxErr).Once()

		created, err := f.service.CreateTransaction(ctx, transaction.CreateRequest{
			AccountID: "ACC123456789",
			Type:      transaction.TypeDebit,
			Amount:    decimal.NewFromInt(10),
			Currency:  "EUR",
		})
		assert.Nil(t, created)
		assert.ErrorIs(t, err, outboxErr)
	})

	t.Run("AnonymousActor", func(t *testing.T) {
		f := newFixture()
		ctx := context.Background()

		var message *outbox.Message
		f.txRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
		f.outboxRepo.On("Create", ctx, mock.Anything).
			Run(func(args mock.Arguments) { message = args.Get(1).(*outbox.Message) }).
			Return(nil).Once()

		_, err := f.service.CreateTransaction(ctx, transaction.CreateRequest{
			AccountID: "ACC123456789",
			Type:      transaction.TypeDebit,
			Amount:    decimal.NewFromInt(10),
			Currency:  "EUR",
		})
		require.NoError(t, err)
		assert.Equal(t, "anonymous", eventOf(t, message).Actor)
	})
}

func TestTransactionService_Reads(t *testing.T) {
	ctx := context.Background()

	t.Run("GetByID", func(t *testing.T) {
		f := newFixture()
		existing := existingTransaction()
		f.txRepo.On("GetByID", ctx, existing.TransactionID).Return(existing, nil).Once()

		got, err := f.service.GetTransactionByID(ctx, existing.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, existing, got)
	})

	t.Run("GetByIDNotFound", func(t *testing.T) {
		f := newFixture()
		id := uuid.New()
		f.txRepo.On("GetByID", ctx, id).Return(nil, transaction.ErrTransactionNotFound{TransactionID: id}).Once()

		got, err := f.service.GetTransactionByID(ctx, id)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, transaction.ErrTransactionNotFound{TransactionID: id})
	})

	t.Run("GetAll", func(t *testing.T) {
		f := newFixture()
		all := []*transaction.Transaction{existingTransaction(), existingTransaction()}
		f.txRepo.On("GetAll", ctx).Return(all, nil).Once()

		got, err := f.service.GetAllTransactions(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("GetByAccountIDError", func(t *testing.T) {
		f := newFixture()
		dbErr := errors.New("db down")
		f.txRepo.On("GetByAccountID", ctx, "ACC123456789").Return(nil, dbErr).Once()

		_, err := f.service.GetTransactionsByAccountID(ctx, "ACC123456789")
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestTransactionService_UpdateTransaction(t *testing.T) {
	t.Run("AppliesPresentFieldsOnly", func(t *testing.T) {
		f := newFixture()
		ctx := authenticatedContext("user")
		existing := existingTransaction()
		before := *existing
		status := transaction.StatusCompleted

		var message *outbox.Message
		f.txRepo.On("LockForUpdate", ctx, existing.TransactionID).Return(existing, nil).Once()
		f.txRepo.On("Update", ctx, existing).Return(nil).Once()
		f.outboxRepo.On("Create", ctx, mock.Anything).
			Run(func(args mock.Arguments) { message = args.Get(1).(*outbox.Message) }).
			Return(nil).Once()

		updated, err := f.service.UpdateTransaction(ctx, existing.TransactionID, transaction.UpdateRequest{Status: &status})
		require.NoError(t, err)

		assert.Equal(t, transaction.StatusCompleted, updated.Status)
		assert.Equal(t, *before.Description, *updated.Description)
		assert.Equal(t, before.AccountID, updated.AccountID)
		assert.True(t, before.Amount.Equal(updated.Amount))
		assert.Equal(t, before.Currency, updated.Currency)
		assert.Equal(t, before.Timestamp, updated.Timestamp)

		event := eventOf(t, message)
		assert.Equal(t, transaction.EventTypeUpdated, event.Type)
		assert.Equal(t, "user", event.Actor)
		assert.Equal(t, transaction.StatusCompleted, event.Transaction.Status)
		f.txRepo.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newFixture()
		ctx := context.Background()
		id := uuid.New()
		f.txRepo.On("LockForUpdate", ctx, id).Return(nil, transaction.ErrTransactionNotFound{TransactionID: id}).Once()

		desc := "x"
		_, err := f.service.UpdateTransaction(ctx, id, transaction.UpdateRequest{Description: &desc})
		assert.ErrorIs(t, err, transaction.ErrTransactionNotFound{})
		f.txRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		f.outboxRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("InvalidStatusIsValidationFailure", func(t *testing.T) {
		f := newFixture()
		ctx := context.Background()
		existing := existingTransaction()
		status := transaction.Status("ARCHIVED")
		f.txRepo.On("LockForUpdate", ctx, existing.TransactionID).Return(existing, nil).Once()

		_, err := f.service.UpdateTransaction(ctx, existing.TransactionID, transaction.UpdateRequest{Status: &status})

		var verr *transaction.ErrValidation
		require.ErrorAs(t, err, &verr)
		f.txRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestTransactionService_DeleteTransaction(t *testing.T) {
	t.Run("DeletesAndRecordsSnapshot", func(t *testing.T) {
		f := newFixture()
		ctx := authenticatedContext("admin")
		existing := existingTransaction()

		var message *outbox.Message
		f.txRepo.On("LockForUpdate", ctx, existing.TransactionID).Return(existing, nil).Once()
		f.txRepo.On("Delete", ctx, existing.TransactionID).Return(nil).Once()
		f.outboxRepo.On("Create", ctx, mock.Anything).
			Run(func(args mock.Arguments) { message = args.Get(1).(*outbox.Message) }).
			Return(nil).Once()

		require.NoError(t, f.service.DeleteTransaction(ctx, existing.TransactionID))

		event := eventOf(t, message)
		assert.Equal(t, transaction.EventTypeDeleted, event.Type)
		assert.Equal(t, existing.TransactionID, event.Transaction.TransactionID)
		assert.Equal(t, existing.AccountID, message.AccountID)
		f.txRepo.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newFixture()
		ctx := context.Background()
		id := uuid.New()
		f.txRepo.On("LockForUpdate", ctx, id).Return(nil, transaction.ErrTransactionNotFound{TransactionID: id}).Once()

		err := f.service.DeleteTransaction(ctx, id)
		assert.ErrorIs(t, err, transaction.ErrTransactionNotFound{TransactionID: id})
		f.txRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
