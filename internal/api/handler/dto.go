package handler

import (
	"time"

	"github.com/financial-transactions-api/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

// LoginRequest carries the credentials of POST /auth/login. A password
// shorter than MinPasswordLength fails the login instead of the validation.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued bearer token
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

// CreateTransactionRequest is the body of POST /transactions. Amount accepts
// a JSON number or string and is decoded without passing through float64.
type CreateTransactionRequest struct {
	AccountID   string           `json:"accountId" binding:"required,min=10,max=50"`
	Type        transaction.Type `json:"type" binding:"required,oneof=DEBIT CREDIT"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	Currency    string           `json:"currency" binding:"required,len=3,alpha,uppercase"`
	Description *string          `json:"description" binding:"omitempty,max=255"`
}

// UpdateTransactionRequest is the body of PUT /transactions/{id}. Absent
// fields are left untouched.
type UpdateTransactionRequest struct {
	Description *string             `json:"description" binding:"omitempty,max=255"`
	Status      *transaction.Status `json:"status" binding:"omitempty,oneof=PENDING COMPLETED FAILED"`
}

// ListTransactionsQuery filters GET /transactions
type ListTransactionsQuery struct {
	AccountID string `form:"accountId" binding:"omitempty,min=10,max=50"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	TransactionID string          `json:"transactionId"`
	AccountID     string          `json:"accountId"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Description   *string         `json:"description"`
	Timestamp     time.Time       `json:"timestamp"`
	Status        string          `json:"status"`
}

func (r CreateTransactionRequest) toDomain() transaction.CreateRequest {
	return transaction.CreateRequest{
		AccountID:   r.AccountID,
		Type:        r.Type,
		Amount:      *r.Amount,
		Currency:    r.Currency,
		Description: r.Description,
	}
}

func (r UpdateTransactionRequest) toDomain() transaction.UpdateRequest {
	return transaction.UpdateRequest{
		Description: r.Description,
		Status:      r.Status,
	}
}

func mapTransactionToResponse(t *transaction.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID: t.TransactionID.String(),
		AccountID:     t.AccountID,
		Type:          string(t.Type),
		Amount:        t.Amount,
		Currency:      t.Currency,
		Description:   t.Description,
		Timestamp:     t.Timestamp,
		Status:        string(t.Status),
	}
}

func mapTransactionsToResponse(txs []*transaction.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, mapTransactionToResponse(t))
	}
	return out
}
