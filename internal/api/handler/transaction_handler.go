package handler

import (
	"log/slog"

	"github.com/financial-transactions-api/internal/api/response"
	"github.com/financial-transactions-api/internal/api/service"
	"github.com/financial-transactions-api/internal/domain/transaction"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler handles HTTP requests for transaction operations
type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// Create stores a new transaction and answers 201 with it
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	created, err := h.transactionService.CreateTransaction(c.Request.Context(), req.toDomain())
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapTransactionToResponse(created))
}

// GetByID answers 404 when the transaction does not exist
func (h *TransactionHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	found, err := h.transactionService.GetTransactionByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTransactionToResponse(found))
}

// List returns every transaction, or those of ?accountId= when given
func (h *TransactionHandler) List(c *gin.Context) {
	var query ListTransactionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	var (
		txs []*transaction.Transaction
		err error
	)
	if query.AccountID != "" {
		txs, err = h.transactionService.GetTransactionsByAccountID(c.Request.Context(), query.AccountID)
	} else {
		txs, err = h.transactionService.GetAllTransactions(c.Request.Context())
	}
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTransactionsToResponse(txs))
}

// Update changes description and status only
func (h *TransactionHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := h.transactionService.UpdateTransaction(c.Request.Context(), id, req.toDomain())
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTransactionToResponse(updated))
}

// Delete answers 204 with an empty body
func (h *TransactionHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.transactionService.DeleteTransaction(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondNoContent(c)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.InvalidParameter(c, "id", "UUID")
		return uuid.Nil, false
	}
	return id, true
}
