package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/financial-transactions-api/internal/api/middleware"
	"github.com/financial-transactions-api/internal/api/response"
	"github.com/financial-transactions-api/internal/domain/transaction"
	"github.com/gin-gonic/gin"
)

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// RespondCreated sends a 201 Created response with data
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// RespondNoContent sends a 204 No Content response
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// respondBindError answers a failed body or query binding: validator
// failures become 400 Validation Error, anything else 400 Malformed JSON
func respondBindError(c *gin.Context, err error) {
	if details, ok := validationDetails(err); ok {
		response.ValidationError(c, details)
		return
	}
	response.MalformedJSON(c)
}

// respondServiceError is the single place where service failures become
// HTTP answers. Only unexpected failures are logged, with full detail.
func respondServiceError(c *gin.Context, logger *slog.Logger, err error) {
	var notFound transaction.ErrTransactionNotFound
	var verr *transaction.ErrValidation

	switch {
	case errors.As(err, &notFound):
		response.NotFound(c, "Transaction not found with ID: "+notFound.TransactionID.String())
	case errors.As(err, &verr):
		response.ValidationError(c, verr.Fields)
	default:
		logger.Error("Unexpected error",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"correlation_id", middleware.GetCorrelationID(c),
			"error", err,
		)
		response.InternalError(c)
	}
}
