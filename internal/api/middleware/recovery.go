package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/financial-transactions-api/internal/api/response"
	"github.com/gin-gonic/gin"
)

// Recovery catches panics, logs them with the stack trace and answers with
// the generic 500 envelope
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered",
					"error", r,
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"correlation_id", GetCorrelationID(c),
				)
				response.InternalError(c)
			}
		}()

		c.Next()
	}
}
