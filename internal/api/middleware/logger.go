package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/financial-transactions-api/internal/auth"
	"github.com/gin-gonic/gin"
)

// Logger logs one line per request once the handler chain has finished.
// Server errors are logged at ERROR, everything else at INFO.
func Logger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}
		if correlationID := GetCorrelationID(c); correlationID != "" {
			attrs = append(attrs, "correlation_id", correlationID)
		}
		if p, ok := auth.PrincipalFrom(c.Request.Context()); ok {
			attrs = append(attrs, "user", p.Username)
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("HTTP request", attrs...)
			return
		}
		logger.Info("HTTP request", attrs...)
	}
}
