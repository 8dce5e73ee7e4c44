package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/financial-transactions-api/internal/auth"
	"github.com/financial-transactions-api/internal/domain/principal"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("LogsRequestDetails", func(t *testing.T) {
		var logBuffer bytes.Buffer
		testLogger := slog.New(slog.NewJSONHandler(&logBuffer, &slog.HandlerOptions{Level: slog.LevelInfo}))

		router := gin.New()
		router.Use(CorrelationID())
		router.Use(Logger(testLogger))
		router.GET("/items/:id", func(c *gin.Context) {
			p := principal.New("admin", "", principal.RoleUser)
			c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), &p))
			c.String(http.StatusOK, "OK")
		})

		req, _ := http.NewRequest(http.MethodGet, "/items/42?param=value", nil)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set(CorrelationIDHeader, "corr-1")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		logOutput := logBuffer.String()
		assert.Contains(t, logOutput, `"level":"INFO"`)
		assert.Contains(t, logOutput, `"msg":"HTTP request"`)
		assert.Contains(t, logOutput, `"method":"GET"`)
		assert.Contains(t, logOutput, `"path":"/items/42?param=value"`)
		assert.Contains(t, logOutput, `"route":"/items/:id"`)
		assert.Contains(t, logOutput, `"status":200`)
		assert.Contains(t, logOutput, `"latency":`)
		assert.Contains(t, logOutput, `"user_agent":"test-agent"`)
		assert.Contains(t, logOutput, `"correlation_id":"corr-1"`)
		assert.Contains(t, logOutput, `"user":"admin"`)
	})

	t.Run("ServerErrorsAreLoggedAsErrors", func(t *testing.T) {
		var logBuffer bytes.Buffer
		testLogger := slog.New(slog.NewJSONHandler(&logBuffer, nil))

		router := gin.New()
		router.Use(Logger(testLogger))
		router.POST("/fail", func(c *gin.Context) {
			c.Status(http.StatusInternalServerError)
		})

		req, _ := http.NewRequest(http.MethodPost, "/fail", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)

		logOutput := logBuffer.String()
		assert.Contains(t, logOutput, `"level":"ERROR"`)
		assert.Contains(t, logOutput, `"status":500`)
		assert.NotContains(t, logOutput, `"user":`)
	})
}
