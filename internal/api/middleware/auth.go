package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/financial-transactions-api/internal/api/response"
	"github.com/financial-transactions-api/internal/auth"
	"github.com/financial-transactions-api/internal/domain/principal"
	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "

	// errorPath is never warned about on rejection
	errorPath = "/error"
)

// TokenVerifier returns the subject of a valid token
type TokenVerifier interface {
	Verify(token string) (string, bool)
}

// PrincipalResolver loads the principal named by a token subject
type PrincipalResolver interface {
	Resolve(ctx context.Context, username string) (*principal.Principal, error)
}

// Authentication lets requests to publicPaths through. Every other request
// needs "Authorization: Bearer <token>" with a valid token whose subject
// resolves to a principal, which is then put on the request context.
// A public path matches itself and everything below it.
func Authentication(logger *slog.Logger, tokens TokenVerifier, principals PrincipalResolver, publicPaths []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if isPublicPath(path, publicPaths) {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader(authorizationHeader))
		if !ok {
			reject(c, logger, "missing bearer token")
			return
		}

		subject, ok := tokens.Verify(token)
		if !ok {
			reject(c, logger, "invalid or expired token")
			return
		}

		p, err := principals.Resolve(c.Request.Context(), subject)
		if err != nil {
			if errors.Is(err, auth.ErrAuthenticationFailed) {
				reject(c, logger, "unknown principal")
				return
			}
			logger.Error("Failed to resolve principal",
				"path", path,
				"correlation_id", GetCorrelationID(c),
				"error", err,
			)
			response.InternalError(c)
			return
		}

		logger.Debug("Token validated", "user", p.Username, "path", path)
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

// RequireRole answers 403 unless the authenticated principal holds role
func RequireRole(logger *slog.Logger, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := auth.PrincipalFrom(c.Request.Context())
		if !ok {
			reject(c, logger, "no authenticated principal")
			return
		}
		if !p.HasRole(role) {
			logger.Warn("Forbidden request",
				"user", p.Username,
				"required_role", role,
				"path", c.Request.URL.Path,
				"correlation_id", GetCorrelationID(c),
			)
			response.Forbidden(c)
			return
		}
		c.Next()
	}
}

func reject(c *gin.Context, logger *slog.Logger, reason string) {
	if c.Request.URL.Path != errorPath {
		logger.Warn("Unauthorized request",
			"reason", reason,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"correlation_id", GetCorrelationID(c),
		)
	}
	response.Unauthorized(c, response.MsgAccessDenied)
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

func isPublicPath(path string, publicPaths []string) bool {
	for _, p := range publicPaths {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}
