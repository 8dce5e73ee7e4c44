package handler

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/financial-transactions-api/internal/api/middleware"
	"github.com/financial-transactions-api/internal/api/response"
	"github.com/financial-transactions-api/internal/auth"
	"github.com/financial-transactions-api/internal/domain/principal"
	"github.com/gin-gonic/gin"
)

const tokenTypeBearer = "Bearer"

// MinPasswordLength is the shortest password any principal can hold
const MinPasswordLength = 6

// Authenticator checks a username and password
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*principal.Principal, error)
}

// TokenIssuer signs a bearer token for a subject
type TokenIssuer interface {
	Generate(subject string) (string, error)
}

// AuthHandler handles login requests
type AuthHandler struct {
	authenticator Authenticator
	tokens        TokenIssuer
	logger        *slog.Logger
}

func NewAuthHandler(logger *slog.Logger, authenticator Authenticator, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{
		authenticator: authenticator,
		tokens:        tokens,
		logger:        logger,
	}
}

// Login exchanges valid credentials for a bearer token
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	h.logger.Info("Authentication attempt", "username", req.Username)

	if utf8.RuneCountInString(req.Password) < MinPasswordLength {
		h.loginFailed(c, req.Username)
		return
	}

	p, err := h.authenticator.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrAuthenticationFailed) {
			h.loginFailed(c, req.Username)
			return
		}
		h.logger.Error("Failed to authenticate", "username", req.Username, "error", err)
		response.InternalError(c)
		return
	}

	token, err := h.tokens.Generate(p.Username)
	if err != nil {
		h.logger.Error("Failed to issue token", "username", p.Username, "error", err)
		response.InternalError(c)
		return
	}

	h.logger.Info("User authenticated", "username", p.Username)
	RespondOK(c, LoginResponse{AccessToken: token, TokenType: tokenTypeBearer})
}

func (h *AuthHandler) loginFailed(c *gin.Context, username string) {
	h.logger.Warn("Authentication failed",
		"username", username,
		"correlation_id", middleware.GetCorrelationID(c),
	)
	response.Unauthorized(c, response.MsgLoginFailed)
}
