// Package auth issues and verifies bearer tokens and checks login credentials.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretBytes is the smallest accepted HMAC-SHA256 signing key
const MinSecretBytes = 32

var ErrWeakSecret = errors.New("jwt secret must be at least 32 bytes")

// TokenCodec signs and verifies HS256 tokens. The key is read-only after
// construction, so one codec can be shared by all requests.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenCodec(secret string, ttl time.Duration) (*TokenCodec, error) {
	if len(secret) < MinSecretBytes {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", ttl)
	}
	return &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL is the lifetime of tokens produced by Generate
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for subject valid from issuedAt until expiresAt.
// Both instants are rounded down to the second, so an expiresAt less than a
// second past the current time can yield a token that is already expired.
func (c *TokenCodec) Issue(subject string, issuedAt, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Generate issues a token for subject that expires after the configured TTL
func (c *TokenCodec) Generate(subject string) (string, error) {
	now := c.now()
	return c.Issue(subject, now, now.Add(c.ttl))
}

// Verify returns the token subject. It reports false for malformed or
// tampered tokens, for any algorithm other than HS256, and once the current
// time is at or past the expiry.
func (c *TokenCodec) Verify(token string) (string, bool) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}
