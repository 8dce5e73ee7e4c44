package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/financial-transactions-api/internal/domain/principal"
	"golang.org/x/crypto/bcrypt"
)

// ErrAuthenticationFailed covers both an unknown username and a wrong
// password, so callers cannot tell the two apart.
var ErrAuthenticationFailed = errors.New("authentication failed")

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// CredentialVerifier checks passwords against bcrypt hashes held by a
// principal lookup.
type CredentialVerifier struct {
	principals principal.Lookup
}

func NewCredentialVerifier(principals principal.Lookup) *CredentialVerifier {
	return &CredentialVerifier{principals: principals}
}

// Authenticate returns the principal when password matches its stored hash.
// Unknown users still pay for one bcrypt comparison.
func (v *CredentialVerifier) Authenticate(ctx context.Context, username, password string) (*principal.Principal, error) {
	p, err := v.principals.Lookup(ctx, username)
	if err != nil {
		if errors.Is(err, principal.ErrPrincipalNotFound) {
			_ = bcrypt.CompareHashAndPassword(fakeHash(), []byte(password))
			return nil, ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("failed to look up principal: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return nil, ErrAuthenticationFailed
	}
	return p, nil
}

// Resolve loads the principal named by a verified token subject
func (v *CredentialVerifier) Resolve(ctx context.Context, username string) (*principal.Principal, error) {
	p, err := v.principals.Lookup(ctx, username)
	if err != nil {
		if errors.Is(err, principal.ErrPrincipalNotFound) {
			return nil, ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("failed to look up principal: %w", err)
	}
	return p, nil
}

func fakeHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	return dummyHash
}
