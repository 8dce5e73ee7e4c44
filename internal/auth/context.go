package auth

import (
	"context"

	"github.com/financial-transactions-api/internal/domain/principal"
)

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p
func WithPrincipal(ctx context.Context, p *principal.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the authenticated principal stored in ctx, if any
func PrincipalFrom(ctx context.Context) (*principal.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*principal.Principal)
	return p, ok && p != nil
}

// ActorFrom returns the username of the authenticated principal, or
// "anonymous" when ctx carries none.
func ActorFrom(ctx context.Context) string {
	if p, ok := PrincipalFrom(ctx); ok {
		return p.Username
	}
	return "anonymous"
}
