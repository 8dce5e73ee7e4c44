// Package principal defines authenticated identities and how they are looked up.
package principal

import (
	"context"
	"errors"
	"slices"
)

// Role labels
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// ErrPrincipalNotFound is returned by a Lookup for an unknown username
var ErrPrincipalNotFound = errors.New("principal not found")

// Principal is an identity with its password hash and granted roles
type Principal struct {
	Username     string   `bson:"username"`
	PasswordHash string   `bson:"password_hash"`
	Roles        []string `bson:"roles"`
}

// New copies roles so later changes by the caller do not leak in
func New(username, passwordHash string, roles ...string) Principal {
	return Principal{
		Username:     username,
		PasswordHash: passwordHash,
		Roles:        slices.Clone(roles),
	}
}

// HasRole reports whether role is in the principal's role set
func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

// Lookup resolves a username to a principal or ErrPrincipalNotFound
type Lookup interface {
	Lookup(ctx context.Context, username string) (*Principal, error)
}
