package principal

import (
	"context"
	"fmt"
	"strings"
)

// MemoryStore is a fixed principal set, read-only after construction
type MemoryStore struct {
	principals map[string]Principal
}

func NewMemoryStore(principals ...Principal) *MemoryStore {
	s := &MemoryStore{principals: make(map[string]Principal, len(principals))}
	for _, p := range principals {
		s.principals[p.Username] = New(p.Username, p.PasswordHash, p.Roles...)
	}
	return s
}

func (s *MemoryStore) Lookup(_ context.Context, username string) (*Principal, error) {
	p, ok := s.principals[username]
	if !ok {
		return nil, ErrPrincipalNotFound
	}
	found := New(p.Username, p.PasswordHash, p.Roles...)
	return &found, nil
}

// ParseSeed reads principals from "user:bcrypthash:ROLE_A|ROLE_B;..."
func ParseSeed(seed string) ([]Principal, error) {
	var principals []Principal
	for _, entry := range strings.Split(seed, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid principal entry %q: expected username:hash:roles", redact(entry))
		}

		var roles []string
		for _, role := range strings.Split(parts[2], "|") {
			if role = strings.TrimSpace(role); role != "" {
				roles = append(roles, role)
			}
		}
		principals = append(principals, New(parts[0], parts[1], roles...))
	}

	if len(principals) == 0 {
		return nil, fmt.Errorf("no principals defined")
	}
	return principals, nil
}

// redact keeps only the username part of a seed entry for error messages
func redact(entry string) string {
	if i := strings.IndexByte(entry, ':'); i >= 0 {
		return entry[:i] + ":***"
	}
	return entry
}
