package auth

import (
	"context"
	"fmt"
	"strings"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// ParseRole accepts any casing of a known role.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string { return string(r) }

// SubjectChecker reports whether a token subject still resolves to a record of its role.
type SubjectChecker interface {
	SubjectExists(ctx context.Context, role Role, id int64) (bool, error)
}

// ExistsFunc looks up one kind of account by id.
type ExistsFunc func(ctx context.Context, id int64) (bool, error)

// Subjects dispatches existence checks per role. Roles without an entry never resolve.
type Subjects map[Role]ExistsFunc

func (s Subjects) SubjectExists(ctx context.Context, role Role, id int64) (bool, error) {
	fn, ok := s[role]
	if !ok {
		return false, nil
	}
	return fn(ctx, id)
}
