package staff

import (
	"context"
	"fmt"
	"strings"

	"library-engine/internal/pkg/apperrors"
)

type Role string

const (
	RoleLibrarian Role = "librarian"
	RoleAdmin     Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleLibrarian:
		return RoleLibrarian, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", apperrors.ErrInvalidArgument, s)
}

// Account is a staff login record.
type Account struct {
	ID       string
	Name     string
	Password string
	Role     Role
}

// Session identifies the authenticated principal of a request. It is passed
// explicitly through the context instead of living in shared state.
type Session struct {
	AccountID string
	Name      string
	Role      Role
}

// Require fails unless the session may act with role. Admins may act as librarians.
func (s Session) Require(role Role) error {
	if s.AccountID == "" {
		return fmt.Errorf("%w: no staff session", apperrors.ErrUnauthorized)
	}
	if s.Role == role || s.Role == RoleAdmin {
		return nil
	}
	return fmt.Errorf("%w: %s role required", apperrors.ErrForbidden, role)
}

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// RequireRole checks the session carried by ctx.
func RequireRole(ctx context.Context, role Role) error {
	s, ok := SessionFrom(ctx)
	if !ok {
		return fmt.Errorf("%w: no staff session", apperrors.ErrUnauthorized)
	}
	return s.Require(role)
}

type Repository interface {
	// Role is the role granted to every account this repository stores.
	Role() Role

	Load(ctx context.Context) ([]*Account, int, error)
}
