package staff

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"

	"library-engine/internal/pkg/apperrors"
)

// Directory holds the librarian and admin accounts loaded at startup.
type Directory struct {
	accounts map[string]*Account
	logger   *slog.Logger
}

func NewDirectory(logger *slog.Logger) *Directory {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Directory{
		accounts: make(map[string]*Account),
		logger:   logger.With("component", "staffDirectory"),
	}
}

// Load reads every repository. Accounts from a repository take its role.
func (d *Directory) Load(ctx context.Context, repos ...Repository) error {
	for _, repo := range repos {
		accounts, skipped, err := repo.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load %s accounts: %w", repo.Role(), err)
		}
		if skipped > 0 {
			d.logger.WarnContext(ctx, "Skipped malformed staff records", "role", repo.Role(), "skipped", skipped)
		}
		for _, acc := range accounts {
			acc.Role = repo.Role()
			d.Add(acc)
		}
		d.logger.InfoContext(ctx, "Loaded staff accounts", "role", repo.Role(), "count", len(accounts))
	}
	return nil
}

func (d *Directory) Add(acc *Account) {
	d.accounts[accountKey(acc.ID)] = acc
}

// Authenticate compares credentials by plain equality and returns a session.
func (d *Directory) Authenticate(ctx context.Context, id, password string) (Session, error) {
	acc, ok := d.accounts[accountKey(id)]
	if !ok || subtle.ConstantTimeCompare([]byte(acc.Password), []byte(password)) != 1 {
		d.logger.WarnContext(ctx, "Staff authentication failed", "accountID", id)
		return Session{}, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}
	d.logger.InfoContext(ctx, "Staff authenticated", "accountID", acc.ID, "role", acc.Role)
	return Session{AccountID: acc.ID, Name: acc.Name, Role: acc.Role}, nil
}

func accountKey(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
