package postgres

import (
	"context"
	"log/slog"
	"time"

	"library-engine/internal/domain/staff"
	"library-engine/internal/pkg/apperrors"
)

const selectAccountsSQL = `SELECT id, name, password FROM staff_accounts WHERE role = $1 ORDER BY id`

// AccountRepository reads the staff accounts holding one role.
type AccountRepository struct {
	role   staff.Role
	db     DBPool
	logger *slog.Logger
}

var _ staff.Repository = (*AccountRepository)(nil)

func NewAccountRepository(role staff.Role, db DBPool, logger *slog.Logger) *AccountRepository {
	if db == nil {
		panic("DBPool cannot be nil for AccountRepository")
	}
	logger = defaultLogger(logger, "NewAccountRepository")
	return &AccountRepository{
		role:   role,
		db:     db,
		logger: logger.With("component", "AccountRepository", "role", string(role)),
	}
}

func (r *AccountRepository) Role() staff.Role { return r.role }

func (r *AccountRepository) Load(ctx context.Context) (accounts []*staff.Account, skipped int, err error) {
	start := time.Now()
	defer func() { record("staff_accounts", "load", start, err) }()

	rows, err := r.db.Query(ctx, selectAccountsSQL, string(r.role))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query staff accounts", slog.Any("error", err))
		return nil, 0, apperrors.WrapStorageError(err, "failed to query staff accounts")
	}
	defer rows.Close()

	for rows.Next() {
		acc := &staff.Account{Role: r.role}
		if err := rows.Scan(&acc.ID, &acc.Name, &acc.Password); err != nil {
			return nil, 0, apperrors.WrapStorageError(err, "failed to scan staff account")
		}
		if acc.ID == "" {
			r.logger.WarnContext(ctx, "Skipping staff account without id", "id", acc.ID)
			skipped++
			continue
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.WrapStorageError(err, "failed to read staff accounts")
	}
	return accounts, skipped, nil
}
