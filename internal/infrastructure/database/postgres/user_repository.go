package postgres

import (
	"context"
	"log/slog"
	"time"

	"library-engine/internal/domain/member"
	"library-engine/internal/infrastructure/monitoring"
	"library-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	selectUsersSQL = `SELECT name, COALESCE(email, ''), fine_balance::text FROM library_users ORDER BY position`
	deleteUsersSQL = `DELETE FROM library_users`
	insertUserSQL  = `INSERT INTO library_users (name, position, email, fine_balance) VALUES ($1, $2, $3, $4)`
)

type UserRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ member.Repository = (*UserRepository)(nil)

func NewUserRepository(db DBPool, logger *slog.Logger) *UserRepository {
	if db == nil {
		panic("DBPool cannot be nil for UserRepository")
	}
	logger = defaultLogger(logger, "NewUserRepository")
	return &UserRepository{db: db, logger: logger.With("component", "UserRepository")}
}

func (r *UserRepository) Load(ctx context.Context) (users []*member.User, skipped int, err error) {
	start := time.Now()
	defer func() { record("library_users", "load", start, err) }()

	rows, err := r.db.Query(ctx, selectUsersSQL)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query users", slog.Any("error", err))
		return nil, 0, apperrors.WrapStorageError(err, "failed to query users")
	}
	defer rows.Close()

	for rows.Next() {
		var name, email, balanceText string
		if err := rows.Scan(&name, &email, &balanceText); err != nil {
			return nil, 0, apperrors.WrapStorageError(err, "failed to scan user")
		}
		balance, err := decimal.NewFromString(balanceText)
		if err != nil {
			r.logger.WarnContext(ctx, "Skipping user with unreadable balance", "name", name, "balance", balanceText)
			skipped++
			continue
		}
		user := member.NewUser(name, email)
		if err := user.RestoreBalance(balance); err != nil {
			r.logger.WarnContext(ctx, "Skipping user row", "name", name, "reason", err.Error())
			skipped++
			continue
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.WrapStorageError(err, "failed to read users")
	}
	monitoring.RecordSkippedLines("library_users", skipped)
	return users, skipped, nil
}

func (r *UserRepository) SaveAll(ctx context.Context, users []*member.User) (err error) {
	start := time.Now()
	defer func() { record("library_users", "save", start, err) }()

	return withTx(ctx, r.db, r.logger, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteUsersSQL); err != nil {
			return apperrors.WrapStorageError(err, "failed to clear users")
		}
		for i, u := range users {
			var email *string
			if u.Email != "" {
				email = &u.Email
			}
			if _, err := tx.Exec(ctx, insertUserSQL, u.Name, i, email, u.FineBalance().String()); err != nil {
				r.logger.ErrorContext(ctx, "Failed to insert user", "name", u.Name, slog.Any("error", err))
				return apperrors.WrapStorageError(err, "failed to insert user "+u.Name)
			}
		}
		return nil
	})
}
