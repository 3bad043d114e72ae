// Package postgres stores the library in PostgreSQL. It implements the same
// repository contracts as the flat-file store and keeps each collection in
// insertion order.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"library-engine/internal/infrastructure/monitoring"
	"library-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ DBPool = (*pgxpool.Pool)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS catalog_items (
	kind        TEXT    NOT NULL,
	id          TEXT    NOT NULL,
	position    INTEGER NOT NULL,
	title       TEXT    NOT NULL,
	creator     TEXT    NOT NULL,
	available   BOOLEAN NOT NULL,
	borrow_date DATE,
	due_date    DATE,
	PRIMARY KEY (kind, id)
);
CREATE TABLE IF NOT EXISTS library_users (
	name         TEXT    PRIMARY KEY,
	position     INTEGER NOT NULL,
	email        TEXT,
	fine_balance NUMERIC(12,2) NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS loans (
	seq         BIGSERIAL PRIMARY KEY,
	kind        TEXT    NOT NULL,
	user_name   TEXT    NOT NULL,
	item_id     TEXT    NOT NULL,
	borrow_date DATE    NOT NULL,
	due_date    DATE    NOT NULL,
	active      BOOLEAN NOT NULL
);
CREATE TABLE IF NOT EXISTS staff_accounts (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	password TEXT NOT NULL,
	role     TEXT NOT NULL
);`

// EnsureSchema creates the library tables when they are missing.
func EnsureSchema(ctx context.Context, db DBPool, logger *slog.Logger) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		logger.ErrorContext(ctx, "Failed to create schema", slog.Any("error", err))
		return apperrors.WrapStorageError(err, "failed to create library schema")
	}
	return nil
}

// withTx runs fn in a transaction and rolls it back when fn fails.
func withTx(ctx context.Context, db DBPool, logger *slog.Logger, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return apperrors.WrapStorageError(err, "failed to begin transaction")
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logger.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to commit transaction", slog.Any("error", err))
		return apperrors.WrapStorageError(err, "failed to commit transaction")
	}
	return nil
}

func record(table, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	monitoring.RecordStorageOperation(table, operation, status, time.Since(start))
}

func optionalDate(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: *t, Valid: true}
}

func dateOrNil(d pgtype.Date) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

func defaultLogger(logger *slog.Logger, caller string) *slog.Logger {
	if logger != nil {
		return logger
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	logger.Warn(fmt.Sprintf("Warning: No logger provided to %s, using default stderr handler", caller))
	return logger
}
