package postgres

import (
	"context"
	"log/slog"
	"time"

	"library-engine/internal/domain/catalog"
	"library-engine/internal/domain/loan"
	"library-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	selectLoansSQL = `SELECT user_name, item_id, borrow_date, due_date, active
	FROM loans WHERE kind = $1 ORDER BY seq`
	deleteLoansSQL = `DELETE FROM loans WHERE kind = $1`
	insertLoanSQL  = `INSERT INTO loans (kind, user_name, item_id, borrow_date, due_date, active)
	VALUES ($1, $2, $3, $4, $5, $6)`
)

// LoanRepository keeps the loan history of one item kind. Unlike the book loan
// file, every row carries its active flag.
type LoanRepository struct {
	kind   catalog.Kind
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(kind catalog.Kind, db DBPool, logger *slog.Logger) *LoanRepository {
	if db == nil {
		panic("DBPool cannot be nil for LoanRepository")
	}
	logger = defaultLogger(logger, "NewLoanRepository")
	return &LoanRepository{
		kind:   kind,
		db:     db,
		logger: logger.With("component", "LoanRepository", "kind", kind.String()),
	}
}

func (r *LoanRepository) Load(ctx context.Context) (records []loan.Record, skipped int, err error) {
	start := time.Now()
	defer func() { record("loans", "load", start, err) }()

	rows, err := r.db.Query(ctx, selectLoansSQL, r.kind.String())
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query loans", slog.Any("error", err))
		return nil, 0, apperrors.WrapStorageError(err, "failed to query loans")
	}
	defer rows.Close()

	for rows.Next() {
		rec := loan.Record{HasActive: true}
		if err := rows.Scan(&rec.UserName, &rec.ItemID, &rec.BorrowDate, &rec.DueDate, &rec.Active); err != nil {
			return nil, 0, apperrors.WrapStorageError(err, "failed to scan loan")
		}
		if rec.DueDate.Before(rec.BorrowDate) {
			r.logger.WarnContext(ctx, "Skipping loan due before it was borrowed", "user", rec.UserName, "item", rec.ItemID)
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.WrapStorageError(err, "failed to read loans")
	}
	return records, skipped, nil
}

// SaveAll replaces the loan history of the repository's kind.
func (r *LoanRepository) SaveAll(ctx context.Context, loans []*loan.Loan) (err error) {
	start := time.Now()
	defer func() { record("loans", "save", start, err) }()

	return withTx(ctx, r.db, r.logger, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteLoansSQL, r.kind.String()); err != nil {
			return apperrors.WrapStorageError(err, "failed to clear loans")
		}
		for _, l := range loans {
			if err := r.insert(ctx, tx, loan.NewRecord(l)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *LoanRepository) Append(ctx context.Context, l *loan.Loan) (err error) {
	start := time.Now()
	defer func() { record("loans", "append", start, err) }()

	return r.insert(ctx, r.db, loan.NewRecord(l))
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *LoanRepository) insert(ctx context.Context, db execer, rec loan.Record) error {
	_, err := db.Exec(ctx, insertLoanSQL, r.kind.String(), rec.UserName, rec.ItemID, rec.BorrowDate, rec.DueDate, rec.Active)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", "user", rec.UserName, "item", rec.ItemID, slog.Any("error", err))
		return apperrors.WrapStorageError(err, "failed to insert loan")
	}
	return nil
}
