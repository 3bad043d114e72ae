package postgres

import (
	"context"
	"log/slog"
	"time"

	"library-engine/internal/domain/catalog"
	"library-engine/internal/infrastructure/monitoring"
	"library-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	selectItemsSQL = `SELECT id, title, creator, available, borrow_date, due_date
	FROM catalog_items WHERE kind = $1 ORDER BY position`
	deleteItemsSQL = `DELETE FROM catalog_items WHERE kind = $1`
	insertItemSQL  = `INSERT INTO catalog_items (kind, id, position, title, creator, available, borrow_date, due_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
)

type ItemRepository struct {
	kind   catalog.Kind
	db     DBPool
	logger *slog.Logger
}

var _ catalog.Repository = (*ItemRepository)(nil)

func NewItemRepository(kind catalog.Kind, db DBPool, logger *slog.Logger) *ItemRepository {
	if db == nil {
		panic("DBPool cannot be nil for ItemRepository")
	}
	logger = defaultLogger(logger, "NewItemRepository")
	return &ItemRepository{
		kind:   kind,
		db:     db,
		logger: logger.With("component", "ItemRepository", "kind", kind.String()),
	}
}

func (r *ItemRepository) Kind() catalog.Kind { return r.kind }

// Load skips rows whose availability contradicts their dates.
func (r *ItemRepository) Load(ctx context.Context) (items []*catalog.Item, skipped int, err error) {
	start := time.Now()
	defer func() { record("catalog_items", "load", start, err) }()

	rows, err := r.db.Query(ctx, selectItemsSQL, r.kind.String())
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query items", slog.Any("error", err))
		return nil, 0, apperrors.WrapStorageError(err, "failed to query catalog items")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, title, creator  string
			available           bool
			borrowDate, dueDate pgtype.Date
		)
		if err := rows.Scan(&id, &title, &creator, &available, &borrowDate, &dueDate); err != nil {
			return nil, 0, apperrors.WrapStorageError(err, "failed to scan catalog item")
		}

		item := newItem(r.kind, title, creator, id)
		if err := item.Restore(available, dateOrNil(borrowDate), dateOrNil(dueDate)); err != nil {
			r.logger.WarnContext(ctx, "Skipping inconsistent item row", "id", id, "reason", err.Error())
			skipped++
			continue
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.WrapStorageError(err, "failed to read catalog items")
	}
	monitoring.RecordSkippedLines("catalog_items", skipped)
	return items, skipped, nil
}

// SaveAll replaces every item of the repository's kind.
func (r *ItemRepository) SaveAll(ctx context.Context, items []*catalog.Item) (err error) {
	start := time.Now()
	defer func() { record("catalog_items", "save", start, err) }()

	return withTx(ctx, r.db, r.logger, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteItemsSQL, r.kind.String()); err != nil {
			return apperrors.WrapStorageError(err, "failed to clear catalog items")
		}
		for i, item := range items {
			_, err := tx.Exec(ctx, insertItemSQL,
				r.kind.String(), item.ID, i, item.Title, item.Creator, item.Available(),
				optionalDate(item.BorrowDate()), optionalDate(item.DueDate()),
			)
			if err != nil {
				r.logger.ErrorContext(ctx, "Failed to insert item", "id", item.ID, slog.Any("error", err))
				return apperrors.WrapStorageError(err, "failed to insert catalog item "+item.ID)
			}
		}
		return nil
	})
}

func newItem(kind catalog.Kind, title, creator, id string) *catalog.Item {
	if kind == catalog.KindCD {
		return catalog.NewCD(title, creator, id)
	}
	return catalog.NewBook(title, creator, id)
}
