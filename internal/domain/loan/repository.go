package loan

import (
	"context"
	"time"
)

// Record is the persisted form of a loan. Users and items are referenced by
// their natural keys and resolved by the caller.
type Record struct {
	UserName   string
	ItemID     string
	BorrowDate time.Time
	DueDate    time.Time
	Active     bool
	// HasActive is false for stores that do not persist the active flag.
	HasActive  bool
}

func NewRecord(l *Loan) Record {
	return Record{
		UserName:   l.User.Name,
		ItemID:     l.Item.ID,
		BorrowDate: l.BorrowDate,
		DueDate:    l.DueDate,
		Active:     l.Active(),
		HasActive:  true,
	}
}

type Repository interface {
	// Load returns every well-formed record and the number of skipped lines.
	Load(ctx context.Context) ([]Record, int, error)

	SaveAll(ctx context.Context, loans []*Loan) error

	Append(ctx context.Context, loan *Loan) error
}
