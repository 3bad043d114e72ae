package catalog

import (
	"fmt"
	"strings"
	"time"

	"library-engine/internal/domain/fine"
	"library-engine/internal/pkg/apperrors"
	"library-engine/internal/pkg/dates"
)

const (
	BookLoanPeriodDays = 28
	CDLoanPeriodDays   = 7
)

type Kind int

const (
	KindBook Kind = iota + 1
	KindCD
)

func (k Kind) String() string {
	switch k {
	case KindBook:
		return "book"
	case KindCD:
		return "cd"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// LoanPeriodDays is the number of days between borrow date and due date.
func (k Kind) LoanPeriodDays() int {
	if k == KindCD {
		return CDLoanPeriodDays
	}
	return BookLoanPeriodDays
}

func (k Kind) FineStrategy() fine.Strategy {
	if k == KindCD {
		return fine.CD
	}
	return fine.Book
}

// Item is a lendable catalog record. Availability and the borrow/due dates are
// only changed through Borrow, Return and Restore so that an item is available
// exactly when neither date is set.
type Item struct {
	Kind    Kind
	Title   string
	Creator string
	ID      string

	available  bool
	borrowDate *time.Time
	dueDate    *time.Time
}

func NewBook(title, author, isbn string) *Item {
	return newItem(KindBook, title, author, isbn)
}

func NewCD(title, artist, id string) *Item {
	return newItem(KindCD, title, artist, id)
}

func newItem(kind Kind, title, creator, id string) *Item {
	return &Item{
		Kind:      kind,
		Title:     strings.TrimSpace(title),
		Creator:   strings.TrimSpace(creator),
		ID:        strings.TrimSpace(id),
		available: true,
	}
}

// Key identifies the item across kinds.
func (i *Item) Key() string {
	return i.Kind.String() + ":" + i.ID
}

func (i *Item) Available() bool { return i.available }

func (i *Item) BorrowDate() *time.Time { return copyTime(i.borrowDate) }

func (i *Item) DueDate() *time.Time { return copyTime(i.dueDate) }

// OnLoanError is the violation every caller reports when the item is
// borrowed while unavailable. It matches both ErrAlreadyBorrowed and
// ErrItemUnavailable.
func (i *Item) OnLoanError() error {
	return fmt.Errorf("%w: %w: %s %s is already on loan", apperrors.ErrAlreadyBorrowed, apperrors.ErrItemUnavailable, i.Kind, i.ID)
}

func (i *Item) Borrow(date time.Time) error {
	if !i.available {
		return i.OnLoanError()
	}
	borrowed := dates.Day(date)
	due := dates.AddDays(borrowed, i.Kind.LoanPeriodDays())
	i.available = false
	i.borrowDate = &borrowed
	i.dueDate = &due
	return nil
}

func (i *Item) Return() {
	i.available = true
	i.borrowDate = nil
	i.dueDate = nil
}

// IsOverdue reports whether asOf falls on a later calendar day than the due date.
func (i *Item) IsOverdue(asOf time.Time) bool {
	if i.dueDate == nil {
		return false
	}
	return dates.Between(*i.dueDate, asOf) > 0
}

// RemainingDays is negative once the item is overdue and zero when it is not borrowed.
func (i *Item) RemainingDays(asOf time.Time) int {
	if i.dueDate == nil {
		return 0
	}
	return dates.Between(asOf, *i.dueDate)
}

// Restore sets persisted loan state. It rejects combinations that break the
// availability invariant.
func (i *Item) Restore(available bool, borrowDate, dueDate *time.Time) error {
	if available != (borrowDate == nil && dueDate == nil) {
		return fmt.Errorf("%w: %s %s availability does not match its dates", apperrors.ErrValidation, i.Kind, i.ID)
	}
	if borrowDate != nil && dueDate == nil || borrowDate == nil && dueDate != nil {
		return fmt.Errorf("%w: %s %s needs both borrow and due dates", apperrors.ErrValidation, i.Kind, i.ID)
	}
	i.available = available
	i.borrowDate = dayPtr(borrowDate)
	i.dueDate = dayPtr(dueDate)
	return nil
}

// Matches applies the catalog search rule: a case-insensitive substring of the
// title, or a case-insensitive exact creator or identifier.
func (i *Item) Matches(keyword string) bool {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return true
	}
	return strings.Contains(strings.ToLower(i.Title), strings.ToLower(keyword)) ||
		strings.EqualFold(i.Creator, keyword) ||
		strings.EqualFold(i.ID, keyword)
}

// Clone returns a detached copy of the item.
func (i *Item) Clone() *Item {
	c := *i
	return &c
}

func (i *Item) String() string {
	return fmt.Sprintf("%s %q by %s (%s)", i.Kind, i.Title, i.Creator, i.ID)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := dates.Day(*t)
	return &d
}
