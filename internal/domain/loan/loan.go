package loan

import (
	"fmt"
	"time"

	"library-engine/internal/domain/catalog"
	"library-engine/internal/domain/fine"
	"library-engine/internal/domain/member"
	"library-engine/internal/pkg/apperrors"
	"library-engine/internal/pkg/dates"

	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	StatusActive   LoanStatus = "ACTIVE"
	StatusReturned LoanStatus = "RETURNED"
)

// Loan binds one user to one catalog item. A loan is active until its first
// Return and never becomes active again.
type Loan struct {
	User       *member.User
	Item       *catalog.Item
	BorrowDate time.Time
	DueDate    time.Time
	Strategy   fine.Strategy

	active bool
}

// Open starts a loan. The item must be available; the user's borrowing gates
// are then applied through the ledger.
func Open(user *member.User, item *catalog.Item, date time.Time) (*Loan, error) {
	if user == nil || item == nil {
		return nil, fmt.Errorf("%w: loan needs a user and an item", apperrors.ErrInvalidArgument)
	}
	if !item.Available() {
		return nil, item.OnLoanError()
	}
	if err := user.Borrow(item, date); err != nil {
		return nil, err
	}

	borrowed := dates.Day(date)
	return &Loan{
		User:       user,
		Item:       item,
		BorrowDate: borrowed,
		DueDate:    dates.AddDays(borrowed, item.Kind.LoanPeriodDays()),
		Strategy:   item.Kind.FineStrategy(),
		active:     true,
	}, nil
}

// Restore rebuilds a persisted loan. The due date is taken as stored rather
// than derived. An active loan is attached to the user's held set.
func Restore(user *member.User, item *catalog.Item, borrowDate, dueDate time.Time, active bool) *Loan {
	if active {
		user.Attach(item)
	}
	return &Loan{
		User:       user,
		Item:       item,
		BorrowDate: dates.Day(borrowDate),
		DueDate:    dates.Day(dueDate),
		Strategy:   item.Kind.FineStrategy(),
		active:     active,
	}
}

func (l *Loan) Kind() catalog.Kind { return l.Item.Kind }

func (l *Loan) Active() bool { return l.active }

func (l *Loan) Status() LoanStatus {
	if l.active {
		return StatusActive
	}
	return StatusReturned
}

// Matches reports whether the loan is for this user and item.
func (l *Loan) Matches(user *member.User, item *catalog.Item) bool {
	return l.User.SameAs(user) && l.Item.Key() == item.Key()
}

// IsOverdue is true only while the loan is active and asOf is past the due day.
func (l *Loan) IsOverdue(asOf time.Time) bool {
	return l.active && dates.Between(l.DueDate, asOf) > 0
}

func (l *Loan) OverdueDays(asOf time.Time) int {
	if !l.IsOverdue(asOf) {
		return 0
	}
	return dates.Between(l.DueDate, asOf)
}

func (l *Loan) CalculateFine(asOf time.Time) decimal.Decimal {
	return l.Strategy.Calculate(l.OverdueDays(asOf))
}

// Return closes the loan and releases the item. It reports false when the loan
// had already been returned.
func (l *Loan) Return() bool {
	if !l.active {
		return false
	}
	l.active = false
	l.User.ReturnItem(l.Item)
	return true
}

func (l *Loan) Clone() *Loan {
	c := *l
	c.User = l.User.Clone()
	c.Item = l.Item.Clone()
	return &c
}

func (l *Loan) String() string {
	return fmt.Sprintf("%s loan of %s to %s due %s (%s)", l.Kind(), l.Item.ID, l.User.Name, dates.Format(l.DueDate), l.Status())
}
