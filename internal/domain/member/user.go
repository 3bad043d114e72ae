package member

import (
	"fmt"
	"strings"
	"time"

	"library-engine/internal/domain/catalog"
	"library-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

// User is a library patron and the ledger of what they currently hold and owe.
type User struct {
	Name  string
	Email string

	fineBalance decimal.Decimal
	held        []*catalog.Item
}

func NewUser(name, email string) *User {
	return &User{
		Name:        strings.TrimSpace(name),
		Email:       strings.TrimSpace(email),
		fineBalance: decimal.Zero,
	}
}

// Key is the case-insensitive lookup key for a user name.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (u *User) Key() string { return Key(u.Name) }

// SameAs compares users by name, ignoring case.
func (u *User) SameAs(other *User) bool {
	return other != nil && strings.EqualFold(u.Name, other.Name)
}

func (u *User) FineBalance() decimal.Decimal { return u.fineBalance }

// Held returns a copy of the items the user currently holds.
func (u *User) Held() []*catalog.Item {
	out := make([]*catalog.Item, len(u.held))
	copy(out, u.held)
	return out
}

func (u *User) Holds(item *catalog.Item) bool {
	return u.indexOf(item) >= 0
}

// Borrow applies the borrowing gates and, if they pass, borrows the item and
// adds it to the held set.
func (u *User) Borrow(item *catalog.Item, date time.Time) error {
	if u.fineBalance.IsPositive() {
		return fmt.Errorf("%w: %s owes %s", apperrors.ErrUnpaidFine, u.Name, u.fineBalance.String())
	}
	if u.HasOverdue(date) {
		return fmt.Errorf("%w: %s", apperrors.ErrOverdueItemHeld, u.Name)
	}
	if u.Holds(item) {
		return item.OnLoanError()
	}
	if err := item.Borrow(date); err != nil {
		return err
	}
	u.held = append(u.held, item)
	return nil
}

// ReturnItem drops the item from the held set, if present, and releases it.
func (u *User) ReturnItem(item *catalog.Item) {
	if idx := u.indexOf(item); idx >= 0 {
		u.held = append(u.held[:idx], u.held[idx+1:]...)
	}
	item.Return()
}

// Attach adds an already-borrowed item to the held set when restoring state.
func (u *User) Attach(item *catalog.Item) {
	if !u.Holds(item) {
		u.held = append(u.held, item)
	}
}

func (u *User) HasOverdue(asOf time.Time) bool {
	return u.OverdueCount(asOf) > 0
}

func (u *User) OverdueCount(asOf time.Time) int {
	count := 0
	for _, item := range u.held {
		if item.IsOverdue(asOf) {
			count++
		}
	}
	return count
}

// PayFine reduces the balance, clamping it to zero when amount covers it.
func (u *User) PayFine(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperrors.NewValidationError("amount", "payment cannot be negative")
	}
	if amount.GreaterThanOrEqual(u.fineBalance) {
		u.fineBalance = decimal.Zero
		return nil
	}
	u.fineBalance = u.fineBalance.Sub(amount)
	return nil
}

func (u *User) ChargeFine(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperrors.NewValidationError("amount", "fine cannot be negative")
	}
	u.fineBalance = u.fineBalance.Add(amount)
	return nil
}

// RestoreBalance sets the persisted balance.
func (u *User) RestoreBalance(balance decimal.Decimal) error {
	if balance.IsNegative() {
		return apperrors.NewValidationError("fineBalance", "balance cannot be negative")
	}
	u.fineBalance = balance
	return nil
}

// CanBeUnregistered is true when nothing held is still on loan and no fine is owed.
func (u *User) CanBeUnregistered() bool {
	for _, item := range u.held {
		if !item.Available() {
			return false
		}
	}
	return !u.fineBalance.IsPositive()
}

// Clone copies the user together with its held items.
func (u *User) Clone() *User {
	c := *u
	c.held = make([]*catalog.Item, len(u.held))
	for i, item := range u.held {
		c.held[i] = item.Clone()
	}
	return &c
}

func (u *User) indexOf(item *catalog.Item) int {
	for i, h := range u.held {
		if h == item || h.Key() == item.Key() {
			return i
		}
	}
	return -1
}
