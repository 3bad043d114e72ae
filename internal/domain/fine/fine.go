package fine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Strategy converts a count of overdue days into a fine. The set of
// strategies is closed; dispatch happens on the tag.
type Strategy int

const (
	Book Strategy = iota + 1
	CD
)

var (
	bookRatePerDay = decimal.NewFromInt(10)
	cdRatePerDay   = decimal.NewFromInt(20)
)

func (s Strategy) String() string {
	switch s {
	case Book:
		return "book"
	case CD:
		return "cd"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// RatePerDay returns the amount charged per overdue day.
func (s Strategy) RatePerDay() decimal.Decimal {
	switch s {
	case Book:
		return bookRatePerDay
	case CD:
		return cdRatePerDay
	default:
		return decimal.Zero
	}
}

// Calculate returns the fine for overdueDays. Negative counts are treated as zero.
func (s Strategy) Calculate(overdueDays int) decimal.Decimal {
	if overdueDays <= 0 {
		return decimal.Zero
	}
	return s.RatePerDay().Mul(decimal.NewFromInt(int64(overdueDays)))
}
