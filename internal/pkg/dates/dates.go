// Package dates holds the calendar-day arithmetic shared by catalog items and loans.
package dates

import (
	"strings"
	"time"
)

// Layout is the year-month-day text form used in persisted records.
const Layout = "2006-01-02"

// Null is the persisted placeholder for an unset date.
const Null = "null"

// Day truncates t to midnight UTC of its calendar date in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the calendar day n days after t.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// Between returns the number of whole calendar days from a to b. It is negative
// when b is before a.
func Between(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

func Format(t time.Time) string {
	return t.Format(Layout)
}

// FormatOptional writes Null for a nil date.
func FormatOptional(t *time.Time) string {
	if t == nil {
		return Null
	}
	return Format(*t)
}

func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// ParseOptional maps Null (or an empty field) to nil.
func ParseOptional(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, Null) {
		return nil, nil
	}
	t, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
