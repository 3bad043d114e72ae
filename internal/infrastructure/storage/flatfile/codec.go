package flatfile

import (
	"fmt"
	"strconv"
	"strings"

	"library-engine/internal/domain/catalog"
	"library-engine/internal/domain/loan"
	"library-engine/internal/domain/member"
	"library-engine/internal/domain/staff"
	"library-engine/internal/pkg/dates"

	"github.com/shopspring/decimal"
)

const (
	itemFields     = 6
	userFields     = 3
	bookLoanFields = 4
	cdLoanFields   = 5
	accountFields  = 3
)

// ParseResult is the outcome of decoding one persisted line. A skipped line
// carries the reason instead of a record; malformed input is never an error.
type ParseResult[T any] struct {
	Record  T
	Skipped bool
	Reason  string
}

func ok[T any](record T) ParseResult[T] {
	return ParseResult[T]{Record: record}
}

func skip[T any](format string, args ...any) ParseResult[T] {
	return ParseResult[T]{Skipped: true, Reason: fmt.Sprintf(format, args...)}
}

func splitFields(line string, want int) ([]string, bool) {
	if strings.TrimSpace(line) == "" {
		return nil, false
	}
	parts := strings.Split(line, ",")
	if len(parts) < want {
		return nil, false
	}
	fields := make([]string, want)
	for i := range fields {
		fields[i] = strings.TrimSpace(parts[i])
	}
	return fields, true
}

// ParseItem decodes title,creator,id,available,borrowDate|null,dueDate|null.
func ParseItem(kind catalog.Kind, line string) ParseResult[*catalog.Item] {
	f, valid := splitFields(line, itemFields)
	if !valid {
		return skip[*catalog.Item]("expected %d fields", itemFields)
	}
	if f[2] == "" {
		return skip[*catalog.Item]("empty identifier")
	}
	available, err := strconv.ParseBool(f[3])
	if err != nil {
		return skip[*catalog.Item]("invalid availability %q", f[3])
	}
	borrowDate, err := dates.ParseOptional(f[4])
	if err != nil {
		return skip[*catalog.Item]("invalid borrow date %q", f[4])
	}
	dueDate, err := dates.ParseOptional(f[5])
	if err != nil {
		return skip[*catalog.Item]("invalid due date %q", f[5])
	}

	var item *catalog.Item
	if kind == catalog.KindCD {
		item = catalog.NewCD(f[0], f[1], f[2])
	} else {
		item = catalog.NewBook(f[0], f[1], f[2])
	}
	if err := item.Restore(available, borrowDate, dueDate); err != nil {
		return skip[*catalog.Item]("%v", err)
	}
	return ok(item)
}

func FormatItem(item *catalog.Item) string {
	return strings.Join([]string{
		item.Title,
		item.Creator,
		item.ID,
		strconv.FormatBool(item.Available()),
		dates.FormatOptional(item.BorrowDate()),
		dates.FormatOptional(item.DueDate()),
	}, ",")
}

// ParseUser decodes name,email|null,fineBalance.
func ParseUser(line string) ParseResult[*member.User] {
	f, valid := splitFields(line, userFields)
	if !valid {
		return skip[*member.User]("expected %d fields", userFields)
	}
	if f[0] == "" {
		return skip[*member.User]("empty name")
	}
	email := f[1]
	if strings.EqualFold(email, dates.Null) {
		email = ""
	}
	balance, err := decimal.NewFromString(f[2])
	if err != nil {
		return skip[*member.User]("invalid fine balance %q", f[2])
	}

	user := member.NewUser(f[0], email)
	if err := user.RestoreBalance(balance); err != nil {
		return skip[*member.User]("%v", err)
	}
	return ok(user)
}

func FormatUser(user *member.User) string {
	email := user.Email
	if email == "" {
		email = dates.Null
	}
	return strings.Join([]string{user.Name, email, user.FineBalance().String()}, ",")
}

// ParseBookLoan decodes userName,isbn,borrowDate,dueDate. The book loan format
// has no active column.
func ParseBookLoan(line string) ParseResult[loan.Record] {
	f, valid := splitFields(line, bookLoanFields)
	if !valid {
		return skip[loan.Record]("expected %d fields", bookLoanFields)
	}
	rec, reason := parseLoanDates(f)
	if reason != "" {
		return skip[loan.Record]("%s", reason)
	}
	return ok(rec)
}

// ParseCDLoan decodes userName,cdId,borrowDate,dueDate,active.
func ParseCDLoan(line string) ParseResult[loan.Record] {
	f, valid := splitFields(line, cdLoanFields)
	if !valid {
		return skip[loan.Record]("expected %d fields", cdLoanFields)
	}
	rec, reason := parseLoanDates(f)
	if reason != "" {
		return skip[loan.Record]("%s", reason)
	}
	active, err := strconv.ParseBool(f[4])
	if err != nil {
		return skip[loan.Record]("invalid active flag %q", f[4])
	}
	rec.Active = active
	rec.HasActive = true
	return ok(rec)
}

func parseLoanDates(f []string) (loan.Record, string) {
	if f[0] == "" || f[1] == "" {
		return loan.Record{}, "empty user or item reference"
	}
	borrowDate, err := dates.Parse(f[2])
	if err != nil {
		return loan.Record{}, fmt.Sprintf("invalid borrow date %q", f[2])
	}
	dueDate, err := dates.Parse(f[3])
	if err != nil {
		return loan.Record{}, fmt.Sprintf("invalid due date %q", f[3])
	}
	return loan.Record{UserName: f[0], ItemID: f[1], BorrowDate: borrowDate, DueDate: dueDate}, ""
}

func FormatBookLoan(rec loan.Record) string {
	return strings.Join([]string{rec.UserName, rec.ItemID, dates.Format(rec.BorrowDate), dates.Format(rec.DueDate)}, ",")
}

func FormatCDLoan(rec loan.Record) string {
	return strings.Join([]string{
		rec.UserName,
		rec.ItemID,
		dates.Format(rec.BorrowDate),
		dates.Format(rec.DueDate),
		strconv.FormatBool(rec.Active),
	}, ",")
}

// ParseAccount decodes id,name,password.
func ParseAccount(line string) ParseResult[*staff.Account] {
	f, valid := splitFields(line, accountFields)
	if !valid {
		return skip[*staff.Account]("expected %d fields", accountFields)
	}
	if f[0] == "" {
		return skip[*staff.Account]("empty account id")
	}
	return ok(&staff.Account{ID: f[0], Name: f[1], Password: f[2]})
}
