package flatfile

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"library-engine/internal/domain/catalog"
	"library-engine/internal/domain/loan"
	"library-engine/internal/domain/member"
	"library-engine/internal/domain/staff"
	"library-engine/internal/pkg/apperrors"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(b)
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFile_MissingFileReadsEmpty(t *testing.T) {
	f := NewFile(t.TempDir(), "books.txt", discardLogger())

	lines, err := f.ReadLines(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestFile_WriteThenAppend(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	f := NewFile(dir, "loans.txt", discardLogger())
	ctx := context.Background()

	require.NoError(t, f.WriteLines(ctx, []string{"a", "b"}))
	require.NoError(t, f.AppendLine(ctx, "c"))

	lines, err := f.ReadLines(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"a", "b", "c"}, lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, f.WriteLines(ctx, []string{"z"}))
	assert.Equal(t, "z\n", readFile(t, dir, "loans.txt"))
}

func TestFile_StorageErrors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	// A directory where the file should be makes reads fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "users.txt"), 0o755))
	_, err := NewFile(dir, "users.txt", discardLogger()).ReadLines(ctx)
	assert.ErrorIs(t, err, apperrors.ErrStorage)

	// A regular file where the data directory should be makes writes fail.
	blocker := filepath.Join(dir, "blocker")
	writeFile(t, dir, "blocker", "x")
	err = NewFile(blocker, "cds.txt", discardLogger()).WriteLines(ctx, []string{"x"})
	assert.ErrorIs(t, err, apperrors.ErrStorage)

	err = NewFile(blocker, "cds.txt", discardLogger()).AppendLine(ctx, "x")
	assert.ErrorIs(t, err, apperrors.ErrStorage)
}

func TestParseItem(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		skipped   bool
		available bool
	}{
		{"available book", "Clean Code,Robert Martin,111,true,null,null", false, true},
		{"borrowed book", "Dune,Frank Herbert,222,false,2024-01-01,2024-01-29", false, false},
		{"extra fields ignored", "Dune,Frank Herbert,222,true,null,null,extra", false, true},
		{"too few fields", "Dune,Frank Herbert,222", true, false},
		{"bad availability", "Dune,Frank Herbert,222,maybe,null,null", true, false},
		{"bad date", "Dune,Frank Herbert,222,false,yesterday,2024-01-29", true, false},
		{"available with dates", "Dune,Frank Herbert,222,true,2024-01-01,2024-01-29", true, false},
		{"empty id", "Dune,Frank Herbert, ,true,null,null", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseItem(catalog.KindBook, tt.line)
			assert.Equal(t, tt.skipped, res.Skipped)
			if tt.skipped {
				assert.NotEmpty(t, res.Reason)
				return
			}
			assert.Equal(t, tt.available, res.Record.Available())
		})
	}
}

func TestFormatItem(t *testing.T) {
	cd := catalog.NewCD("Kind of Blue", "Miles Davis", "CD-1")
	assert.Equal(t, "Kind of Blue,Miles Davis,CD-1,true,null,null", FormatItem(cd))

	require.NoError(t, cd.Borrow(date("2024-03-01")))
	assert.Equal(t, "Kind of Blue,Miles Davis,CD-1,false,2024-03-01,2024-03-08", FormatItem(cd))
}

func TestParseUser(t *testing.T) {
	res := ParseUser("Alice,null,12.5")
	require.False(t, res.Skipped)
	assert.Equal(t, "Alice", res.Record.Name)
	assert.Empty(t, res.Record.Email)
	assert.True(t, decimal.RequireFromString("12.5").Equal(res.Record.FineBalance()))

	assert.True(t, ParseUser("Bob,bob@example.com,-1").Skipped)
	assert.True(t, ParseUser("Bob,bob@example.com,lots").Skipped)
	assert.True(t, ParseUser("Bob").Skipped)

	assert.Equal(t, "Alice,null,12.5", FormatUser(res.Record))
	assert.Equal(t, "Bob,bob@example.com,0", FormatUser(member.NewUser("Bob", "bob@example.com")))
}

func TestParseLoans(t *testing.T) {
	book := ParseBookLoan("Alice,111,2024-01-01,2024-01-29")
	require.False(t, book.Skipped)
	want := loan.Record{UserName: "Alice", ItemID: "111", BorrowDate: date("2024-01-01"), DueDate: date("2024-01-29")}
	if diff := cmp.Diff(want, book.Record); diff != "" {
		t.Errorf("book loan mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Alice,111,2024-01-01,2024-01-29", FormatBookLoan(book.Record))

	cd := ParseCDLoan("Alice,CD-1,2024-01-01,2024-01-08,false")
	require.False(t, cd.Skipped)
	want = loan.Record{UserName: "Alice", ItemID: "CD-1", BorrowDate: date("2024-01-01"), DueDate: date("2024-01-08"), Active: false, HasActive: true}
	if diff := cmp.Diff(want, cd.Record); diff != "" {
		t.Errorf("cd loan mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Alice,CD-1,2024-01-01,2024-01-08,false", FormatCDLoan(cd.Record))

	assert.True(t, ParseBookLoan("Alice,111,2024-01-01").Skipped)
	assert.True(t, ParseCDLoan("Alice,CD-1,2024-01-01,2024-01-08").Skipped)
	assert.True(t, ParseCDLoan("Alice,CD-1,2024-01-01,2024-01-08,sometimes").Skipped)
	assert.True(t, ParseBookLoan(",111,2024-01-01,2024-01-29").Skipped)
}

func TestItemRepository_LenientLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "books.txt", strings.Join([]string{
		"",
		"Clean Code,Robert Martin,111,true,null,null",
		"broken line",
		"   ",
		"Dune,Frank Herbert,222,false,2024-01-01,2024-01-29",
	}, "\n")+"\n")

	repo := NewItemRepository(catalog.KindBook, dir, "books.txt", discardLogger())
	items, skipped, err := repo.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, skipped)
	require.Len(t, items, 2)
	assert.Equal(t, "111", items[0].ID)
	assert.Equal(t, "222", items[1].ID)
	assert.False(t, items[1].Available())
	assert.Equal(t, catalog.KindBook, repo.Kind())
}

func TestItemRepository_SaveAllRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	repo := NewItemRepository(catalog.KindCD, dir, "cds.txt", discardLogger())

	borrowed := catalog.NewCD("Blue Train", "John Coltrane", "CD-2")
	require.NoError(t, borrowed.Borrow(date("2024-02-01")))
	require.NoError(t, repo.SaveAll(ctx, []*catalog.Item{catalog.NewCD("Kind of Blue", "Miles Davis", "CD-1"), borrowed}))

	items, skipped, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, items, 2)
	assert.Equal(t, catalog.KindCD, items[1].Kind)
	assert.Equal(t, "2024-02-08", items[1].DueDate().Format("2006-01-02"))
}

func TestUserRepository_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	repo := NewUserRepository(dir, "users.txt", discardLogger())

	alice := member.NewUser("Alice", "")
	require.NoError(t, alice.ChargeFine(decimal.NewFromInt(30)))
	require.NoError(t, repo.SaveAll(ctx, []*member.User{alice, member.NewUser("Bob", "bob@example.com")}))
	assert.Equal(t, "Alice,null,30\nBob,bob@example.com,0\n", readFile(t, dir, "users.txt"))

	users, skipped, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, users, 2)
	assert.True(t, decimal.NewFromInt(30).Equal(users[0].FineBalance()))
	assert.Equal(t, "bob@example.com", users[1].Email)
}

func TestLoanRepository_BookAppendAndCDRewrite(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	day := date("2024-03-01")

	alice := member.NewUser("Alice", "")
	book := catalog.NewBook("Dune", "Frank Herbert", "222")
	cd := catalog.NewCD("Kind of Blue", "Miles Davis", "CD-1")

	bookLoan, err := loan.Open(alice, book, day)
	require.NoError(t, err)
	cdLoan, err := loan.Open(alice, cd, day)
	require.NoError(t, err)

	books := NewLoanRepository(catalog.KindBook, dir, "loans.txt", discardLogger())
	require.NoError(t, books.Append(ctx, bookLoan))
	require.NoError(t, books.Append(ctx, bookLoan))
	assert.Equal(t, "Alice,222,2024-03-01,2024-03-29\nAlice,222,2024-03-01,2024-03-29\n", readFile(t, dir, "loans.txt"))

	cds := NewLoanRepository(catalog.KindCD, dir, "cd_loans.txt", discardLogger())
	require.NoError(t, cds.Append(ctx, cdLoan))
	require.True(t, cdLoan.Return())
	require.NoError(t, cds.SaveAll(ctx, []*loan.Loan{cdLoan}))
	assert.Equal(t, "Alice,CD-1,2024-03-01,2024-03-08,false\n", readFile(t, dir, "cd_loans.txt"))

	records, skipped, err := cds.Load(ctx)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, records, 1)
	assert.True(t, records[0].HasActive)
	assert.False(t, records[0].Active)

	bookRecords, _, err := books.Load(ctx)
	require.NoError(t, err)
	require.Len(t, bookRecords, 2)
	assert.False(t, bookRecords[0].HasActive)
}

func TestAccountRepository_AssignsRole(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "admins.txt", "A1,Root,s3cret\nbad\n")

	repo := NewAccountRepository(staff.RoleAdmin, dir, "admins.txt", discardLogger())
	accounts, skipped, err := repo.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, skipped)
	require.Len(t, accounts, 1)
	assert.Equal(t, staff.Account{ID: "A1", Name: "Root", Password: "s3cret", Role: staff.RoleAdmin}, *accounts[0])
	assert.Equal(t, staff.RoleAdmin, repo.Role())
}
