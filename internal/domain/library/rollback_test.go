package library

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"library-engine/internal/domain/catalog"
	"library-engine/internal/infrastructure/storage/flatfile"
	"library-engine/internal/pkg/apperrors"
	"library-engine/internal/pkg/dates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileService(dir string) Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repos := Repositories{
		Books:     flatfile.NewItemRepository(catalog.KindBook, dir, "books.txt", logger),
		CDs:       flatfile.NewItemRepository(catalog.KindCD, dir, "cds.txt", logger),
		Users:     flatfile.NewUserRepository(dir, "users.txt", logger),
		BookLoans: flatfile.NewLoanRepository(catalog.KindBook, dir, "loans.txt", logger),
		CDLoans:   flatfile.NewLoanRepository(catalog.KindCD, dir, "cd_loans.txt", logger),
	}
	return NewService(repos, logger)
}

func TestService_Borrow_FailedLoanWriteLeavesCatalogOnDiskAvailable(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	svc := fileService(dir)

	_, err := svc.AddBook(ctx, "Clean Code", "Robert Martin", "111")
	require.NoError(t, err)
	_, err = svc.RegisterUser(ctx, "Alice", "")
	require.NoError(t, err)

	// A directory in place of loans.txt makes the append fail after the
	// catalog has been written.
	loansPath := filepath.Join(dir, "loans.txt")
	require.NoError(t, os.Mkdir(loansPath, 0o755))

	_, err = svc.BorrowBook(ctx, "Alice", "111")
	require.ErrorIs(t, err, apperrors.ErrStorage)

	raw, err := os.ReadFile(filepath.Join(dir, "books.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Clean Code,Robert Martin,111,true,"+dates.Null+","+dates.Null, strings.TrimSpace(string(raw)))

	require.NoError(t, os.Remove(loansPath))

	restarted := fileService(dir)
	_, err = restarted.Load(ctx)
	require.NoError(t, err)

	book, err := restarted.Book(ctx, "111")
	require.NoError(t, err)
	assert.True(t, book.Available())

	l, err := restarted.BorrowBook(ctx, "Alice", "111")
	require.NoError(t, err)
	assert.Equal(t, "111", l.Item.ID)
}
