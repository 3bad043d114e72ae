package library

import (
	"context"
	"fmt"
	"log/slog"

	"library-engine/internal/domain/catalog"
	"library-engine/internal/domain/loan"
	"library-engine/internal/domain/member"
	"library-engine/internal/pkg/dates"
)

// FileReport counts the records accepted and rejected from one backing file.
type FileReport struct {
	Loaded  int
	Skipped int
}

type LoadReport struct {
	Books     FileReport
	CDs       FileReport
	Users     FileReport
	BookLoans FileReport
	CDLoans   FileReport
}

func (r LoadReport) TotalSkipped() int {
	return r.Books.Skipped + r.CDs.Skipped + r.Users.Skipped + r.BookLoans.Skipped + r.CDLoans.Skipped
}

// Load replaces the in-memory state with the contents of the repositories.
// Malformed lines and loans whose user or item is unknown are skipped and
// counted. Nothing is replaced when a repository fails.
func (s *service) Load(ctx context.Context) (LoadReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report LoadReport

	books, booksSkipped, err := s.repos.Books.Load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load books", slog.Any("error", err))
		return report, fmt.Errorf("failed to load books: %w", err)
	}
	cds, cdsSkipped, err := s.repos.CDs.Load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load CDs", slog.Any("error", err))
		return report, fmt.Errorf("failed to load cds: %w", err)
	}
	users, usersSkipped, err := s.repos.Users.Load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load users", slog.Any("error", err))
		return report, fmt.Errorf("failed to load users: %w", err)
	}
	bookLoans, bookLoansSkipped, err := s.repos.BookLoans.Load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load book loans", slog.Any("error", err))
		return report, fmt.Errorf("failed to load book loans: %w", err)
	}
	cdLoans, cdLoansSkipped, err := s.repos.CDLoans.Load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load CD loans", slog.Any("error", err))
		return report, fmt.Errorf("failed to load cd loans: %w", err)
	}

	s.books.reset()
	s.cds.reset()
	s.users.reset()
	s.loans = make(map[catalog.Kind][]*loan.Loan)

	report.Books = fillShelf(s.books, books, booksSkipped)
	report.CDs = fillShelf(s.cds, cds, cdsSkipped)

	report.Users.Skipped = usersSkipped
	for _, u := range users {
		if !s.users.add(u) {
			report.Users.Skipped++
			continue
		}
		report.Users.Loaded++
	}

	report.BookLoans = s.restoreLoans(catalog.KindBook, bookLoans, bookLoansSkipped)
	report.CDLoans = s.restoreLoans(catalog.KindCD, cdLoans, cdLoansSkipped)

	s.logger.InfoContext(ctx, "Library loaded",
		"books", report.Books.Loaded,
		"cds", report.CDs.Loaded,
		"users", report.Users.Loaded,
		"bookLoans", report.BookLoans.Loaded,
		"cdLoans", report.CDLoans.Loaded,
	)
	if skipped := report.TotalSkipped(); skipped > 0 {
		s.logger.WarnContext(ctx, "Skipped records while loading", "skipped", skipped)
	}
	return report, nil
}

func fillShelf(sh *shelf, items []*catalog.Item, skipped int) FileReport {
	report := FileReport{Skipped: skipped}
	for _, item := range items {
		if !sh.add(item) {
			report.Skipped++
			continue
		}
		report.Loaded++
	}
	return report
}

// restoreLoans resolves each record against the loaded users and items.
// A loan only counts as active while its item is still on loan with the same
// due date. When several records claim the same item the latest one wins.
func (s *service) restoreLoans(kind catalog.Kind, records []loan.Record, skipped int) FileReport {
	report := FileReport{Skipped: skipped}
	sh := s.shelfFor(kind)

	type resolved struct {
		rec    loan.Record
		user   *member.User
		item   *catalog.Item
		active bool
	}
	var rows []resolved
	lastActive := make(map[string]int)

	for _, rec := range records {
		user, ok := s.users.get(rec.UserName)
		if !ok {
			report.Skipped++
			continue
		}
		item, ok := sh.get(rec.ItemID)
		if !ok {
			report.Skipped++
			continue
		}

		active := stillOnLoan(item, rec)
		if rec.HasActive {
			active = rec.Active && active
		}
		if active {
			if prev, seen := lastActive[item.ID]; seen {
				rows[prev].active = false
			}
			lastActive[item.ID] = len(rows)
		}
		rows = append(rows, resolved{rec: rec, user: user, item: item, active: active})
	}

	loans := make([]*loan.Loan, 0, len(rows))
	for _, row := range rows {
		loans = append(loans, loan.Restore(row.user, row.item, row.rec.BorrowDate, row.rec.DueDate, row.active))
	}
	s.loans[kind] = loans
	report.Loaded = len(loans)
	return report
}

func stillOnLoan(item *catalog.Item, rec loan.Record) bool {
	due := item.DueDate()
	return !item.Available() && due != nil && dates.Between(*due, rec.DueDate) == 0
}
