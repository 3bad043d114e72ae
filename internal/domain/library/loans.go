package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"library-engine/internal/domain/catalog"
	"library-engine/internal/domain/loan"
	"library-engine/internal/domain/member"
	"library-engine/internal/infrastructure/monitoring"
	"library-engine/internal/pkg/apperrors"
)

func (s *service) BorrowBook(ctx context.Context, userName, isbn string) (*loan.Loan, error) {
	return s.borrow(ctx, catalog.KindBook, userName, isbn)
}

func (s *service) BorrowCD(ctx context.Context, userName, cdID string) (*loan.Loan, error) {
	return s.borrow(ctx, catalog.KindCD, userName, cdID)
}

func (s *service) borrow(ctx context.Context, kind catalog.Kind, userName, id string) (l *loan.Loan, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		if err != nil {
			monitoring.RecordLoanRejected(kind.String(), rejectionReason(err))
		}
	}()

	user, item, err := s.resolve(kind, userName, id)
	if err != nil {
		s.logger.WarnContext(ctx, "Borrow refused", "kind", kind.String(), "user", userName, "id", id, slog.Any("error", err))
		return nil, err
	}

	l, err = loan.Open(user, item, s.now())
	if err != nil {
		s.logger.WarnContext(ctx, "Borrow refused", "kind", kind.String(), "user", user.Name, "id", item.ID, slog.Any("error", err))
		return nil, err
	}
	s.loans[kind] = append(s.loans[kind], l)

	if err := s.persistBorrow(ctx, kind, l); err != nil {
		l.Return()
		s.loans[kind] = slices.DeleteFunc(s.loans[kind], func(x *loan.Loan) bool { return x == l })
		s.logger.ErrorContext(ctx, "Failed to persist loan, borrow rolled back", "kind", kind.String(), slog.Any("error", err))
		// The catalog may already be on disk with the item out.
		if rbErr := s.catalogRepo(kind).SaveAll(ctx, s.shelfFor(kind).all()); rbErr != nil {
			s.logger.ErrorContext(ctx, "Failed to restore catalog after rollback", "kind", kind.String(), "id", item.ID, slog.Any("error", rbErr))
		}
		return nil, err
	}

	monitoring.RecordLoanOpened(kind.String())
	s.logger.InfoContext(ctx, "Loan opened", "kind", kind.String(), "user", user.Name, "id", item.ID, "dueDate", l.DueDate.Format("2006-01-02"))
	return l.Clone(), nil
}

// persistBorrow writes the catalog and records the loan. Book loans are
// appended as one line; CD loans rewrite their file.
func (s *service) persistBorrow(ctx context.Context, kind catalog.Kind, l *loan.Loan) error {
	if err := s.catalogRepo(kind).SaveAll(ctx, s.shelfFor(kind).all()); err != nil {
		return err
	}
	if kind == catalog.KindCD {
		return s.loanRepo(kind).SaveAll(ctx, s.loans[kind])
	}
	return s.loanRepo(kind).Append(ctx, l)
}

func (s *service) ReturnBook(ctx context.Context, userName, isbn string) (*Receipt, error) {
	return s.giveBack(ctx, catalog.KindBook, userName, isbn)
}

func (s *service) ReturnCD(ctx context.Context, userName, cdID string) (*Receipt, error) {
	return s.giveBack(ctx, catalog.KindCD, userName, cdID)
}

// giveBack closes the active loan matching user and item and charges the fine
// accrued up to today.
func (s *service) giveBack(ctx context.Context, kind catalog.Kind, userName, id string) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, item, err := s.resolve(kind, userName, id)
	if err != nil {
		return nil, err
	}

	l := s.activeLoan(kind, user, item)
	if l == nil {
		s.logger.WarnContext(ctx, "No active loan to return", "kind", kind.String(), "user", user.Name, "id", item.ID)
		return nil, fmt.Errorf("%w: no active %s loan of %s for %s", apperrors.ErrNotFound, kind, item.ID, user.Name)
	}

	today := s.now()
	receipt := &Receipt{OverdueDays: l.OverdueDays(today), Fine: l.CalculateFine(today)}
	l.Return()
	if err := user.ChargeFine(receipt.Fine); err != nil {
		return nil, err
	}

	if err := s.persistReturn(ctx, kind); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist return", "kind", kind.String(), slog.Any("error", err))
		return nil, err
	}

	monitoring.RecordLoanReturned(kind.String())
	monitoring.RecordFineCharged(kind.String(), receipt.Fine.InexactFloat64())
	s.logger.InfoContext(ctx, "Loan returned", "kind", kind.String(), "user", user.Name, "id", item.ID,
		"overdueDays", receipt.OverdueDays, "fine", receipt.Fine.String())

	receipt.Loan = l.Clone()
	return receipt, nil
}

func (s *service) persistReturn(ctx context.Context, kind catalog.Kind) error {
	if err := s.catalogRepo(kind).SaveAll(ctx, s.shelfFor(kind).all()); err != nil {
		return err
	}
	if kind == catalog.KindCD {
		if err := s.loanRepo(kind).SaveAll(ctx, s.loans[kind]); err != nil {
			return err
		}
	}
	return s.repos.Users.SaveAll(ctx, s.users.all())
}

func (s *service) OverdueLoans(_ context.Context) []*loan.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overdue(s.now(), catalog.KindBook)
}

func (s *service) OverdueCDLoans(_ context.Context) []*loan.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overdue(s.now(), catalog.KindCD)
}

func (s *service) AllOverdueLoans(_ context.Context) []*loan.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overdue(s.now(), catalog.KindBook, catalog.KindCD)
}

func (s *service) overdue(asOf time.Time, kinds ...catalog.Kind) []*loan.Loan {
	var out []*loan.Loan
	for _, kind := range kinds {
		for _, l := range s.loans[kind] {
			if l.IsOverdue(asOf) {
				out = append(out, l.Clone())
			}
		}
	}
	return out
}

// LoansFor returns every loan of the user, active or returned, books first.
func (s *service) LoansFor(_ context.Context, userName string) ([]*loan.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.lookupUser(userName)
	if err != nil {
		return nil, err
	}

	var out []*loan.Loan
	for _, kind := range []catalog.Kind{catalog.KindBook, catalog.KindCD} {
		for _, l := range s.loans[kind] {
			if l.User == user {
				out = append(out, l.Clone())
			}
		}
	}
	return out, nil
}

func (s *service) OverdueCount(_ context.Context, userName string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.lookupUser(userName)
	if err != nil {
		return 0, err
	}
	return user.OverdueCount(s.now()), nil
}

func (s *service) resolve(kind catalog.Kind, userName, id string) (*member.User, *catalog.Item, error) {
	user, err := s.lookupUser(userName)
	if err != nil {
		return nil, nil, err
	}
	item, ok := s.shelfFor(kind).get(id)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s %s", apperrors.ErrNotFound, kind, id)
	}
	return user, item, nil
}

func (s *service) activeLoan(kind catalog.Kind, user *member.User, item *catalog.Item) *loan.Loan {
	for _, l := range s.loans[kind] {
		if l.Active() && l.Matches(user, item) {
			return l
		}
	}
	return nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrUnpaidFine):
		return "unpaid_fine"
	case errors.Is(err, apperrors.ErrOverdueItemHeld):
		return "overdue_item_held"
	case errors.Is(err, apperrors.ErrAlreadyBorrowed), errors.Is(err, apperrors.ErrItemUnavailable):
		return "item_unavailable"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrStorage):
		return "storage"
	default:
		return "other"
	}
}
