package library

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"library-engine/internal/domain/member"
	"library-engine/internal/infrastructure/monitoring"
	"library-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

func (s *service) RegisterUser(ctx context.Context, name, email string) (*member.User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewValidationError("name", "name is required")
	}
	if strings.Contains(name, ",") || strings.Contains(email, ",") {
		return nil, apperrors.NewValidationError("name", "commas are not allowed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := member.NewUser(name, email)
	if !s.users.add(user) {
		s.logger.WarnContext(ctx, "Rejected duplicate user", "user", user.Name)
		return nil, fmt.Errorf("%w: user %s", apperrors.ErrAlreadyExists, user.Name)
	}

	if err := s.repos.Users.SaveAll(ctx, s.users.all()); err != nil {
		s.users.remove(user)
		s.logger.ErrorContext(ctx, "Failed to persist users", slog.Any("error", err))
		return nil, err
	}

	s.logger.InfoContext(ctx, "User registered", "user", user.Name)
	return user.Clone(), nil
}

func (s *service) User(_ context.Context, name string) (*member.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.lookupUser(name)
	if err != nil {
		return nil, err
	}
	return user.Clone(), nil
}

func (s *service) Users(_ context.Context) []*member.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.users.all()
	out := make([]*member.User, len(users))
	for i, u := range users {
		out[i] = u.Clone()
	}
	return out
}

func (s *service) PayFine(ctx context.Context, name string, amount decimal.Decimal) (*member.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.lookupUser(name)
	if err != nil {
		return nil, err
	}

	before := user.FineBalance()
	if err := user.PayFine(amount); err != nil {
		return nil, err
	}

	if err := s.repos.Users.SaveAll(ctx, s.users.all()); err != nil {
		_ = user.RestoreBalance(before)
		s.logger.ErrorContext(ctx, "Failed to persist users", slog.Any("error", err))
		return nil, err
	}

	paid := before.Sub(user.FineBalance())
	monitoring.RecordFinePaid(paid.InexactFloat64())
	s.logger.InfoContext(ctx, "Fine paid", "user", user.Name, "paid", paid.String(), "balance", user.FineBalance().String())
	return user.Clone(), nil
}

// UnregisterUser removes a user with no active loans and no outstanding fine.
func (s *service) UnregisterUser(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.lookupUser(name)
	if err != nil {
		return err
	}

	if s.hasActiveLoan(user) || !user.CanBeUnregistered() {
		s.logger.WarnContext(ctx, "Refused to unregister user with open obligations", "user", user.Name)
		return fmt.Errorf("%w: user %s has active loans or unpaid fines", apperrors.ErrConflict, user.Name)
	}

	idx := s.users.remove(user)
	if err := s.repos.Users.SaveAll(ctx, s.users.all()); err != nil {
		s.users.insert(idx, user)
		s.logger.ErrorContext(ctx, "Failed to persist users", slog.Any("error", err))
		return err
	}

	s.logger.InfoContext(ctx, "User unregistered", "user", user.Name)
	return nil
}

func (s *service) lookupUser(name string) (*member.User, error) {
	user, ok := s.users.get(name)
	if !ok {
		return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, name)
	}
	return user, nil
}

func (s *service) hasActiveLoan(user *member.User) bool {
	for _, loans := range s.loans {
		for _, l := range loans {
			if l.Active() && l.User == user {
				return true
			}
		}
	}
	return false
}
