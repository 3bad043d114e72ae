package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"library-engine/internal/domain/loan"
	"library-engine/internal/infrastructure/monitoring"
	"library-engine/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reminder is the message pushed to every channel for one overdue loan.
type Reminder struct {
	ID           string          `json:"id"`
	UserName     string          `json:"userName"`
	Email        string          `json:"email,omitempty"`
	Kind         string          `json:"kind"`
	ItemID       string          `json:"itemId"`
	Title        string          `json:"title"`
	DueDate      time.Time       `json:"dueDate"`
	OverdueDays  int             `json:"overdueDays"`
	OverdueCount int             `json:"overdueCount"`
	AccruedFine  decimal.Decimal `json:"accruedFine"`
	Message      string          `json:"message"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Channel delivers reminders somewhere outside the library.
type Channel interface {
	Name() string
	Notify(ctx context.Context, r Reminder) error
}

type Dispatcher struct {
	mu       sync.RWMutex
	channels []Channel
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Dispatcher)

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func NewDispatcher(logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		panic("logger cannot be nil")
	}
	d := &Dispatcher{
		logger: logger.With("component", "reminderDispatcher"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds a channel. Channel names are unique.
func (d *Dispatcher) Register(ch Channel) error {
	if ch == nil {
		return fmt.Errorf("%w: channel cannot be nil", apperrors.ErrInvalidArgument)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.channels {
		if existing.Name() == ch.Name() {
			return fmt.Errorf("%w: notification channel %s", apperrors.ErrAlreadyExists, ch.Name())
		}
	}
	d.channels = append(d.channels, ch)
	d.logger.Info("Registered notification channel", "channel", ch.Name())
	return nil
}

func (d *Dispatcher) Channels() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, len(d.channels))
	for i, ch := range d.channels {
		names[i] = ch.Name()
	}
	return names
}

// SendReminders pushes one reminder per overdue loan to every channel. It
// reports false without doing anything when there is nothing overdue. A
// failing channel does not stop delivery to the others; every failure is
// joined into the returned error.
func (d *Dispatcher) SendReminders(ctx context.Context, overdue []*loan.Loan) (bool, error) {
	if len(overdue) == 0 {
		d.logger.DebugContext(ctx, "No overdue loans, nothing to send")
		return false, nil
	}

	d.mu.RLock()
	channels := make([]Channel, len(d.channels))
	copy(channels, d.channels)
	d.mu.RUnlock()

	today := d.now()
	var errs []error
	for _, l := range overdue {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		r := d.compose(l, today)
		for _, ch := range channels {
			if err := ch.Notify(ctx, r); err != nil {
				monitoring.RecordReminder(ch.Name(), "failure")
				d.logger.ErrorContext(ctx, "Failed to deliver reminder",
					"channel", ch.Name(), "user", r.UserName, "itemID", r.ItemID, slog.Any("error", err))
				errs = append(errs, fmt.Errorf("channel %s: %w", ch.Name(), err))
				continue
			}
			monitoring.RecordReminder(ch.Name(), "success")
		}
	}

	d.logger.InfoContext(ctx, "Reminders dispatched", "loans", len(overdue), "channels", len(channels), "failures", len(errs))
	return true, errors.Join(errs...)
}

func (d *Dispatcher) compose(l *loan.Loan, today time.Time) Reminder {
	count := l.User.OverdueCount(today)
	return Reminder{
		ID:           uuid.NewString(),
		UserName:     l.User.Name,
		Email:        l.User.Email,
		Kind:         l.Kind().String(),
		ItemID:       l.Item.ID,
		Title:        l.Item.Title,
		DueDate:      l.DueDate,
		OverdueDays:  l.OverdueDays(today),
		OverdueCount: count,
		AccruedFine:  l.CalculateFine(today),
		Message: fmt.Sprintf("Dear %s, you have %d overdue item(s). %q (%s) was due on %s.",
			l.User.Name, count, l.Item.Title, l.Item.ID, l.DueDate.Format("2006-01-02")),
		CreatedAt: today,
	}
}
