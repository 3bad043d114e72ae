package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"library-engine/internal/domain/loan"
	"library-engine/internal/infrastructure/monitoring"
)

type OverdueSource interface {
	AllOverdueLoans(ctx context.Context) []*loan.Loan
}

type ReminderSender interface {
	SendReminders(ctx context.Context, overdue []*loan.Loan) (bool, error)
}

// Summary is the outcome of one reminder run.
type Summary struct {
	Overdue  int
	Sent     bool
	Duration time.Duration
}

type ReminderJob struct {
	source  OverdueSource
	sender  ReminderSender
	timeout time.Duration
	logger  *slog.Logger
}

func NewReminderJob(source OverdueSource, sender ReminderSender, timeout time.Duration, logger *slog.Logger) *ReminderJob {
	if source == nil || sender == nil || logger == nil {
		panic("ReminderJob dependencies cannot be nil")
	}
	return &ReminderJob{
		source:  source,
		sender:  sender,
		timeout: timeout,
		logger:  logger.With("job", "OverdueReminders"),
	}
}

// Run collects every overdue loan and hands it to the sender. A zero timeout
// leaves ctx as is.
func (j *ReminderJob) Run(ctx context.Context) (Summary, error) {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting overdue reminder job.")

	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	overdue := j.source.AllOverdueLoans(ctx)
	monitoring.SetOverdueLoans(len(overdue))
	j.logger.InfoContext(ctx, "Fetched overdue loans.", slog.Int("count", len(overdue)))

	summary := Summary{Overdue: len(overdue)}
	sent, err := j.sender.SendReminders(ctx, overdue)
	summary.Sent = sent
	summary.Duration = time.Since(startTime)

	summaryLog := j.logger.With(
		slog.Duration("duration", summary.Duration),
		slog.Int("overdue_loans", summary.Overdue),
		slog.Bool("reminders_sent", summary.Sent),
	)
	if err != nil {
		summaryLog.WarnContext(ctx, "Overdue reminder job finished with errors.", slog.Any("error", err))
		return summary, fmt.Errorf("reminder job completed with errors: %w", err)
	}
	summaryLog.InfoContext(ctx, "Overdue reminder job finished successfully.")
	return summary, nil
}
