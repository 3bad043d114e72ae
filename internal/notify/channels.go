package notify

import (
	"context"
	"log/slog"
	"sync"
)

// LogChannel writes each reminder to the structured log.
type LogChannel struct {
	logger *slog.Logger
}

func NewLogChannel(logger *slog.Logger) *LogChannel {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &LogChannel{logger: logger.With("component", "reminderLog")}
}

func (c *LogChannel) Name() string { return "log" }

func (c *LogChannel) Notify(ctx context.Context, r Reminder) error {
	c.logger.InfoContext(ctx, r.Message,
		"reminderID", r.ID,
		"user", r.UserName,
		"kind", r.Kind,
		"itemID", r.ItemID,
		"overdueDays", r.OverdueDays,
		"overdueCount", r.OverdueCount,
		"accruedFine", r.AccruedFine.String(),
	)
	return nil
}

// RecordingChannel keeps every reminder in memory. Set Err to make it fail.
type RecordingChannel struct {
	name string

	mu        sync.Mutex
	reminders []Reminder
	Err       error
}

func NewRecordingChannel(name string) *RecordingChannel {
	return &RecordingChannel{name: name}
}

func (c *RecordingChannel) Name() string { return c.name }

func (c *RecordingChannel) Notify(_ context.Context, r Reminder) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.reminders = append(c.reminders, r)
	return nil
}

func (c *RecordingChannel) Reminders() []Reminder {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Reminder, len(c.reminders))
	copy(out, c.reminders)
	return out
}
