package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"library-engine/internal/infrastructure/monitoring"
	"library-engine/internal/notify"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

const consumerMetricChannel = "consumer"

// ReminderEventHandler delivers consumed reminder events to a notify channel.
// Malformed events are dropped. A delivery that fails is requeued once.
type ReminderEventHandler struct {
	channel notify.Channel
	logger  *slog.Logger
}

func NewReminderEventHandler(channel notify.Channel, logger *slog.Logger) *ReminderEventHandler {
	if channel == nil || logger == nil {
		panic("ReminderEventHandler dependencies cannot be nil")
	}
	return &ReminderEventHandler{
		channel: channel,
		logger:  logger.With("component", "ReminderEventHandler", "channel", channel.Name()),
	}
}

func (h *ReminderEventHandler) HandleDelivery(ctx context.Context, d amqp.Delivery) {
	logCtx := h.logger.With(slog.Uint64("deliveryTag", d.DeliveryTag), slog.String("routingKey", d.RoutingKey))

	if !strings.HasPrefix(d.RoutingKey, routingKeyPrefix) {
		logCtx.WarnContext(ctx, "Received message with unknown routing key. Discarding.")
		_ = d.Reject(false)
		monitoring.RecordReminder(consumerMetricChannel, "rejected")
		return
	}

	var evt OverdueReminderEvent
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		logCtx.ErrorContext(ctx, "Failed to unmarshal OverdueReminderEvent", "error", err, "body", string(d.Body))
		_ = d.Nack(false, false)
		monitoring.RecordReminder(consumerMetricChannel, "rejected")
		return
	}
	reminder, err := evt.Reminder()
	if err != nil {
		logCtx.ErrorContext(ctx, "Discarding unreadable reminder event", "error", err)
		_ = d.Nack(false, false)
		monitoring.RecordReminder(consumerMetricChannel, "rejected")
		return
	}

	logCtx = logCtx.With(slog.String("reminderID", reminder.ID), slog.String("user", reminder.UserName))
	if err := h.channel.Notify(ctx, reminder); err != nil {
		requeue := !d.Redelivered
		logCtx.ErrorContext(ctx, "Failed to deliver reminder", "error", err, "requeue", requeue)
		_ = d.Nack(false, requeue)
		monitoring.RecordReminder(consumerMetricChannel, "failure")
		return
	}

	if err := d.Ack(false); err != nil {
		logCtx.ErrorContext(ctx, "Failed to acknowledge message after delivery", "error", err)
		return
	}
	monitoring.RecordReminder(consumerMetricChannel, "success")
	logCtx.InfoContext(ctx, "Delivered consumed reminder")
}

// Reminder converts the wire event back into a reminder.
func (e OverdueReminderEvent) Reminder() (notify.Reminder, error) {
	due, err := time.Parse(time.DateOnly, e.DueDate)
	if err != nil {
		return notify.Reminder{}, fmt.Errorf("invalid due date %q: %w", e.DueDate, err)
	}
	fine, err := decimal.NewFromString(e.AccruedFine)
	if err != nil {
		return notify.Reminder{}, fmt.Errorf("invalid accrued fine %q: %w", e.AccruedFine, err)
	}
	return notify.Reminder{
		ID:           e.ReminderID,
		UserName:     e.UserName,
		Email:        e.Email,
		Kind:         e.Kind,
		ItemID:       e.ItemID,
		Title:        e.Title,
		DueDate:      due,
		OverdueDays:  e.OverdueDays,
		OverdueCount: e.OverdueCount,
		AccruedFine:  fine,
		Message:      e.Message,
		CreatedAt:    e.Timestamp,
	}, nil
}
