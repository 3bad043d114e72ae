package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"library-engine/internal/notify"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	routingKeyPrefix = "library.reminder."
	publisherAppID   = "library-engine"
)

// AMQPChannel is the subset of *amqp.Channel the publisher uses.
type AMQPChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// ChannelOpener opens a fresh AMQP channel per publish.
type ChannelOpener interface {
	OpenChannel() (AMQPChannel, error)
}

type connectionOpener struct {
	conn *amqp.Connection
}

func (o connectionOpener) OpenChannel() (AMQPChannel, error) {
	ch, err := o.conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// FromConnection adapts an AMQP connection to a ChannelOpener.
func FromConnection(conn *amqp.Connection) ChannelOpener {
	return connectionOpener{conn: conn}
}

// OverdueReminderEvent is the JSON body published for each reminder.
type OverdueReminderEvent struct {
	ReminderID   string    `json:"reminderId"`
	UserName     string    `json:"userName"`
	Email        string    `json:"email,omitempty"`
	Kind         string    `json:"kind"`
	ItemID       string    `json:"itemId"`
	Title        string    `json:"title"`
	DueDate      string    `json:"dueDate"`
	OverdueDays  int       `json:"overdueDays"`
	OverdueCount int       `json:"overdueCount"`
	AccruedFine  string    `json:"accruedFine"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}

func NewOverdueReminderEvent(r notify.Reminder) OverdueReminderEvent {
	return OverdueReminderEvent{
		ReminderID:   r.ID,
		UserName:     r.UserName,
		Email:        r.Email,
		Kind:         r.Kind,
		ItemID:       r.ItemID,
		Title:        r.Title,
		DueDate:      r.DueDate.Format("2006-01-02"),
		OverdueDays:  r.OverdueDays,
		OverdueCount: r.OverdueCount,
		AccruedFine:  r.AccruedFine.String(),
		Message:      r.Message,
		Timestamp:    r.CreatedAt,
	}
}

// RabbitMQReminderPublisher is a reminder channel that publishes to a topic
// exchange with routing key library.reminder.<kind>.
type RabbitMQReminderPublisher struct {
	opener       ChannelOpener
	exchangeName string
	logger       *slog.Logger
}

var _ notify.Channel = (*RabbitMQReminderPublisher)(nil)

func NewRabbitMQReminderPublisher(opener ChannelOpener, exchangeName string, logger *slog.Logger) (*RabbitMQReminderPublisher, error) {
	if opener == nil {
		return nil, fmt.Errorf("RabbitMQ channel opener cannot be nil")
	}
	if exchangeName == "" {
		return nil, fmt.Errorf("RabbitMQ exchange name cannot be empty")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	tempCh, err := opener.OpenChannel()
	if err != nil {
		return nil, fmt.Errorf("failed to open temporary channel for exchange declaration: %w", err)
	}
	defer tempCh.Close()

	err = tempCh.ExchangeDeclare(
		exchangeName,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchangeName, err)
	}
	logger.Info("Ensured RabbitMQ exchange exists", "exchange", exchangeName, "type", amqp.ExchangeTopic)

	return &RabbitMQReminderPublisher{
		opener:       opener,
		exchangeName: exchangeName,
		logger:       logger.With("component", "RabbitMQReminderPublisher", "exchange", exchangeName),
	}, nil
}

func (p *RabbitMQReminderPublisher) Name() string { return "rabbitmq" }

func (p *RabbitMQReminderPublisher) Notify(ctx context.Context, r notify.Reminder) error {
	return p.publish(ctx, routingKeyPrefix+r.Kind, r.ID, NewOverdueReminderEvent(r))
}

func (p *RabbitMQReminderPublisher) publish(ctx context.Context, routingKey, messageID string, payload any) error {
	logCtx := p.logger.With(slog.String("routingKey", routingKey))

	channel, err := p.opener.OpenChannel()
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to open RabbitMQ channel", slog.Any("error", err))
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer channel.Close()

	body, err := json.Marshal(payload)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to marshal event payload to JSON", slog.Any("error", err))
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	logCtx.DebugContext(ctx, "Publishing message", "bodySize", len(body))

	err = channel.PublishWithContext(
		ctx,
		p.exchangeName,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Timestamp:    time.Now(),
			Body:         body,
			AppId:        publisherAppID,
		},
	)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to publish message to RabbitMQ", slog.Any("error", err))
		return fmt.Errorf("failed to publish message: %w", err)
	}

	logCtx.InfoContext(ctx, "Successfully published message", "messageID", messageID)
	return nil
}
