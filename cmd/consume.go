package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"library-engine/internal/event"
	"library-engine/internal/notify"

	"github.com/spf13/cobra"
)

var consumeCmd = &cobra.Command{
	Use:   "consume-reminders",
	Short: "Consume published overdue reminders and deliver them until interrupted",
	RunE:  runConsume,
}

func runConsume(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := initializeApp(configPath)
	if err != nil {
		return err
	}
	if !cfg.RabbitMQ.Enabled {
		return errors.New("rabbitmq must be enabled to consume reminders")
	}

	uri, err := rabbitMQURI(cfg.RabbitMQ)
	if err != nil {
		return err
	}
	conn, err := connectRabbitMQ(uri, logger)
	if err != nil {
		return err
	}
	defer closeRabbitMQConnection(conn, logger)

	handler := event.NewReminderEventHandler(notify.NewLogChannel(logger), logger)
	consumer, err := event.NewReminderConsumer(conn,
		cfg.RabbitMQ.ExchangeName, cfg.RabbitMQ.QueueName, cfg.RabbitMQ.ConsumerTag,
		handler.HandleDelivery, logger)
	if err != nil {
		logger.Error("Failed to create RabbitMQ consumer", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil {
		logger.Error("Failed to start RabbitMQ consumer", "error", err)
		return err
	}
	logger.Info("Consumer started. Waiting for reminders or shutdown signal...")

	waitForShutdownSignal(ctx, consumer.Stop)
	logger.Info("Reminder consumer shut down gracefully.")
	return nil
}

func waitForShutdownSignal(ctx context.Context, stop func()) {
	<-ctx.Done()
	stop()
}
