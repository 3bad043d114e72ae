package main

import (
	"fmt"

	"library-engine/internal/batch"

	"github.com/spf13/cobra"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send overdue reminders once and exit",
	RunE:  runRemind,
}

func runRemind(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := initializeApp(configPath)
	if err != nil {
		return err
	}

	store, err := openStorage(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	svc, err := initializeLibrary(cmd.Context(), store, logger)
	if err != nil {
		return err
	}
	dispatcher, rabbitConn, err := initializeNotifier(cfg, logger)
	if err != nil {
		return err
	}
	defer closeRabbitMQConnection(rabbitConn, logger)

	summary, err := batch.NewReminderJob(svc, dispatcher, cfg.Batch.ReminderTimeout, logger).Run(cmd.Context())
	fmt.Fprintf(cmd.OutOrStdout(), "overdue loans: %d, reminders sent: %t\n", summary.Overdue, summary.Sent)
	return err
}
