package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "library-engine",
	Short: "Library lending engine for books and CDs",
	Long: `library-engine keeps a catalog of books and CDs, the users who borrow them
and their loans in flat files. It serves an HTTP API for staff and sends
overdue reminders on a schedule.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "directory holding config.yml")
	rootCmd.AddCommand(serveCmd, remindCmd, overdueCmd, consumeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
