package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"library-engine/internal/domain/loan"
	"library-engine/internal/pkg/dates"

	"github.com/spf13/cobra"
)

var overdueKind string

var overdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "List overdue loans with their accrued fines",
	RunE:  runOverdue,
}

func init() {
	overdueCmd.Flags().StringVar(&overdueKind, "kind", "", "only list book or cd loans")
}

func runOverdue(cmd *cobra.Command, _ []string) error {
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

	var overdue []*loan.Loan
	switch overdueKind {
	case "":
		overdue = svc.AllOverdueLoans(cmd.Context())
	case "book":
		overdue = svc.OverdueLoans(cmd.Context())
	case "cd":
		overdue = svc.OverdueCDLoans(cmd.Context())
	default:
		return fmt.Errorf("unknown kind %q, want book or cd", overdueKind)
	}

	return printOverdue(cmd.OutOrStdout(), overdue, time.Now())
}

func printOverdue(out io.Writer, overdue []*loan.Loan, asOf time.Time) error {
	if len(overdue) == 0 {
		_, err := fmt.Fprintln(out, "No overdue loans.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tUSER\tITEM\tTITLE\tDUE\tDAYS\tFINE")
	for _, l := range overdue {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			l.Kind(), l.User.Name, l.Item.ID, l.Item.Title, dates.Format(l.DueDate),
			l.OverdueDays(asOf), l.CalculateFine(asOf).StringFixed(2))
	}
	return tw.Flush()
}
