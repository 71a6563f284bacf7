package root

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/lifequest/lifequest-services/internal/tracker"
)

func openTracker(ctx context.Context, cmd *cobra.Command) (*tracker.Tracker, func(), error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		p, err := tracker.DefaultDBPath()
		if err != nil {
			return nil, nil, err
		}
		path = p
	}
	store, err := tracker.OpenSQLite(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = store.Close()
	}
	return tracker.New(store, time.Now), cleanup, nil
}

func newChecklistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checklist",
		Short: "Track how many missions you finished each day this month",
	}
	cmd.AddCommand(newChecklistTickCmd(), newChecklistSetCmd(), newChecklistShowCmd())
	return cmd
}

func newChecklistTickCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Add completed missions to today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			t, cleanup, err := openTracker(ctx, cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			rec, err := t.Tick(ctx, n)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d completed\n", rec.Date, rec.CompletedCount)
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", 1, "missions to add")
	return cmd
}

func newChecklistSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <YYYY-MM-DD> <count>",
		Short: "Overwrite the count of a day in the current month",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := time.ParseInLocation("2006-01-02", args[0], time.Local)
			if err != nil {
				return fmt.Errorf("invalid date %q, use YYYY-MM-DD", args[0])
			}
			var count int
			if _, err := fmt.Sscanf(args[1], "%d", &count); err != nil {
				return fmt.Errorf("invalid count %q", args[1])
			}

			ctx := context.Background()
			t, cleanup, err := openTracker(ctx, cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			rec, err := t.Set(ctx, date, count)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d completed\n", rec.Date, rec.CompletedCount)
			return nil
		},
	}
	return cmd
}

func newChecklistShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			t, cleanup, err := openTracker(ctx, cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			m, err := t.Current(ctx)
			if err != nil {
				return err
			}
			printMonth(cmd.OutOrStdout(), m)
			return nil
		},
	}
}

func printMonth(w io.Writer, m tracker.Month) {
	if m.Rolled {
		fmt.Fprintln(w, "A new month started; last month's checklist was cleared.")
	}
	fmt.Fprintf(w, "Checklist %s: %d completed over %d active days\n", m.Month, m.Total, m.ActiveDays)
	for _, d := range m.Days {
		fmt.Fprintf(w, "  %s  %d\n", d.Date, d.CompletedCount)
	}
}
