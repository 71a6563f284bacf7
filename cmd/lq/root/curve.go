package root

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lifequest/lifequest-services/internal/progression"
)

func newCurveCmd() *cobra.Command {
	var from, to int
	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Print the XP required per level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from < 1 || to < from || to > progression.MaxLevel {
				return fmt.Errorf("levels must satisfy 1 <= from <= to <= %d", progression.MaxLevel)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "LEVEL\tTOTAL XP\tTO NEXT\t")
			for level := from; level <= to; level++ {
				fmt.Fprintf(w, "%d\t%d\t%d\t\n", level, progression.XPRequiredForLevel(level), progression.XPRangeForLevel(level))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&from, "from", 1, "first level")
	cmd.Flags().IntVar(&to, "to", 10, "last level")
	return cmd
}
