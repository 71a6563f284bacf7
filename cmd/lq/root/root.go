package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const Version = "0.1.0"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lq",
		Short:         "LifeQuest companion CLI",
		Long:          "lq inspects the LifeQuest leveling curve, suggests missions and keeps a local daily checklist.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	cmd.PersistentFlags().String("db", "", "checklist database path (default ~/.lifequest.db)")

	cmd.AddCommand(
		newCurveCmd(),
		newGenerateCmd(),
		newChecklistCmd(),
	)
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error: "+err.Error())
		os.Exit(1)
	}
}
