package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lifequest/lifequest-services/internal/progression"
)

func newGenerateCmd() *cobra.Command {
	var mind, body, social, finance int
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Suggest a mission for the weakest attribute",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs := progression.NewAttributes()
			attrs[progression.AttributeMind] = mind
			attrs[progression.AttributeBody] = body
			attrs[progression.AttributeSocial] = social
			attrs[progression.AttributeFinance] = finance
			for a, v := range attrs {
				if v < 0 {
					return fmt.Errorf("%s must not be negative", a)
				}
			}

			m := progression.NewGenerator().Generate(attrs)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", m.Title)
			fmt.Fprintf(out, "  attribute:  %s\n", m.Attribute)
			fmt.Fprintf(out, "  xp:         %d (%s)\n", m.XPValue, m.Difficulty())
			fmt.Fprintf(out, "  why:        %s\n", m.Description)
			return nil
		},
	}
	cmd.Flags().IntVar(&mind, "mind", 0, "current Mind value")
	cmd.Flags().IntVar(&body, "body", 0, "current Body value")
	cmd.Flags().IntVar(&social, "social", 0, "current Social value")
	cmd.Flags().IntVar(&finance, "finance", 0, "current Finance value")
	return cmd
}
