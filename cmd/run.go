package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one combine pass and exit",
		Example: `  # Combine input/*.xml into output/residentials.xml
  combiner run

  # Use another input directory
  combiner run --input /srv/feeds`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetString("input"); v != "" {
				a.cfg.Paths.InputDir = v
			}
			if v, _ := cmd.Flags().GetString("output"); v != "" {
				a.cfg.Paths.OutputFile = v
			}

			o, err := a.orchestrator(cmd.Context())
			if err != nil {
				return err
			}
			run, err := o.Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "combination finished: %d unique properties (%d added, %d updated, %d skipped)\n",
				run.UniqueCount, run.ListingsAdded, run.ListingsUpdated, run.ListingsSkipped)
			return nil
		},
	}
	cmd.Flags().String("input", "", "Input directory; overrides INPUT_DIR")
	cmd.Flags().String("output", "", "Output file; overrides OUTPUT_FILE")
	return cmd
}
