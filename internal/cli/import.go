package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"family-calendar/internal/seed"
)

func newImportCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create schedules from a YAML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			f, err := seed.Load(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := seed.Import(cmd.Context(), a.schedules, f)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d schedules\n", n, len(f.Schedules))
			return err
		},
	}
}
