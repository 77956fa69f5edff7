package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"family-calendar/internal/calendar"
)

func newRegenerateCmd(load loader) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Extend every active schedule's tasks up to its look-ahead window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			today := calendar.Today()
			if date != "" {
				if today, err = calendar.ParseDay("date", date); err != nil {
					return err
				}
			}

			a, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.schedules.RegenerateFutureTasks(cmd.Context(), today)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "date: %s\nschedules: %d\ncreated: %d\nskipped: %d\n",
				today.Format(calendar.DayLayout), report.Schedules, report.Created, report.Skipped)
			if len(report.Failed) > 0 {
				ids := report.FailedIDs()
				for _, id := range ids {
					fmt.Fprintf(out, "failed: schedule %d: %v\n", id, report.Failed[id])
				}
				return fmt.Errorf("%d schedules failed", len(ids))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "run as if today were YYYY-MM-DD")
	return cmd
}
