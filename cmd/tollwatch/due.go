package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/tollwatch/roster"
)

func newDueCmd() *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List the vehicles whose rent is due today (or on --day)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := roster.Load(cfg.Run.RosterFile)
			if err != nil {
				return err
			}
			if day == "" {
				day = roster.Weekday(time.Now(), cfg.Run.Location())
			}

			out := cmd.OutOrStdout()
			due := roster.DueOn(entries, day)
			if len(due) == 0 {
				fmt.Fprintf(out, "No payments due on %s.\n", day)
				return nil
			}
			for _, e := range due {
				fmt.Fprintf(out, "%-10s %-20s $%8.2f  %s\n", e.Rego, e.Renter, e.RentAmount, e.Phone)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "weekday name, e.g. Monday")
	return cmd
}
