package main

import (
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/use-agent/tollwatch/models"
	"github.com/use-agent/tollwatch/notify"
	"github.com/use-agent/tollwatch/roster"
)

func newCheckCmd() *cobra.Command {
	var (
		window int
		send   bool
	)
	cmd := &cobra.Command{
		Use:   "check <REGO>",
		Short: "Scrape both portals for one vehicle and print the report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rego := strings.ToUpper(strings.TrimSpace(args[0]))
			if rego == "" {
				return models.NewScrapeError(models.ErrCodeInvalidInput, "rego must not be blank", nil)
			}

			entry := models.VehicleEntry{Rego: rego}
			entries, err := roster.Load(cfg.Run.RosterFile)
			switch {
			case err == nil:
				if listed, ok := roster.Find(entries, rego); ok {
					entry = listed
				}
			case !errors.Is(err, roster.ErrRosterNotFound):
				return err
			}

			runner, browser, err := newRunner(cfg)
			if err != nil {
				return err
			}
			defer browser.Close()

			if window <= 0 {
				window = cfg.Run.WindowDays
			}
			report := runner.CheckWindow(ctx, entry, window)

			if send {
				notify.New(cfg.Notify).Send(ctx, report, notify.Morning, cfg.Run.Location())
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().IntVar(&window, "window", 0, "lookback window in days (default DAYS_TO_CHECK)")
	cmd.Flags().BoolVar(&send, "notify", false, "also post the morning card for this vehicle")
	return cmd
}
