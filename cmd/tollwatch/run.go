package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/tollwatch/models"
	"github.com/use-agent/tollwatch/notify"
	"github.com/use-agent/tollwatch/roster"
)

func newRunCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Send reminder cards for every vehicle due today",
		Long: "Morning mode scrapes both portals for each due vehicle and includes the notices.\n" +
			"Evening mode sends the second reminder without scraping.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := notify.ParseMode(mode)
			if err != nil {
				return err
			}
			return runDue(cmd, m)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(notify.Morning), "morning or evening")
	return cmd
}

func runDue(cmd *cobra.Command, mode notify.Mode) error {
	ctx := cmd.Context()
	loc := cfg.Run.Location()

	entries, err := roster.Load(cfg.Run.RosterFile)
	if err != nil {
		return err
	}
	now := time.Now()
	due := roster.DueToday(entries, now, loc)
	if len(due) == 0 {
		slog.Info("no payments due today", "day", roster.Weekday(now, loc))
		return nil
	}
	slog.Info("run started", "mode", string(mode), "due", len(due), "day", roster.Weekday(now, loc))

	n := notify.New(cfg.Notify)

	if mode == notify.Evening {
		for _, e := range due {
			n.Send(ctx, models.VehicleReport{Entry: e, Notices: []models.Notice{}, CheckedAt: time.Now()}, mode, loc)
		}
		return nil
	}

	runner, browser, err := newRunner(cfg)
	if err != nil {
		return err
	}
	defer browser.Close()

	runner.Run(ctx, due, func(report models.VehicleReport) {
		slog.Info("vehicle checked",
			"rego", report.Entry.Rego,
			"notices", len(report.Notices),
			"toll", report.Totals.Toll,
			"admin", report.Totals.Admin,
			"diagnostic", report.Diagnostic,
		)
		n.Send(ctx, report, mode, loc)
	})
	if open := browser.OpenSessions(); open > 0 {
		slog.Warn("sessions still open after run", "count", open)
	}
	slog.Info("run finished", "vehicles", len(due))
	return ctx.Err()
}
