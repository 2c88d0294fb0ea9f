// Command tollwatch checks the toll-notice portals for every vehicle due
// for rent today and posts one reminder card per vehicle.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/use-agent/tollwatch/config"
	"github.com/use-agent/tollwatch/engine"
	"github.com/use-agent/tollwatch/portal/etoll"
	"github.com/use-agent/tollwatch/portal/linkt"
	"github.com/use-agent/tollwatch/scraper"
)

var cfg *config.Config

func main() {
	root := &cobra.Command{
		Use:           "tollwatch",
		Short:         "Rent reminders with unpaid toll notices from Linkt and e-Toll",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cfg = config.Load()
			if v, _ := cmd.Flags().GetString("roster"); v != "" {
				cfg.Run.RosterFile = v
			}
			if v, _ := cmd.Flags().GetString("log-level"); v != "" {
				cfg.Log.Level = v
			}
			initLogger(cfg.Log)
		},
	}
	root.PersistentFlags().String("roster", "", "roster file (overrides REGOS_FILE)")
	root.PersistentFlags().String("log-level", "", "debug, info, warn or error (overrides TOLLWATCH_LOG_LEVEL)")

	root.AddCommand(newRunCmd(), newCheckCmd(), newDueCmd(), newServeCmd())

	// Cancel in-flight work on SIGINT/SIGTERM; deferred session and
	// browser cleanup still runs.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "tollwatch:", err)
		os.Exit(1)
	}
}

// newRunner launches the browser and wires both portal adapters, Linkt
// first. The caller closes the browser.
func newRunner(c *config.Config) (*engine.Runner, *scraper.Browser, error) {
	browser, err := scraper.NewBrowser(c.Browser, c.Run)
	if err != nil {
		return nil, nil, fmt.Errorf("launch browser: %w", err)
	}
	loc := c.Run.Location()
	runner := engine.NewRunner(browser.Opener(), []engine.Adapter{linkt.New(loc), etoll.New()}, engine.Options{
		WindowDays:     c.Run.WindowDays,
		Location:       loc,
		AttemptTimeout: c.Run.AttemptTimeout,
	})
	return runner, browser, nil
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	// Logs go to stderr so command output on stdout stays machine-readable.
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
