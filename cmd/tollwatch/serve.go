package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/tollwatch/api"
	"github.com/use-agent/tollwatch/api/handler"
	"github.com/use-agent/tollwatch/api/middleware"
	"github.com/use-agent/tollwatch/cache"
	"github.com/use-agent/tollwatch/models"
	"github.com/use-agent/tollwatch/roster"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the health, due and check HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			slog.Info("tollwatch starting",
				"host", cfg.Server.Host,
				"port", cfg.Server.Port,
				"mode", cfg.Server.Mode,
			)

			runner, browser, err := newRunner(cfg)
			if err != nil {
				return err
			}
			defer browser.Close()

			limiter := middleware.NewLimiter(cfg.RateLimit)
			go limiter.Run(ctx, 5*time.Minute)
			reports := cache.New(cfg.Cache.MaxEntries)
			go reports.Run(ctx, 5*time.Minute)

			router := api.NewRouter(cfg, api.Deps{
				Checker: runner,
				Roster:  func() ([]models.VehicleEntry, error) { return roster.Load(cfg.Run.RosterFile) },
				Gate:    handler.NewGate(),
				Limiter: limiter,
				Cache:   reports,
			}, time.Now())

			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			srv := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext:       func(net.Listener) context.Context { return ctx },
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("HTTP server listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			slog.Info("shutdown signal received")

			// In-flight checks are cancelled with their request context;
			// give them a moment to release their sessions.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP server forced shutdown", "error", err)
			} else {
				slog.Info("HTTP server drained gracefully")
			}
			slog.Info("tollwatch stopped")
			return nil
		},
	}
}
