package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/tollwatch/cache"
	"github.com/use-agent/tollwatch/models"
	"github.com/use-agent/tollwatch/roster"
)

// Checker scrapes one vehicle. *engine.Runner satisfies it.
type Checker interface {
	CheckWindow(ctx context.Context, entry models.VehicleEntry, windowDays int) models.VehicleReport
}

// Check returns a handler for POST /api/v1/check.
//
// Flow:
//  1. Parse and validate the request.
//  2. Serve a cached report when max_age allows it.
//  3. Take the gate; a request still waiting when its context ends gets BUSY.
//  4. Fill renter details from the roster when the rego is listed.
//  5. Run both sources, cache a clean report, return it.
func Check(checker Checker, gate *Gate, load RosterFunc, cc *cache.Cache, defaultWindow int) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.CheckRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), err))
			return
		}
		rego := strings.ToUpper(strings.TrimSpace(req.Rego))
		if rego == "" {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, "rego must not be blank", nil))
			return
		}
		window := defaultWindow
		if req.WindowDays > 0 {
			window = req.WindowDays
		}

		maxAge := time.Duration(req.MaxAge) * time.Second
		key := cache.Key(rego, window)
		if cc != nil && maxAge > 0 {
			if cached, hit := cc.Get(key, maxAge); hit {
				c.JSON(http.StatusOK, models.CheckResponse{
					Success:     true,
					Report:      &cached,
					CacheStatus: "hit",
					Timing:      models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
				})
				return
			}
		}

		ctx := c.Request.Context()
		if err := gate.Acquire(ctx); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeBusy, "another check is running; gave up waiting", err))
			return
		}
		defer gate.Release()

		entry := models.VehicleEntry{Rego: rego, Renter: strings.TrimSpace(req.Renter)}
		if entries, err := load(); err == nil {
			if listed, ok := roster.Find(entries, rego); ok {
				entry = listed
			}
		} else if !errors.Is(err, roster.ErrRosterNotFound) {
			respondError(c, err)
			return
		}

		report := checker.CheckWindow(ctx, entry, window)

		resp := models.CheckResponse{Success: true, Report: &report}
		if cc != nil {
			// Reports with a diagnostic are incomplete and not worth reusing.
			if report.Diagnostic == "" && ctx.Err() == nil {
				cc.Set(key, report)
			}
			if maxAge > 0 {
				resp.CacheStatus = "miss"
			}
		}
		resp.Timing = models.TimingInfo{TotalMs: time.Since(start).Milliseconds()}
		c.JSON(http.StatusOK, resp)
	}
}
