package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/tollwatch/models"
)

// DefaultWindowDays is the lookback window used when none is given.
const DefaultWindowDays = 365

// Options are the run parameters the engine needs. They are passed in
// explicitly; the engine reads no environment.
type Options struct {
	// WindowDays is the lookback window for dated notices. Default:
	// DefaultWindowDays.
	WindowDays int

	// Location is the reference timezone for "today".
	Location *time.Location

	// AttemptTimeout is the hard deadline of one (vehicle, source) attempt.
	AttemptTimeout time.Duration

	// Now returns the run time. Default: time.Now.
	Now func() time.Time
}

// Runner scrapes vehicles one at a time, and each vehicle's sources one
// after another, so at most one browsing session is ever open.
type Runner struct {
	open     SessionOpener
	adapters []Adapter
	opts     Options
}

// NewRunner creates a Runner. Adapters are attempted in the given order,
// which is also the order their notices are merged in.
func NewRunner(open SessionOpener, adapters []Adapter, opts Options) *Runner {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = 3 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{open: open, adapters: adapters, opts: opts}
}

// Run checks every entry in roster order and hands each report to emit as
// soon as it is ready. It stops early only when ctx is done.
func (r *Runner) Run(ctx context.Context, entries []models.VehicleEntry, emit func(models.VehicleReport)) {
	for i, entry := range entries {
		if ctx.Err() != nil {
			slog.Warn("run interrupted", "remaining", len(entries)-i, "error", ctx.Err())
			return
		}
		slog.Info("processing vehicle", "rego", entry.Rego, "renter", entry.Renter)
		emit(r.Check(ctx, entry))
	}
}

// Check scrapes every source for one vehicle and merges the results. A
// failing source only contributes a diagnostic.
func (r *Runner) Check(ctx context.Context, entry models.VehicleEntry) models.VehicleReport {
	return r.CheckWindow(ctx, entry, r.opts.WindowDays)
}

// CheckWindow is Check with an explicit lookback window. A window below one
// day falls back to the runner's.
func (r *Runner) CheckWindow(ctx context.Context, entry models.VehicleEntry, windowDays int) models.VehicleReport {
	if windowDays <= 0 {
		windowDays = r.opts.WindowDays
	}
	now := r.opts.Now()
	results := make([]SourceResult, 0, len(r.adapters))
	for _, a := range r.adapters {
		results = append(results, r.attempt(ctx, a, entry.Rego))
	}

	merged := Merge(results, WindowCutoff(now, r.opts.Location, windowDays))
	return models.VehicleReport{
		Entry:      entry,
		Notices:    merged.Notices,
		Totals:     merged.Totals,
		Diagnostic: merged.Diagnostic,
		CheckedAt:  now,
	}
}

// attempt runs one (vehicle, source) extraction inside its own session.
//
// The session is released on every exit path, including panics raised
// by the adapter or the browser layer; a panic becomes a diagnostic.
func (r *Runner) attempt(ctx context.Context, a Adapter, rego string) (res SourceResult) {
	res.Source = a.Source()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, r.opts.AttemptTimeout)
	defer cancel()

	var sess Session
	defer func() {
		if p := recover(); p != nil {
			res = SourceResult{
				Source:     a.Source(),
				Diagnostic: fmt.Sprintf("%s error for %s: %v", a.Source().Label(), rego, p),
			}
			slog.Error("attempt panicked", "rego", rego, "source", a.Source(), "panic", p)
			if sess != nil {
				capture(sess, "error", rego)
			}
		}
		if sess != nil {
			if err := sess.Close(); err != nil {
				slog.Warn("session close failed", "rego", rego, "source", a.Source(), "error", err)
			}
		}
		slog.Info("attempt finished",
			"rego", rego,
			"source", a.Source(),
			"notices", len(res.Notices),
			"diagnostic", res.Diagnostic,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	}()

	var err error
	sess, err = r.open(ctx, a.Source(), a.URL())
	if err != nil {
		res.Diagnostic = diagnose(a, rego, err)
		return res
	}

	out, err := a.SubmitSearch(ctx, sess.Page(), rego)
	if err != nil {
		capture(sess, "search", rego)
		res.Diagnostic = diagnose(a, rego, err)
		return res
	}

	switch out.Kind {
	case NoResults:
		res.Diagnostic = out.Diagnostic
		return res
	case Timeout:
		capture(sess, "timeout", rego)
		res.Diagnostic = out.Diagnostic
		return res
	case Results:
	default:
		res.Diagnostic = fmt.Sprintf("%s: search for %s ended in state %s.", a.Source().Label(), rego, out.Kind)
		return res
	}

	notices, err := a.ExtractRecords(ctx, out)
	res.Notices = notices
	if err != nil {
		var se *models.ScrapeError
		if !errors.As(err, &se) || se.Code != models.ErrCodeNoRows {
			capture(sess, "extract", rego)
		}
		res.Diagnostic = diagnose(a, rego, err)
	}
	return res
}

// diagnose turns an attempt error into the one-line message attached to
// the vehicle's report.
func diagnose(a Adapter, rego string, err error) string {
	var se *models.ScrapeError
	switch {
	case errors.As(err, &se) && se.Message != "":
		return se.Message
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("%s: timed out checking %s.", a.Source().Label(), rego)
	default:
		return fmt.Sprintf("%s error for %s: %v", a.Source().Label(), rego, err)
	}
}

// capture runs the session's diagnostic capture on a fresh context so it
// still works after the attempt deadline has passed.
func capture(sess Session, label, rego string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	sess.Capture(ctx, label+"_"+rego)
}
