package engine

import (
	"context"
	"log/slog"
	"time"
)

// Wait budgets used by the adapters.
const (
	// BannerBudget bounds each best-effort consent-banner lookup.
	BannerBudget = 600 * time.Millisecond

	// FieldBudget bounds the lookup of a required form field.
	FieldBudget = 65 * time.Second
)

// FrameResolver finds the frame that owns an element. Every tick it walks
// the page's current frames in order (main first) and stops at the first
// frame where the locator matches.
type FrameResolver struct {
	// Interval is the poll tick. Default: 200ms.
	Interval time.Duration

	// Banner overrides BannerBudget.
	Banner time.Duration
}

func (r FrameResolver) interval() time.Duration {
	if r.Interval <= 0 {
		return 200 * time.Millisecond
	}
	return r.Interval
}

// Resolve polls until loc matches in some frame or timeout elapses. At
// least one full pass over the frames is made even with a zero timeout.
// A miss is reported as (nil, false), never as an error.
func (r FrameResolver) Resolve(ctx context.Context, page Page, loc Locator, state ElementState, timeout time.Duration) (Frame, bool) {
	deadline := time.Now().Add(timeout)
	for {
		for _, f := range page.Frames(ctx) {
			if f.Probe(ctx, loc, state) {
				return f, true
			}
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, false
		}
		wait := r.interval()
		if remaining < wait {
			wait = remaining
		}

		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(wait):
		}
	}
}

// WaitIn polls a single frame. It is Resolve for callers that already own
// the frame.
func (r FrameResolver) WaitIn(ctx context.Context, f Frame, loc Locator, state ElementState, timeout time.Duration) bool {
	_, ok := r.Resolve(ctx, single{f}, loc, state, timeout)
	return ok
}

// DismissBanners clicks whatever consent banners are present. Each locator
// gets BannerBudget; misses and click failures are ignored.
func (r FrameResolver) DismissBanners(ctx context.Context, page Page, locs []Locator) {
	budget := r.Banner
	if budget <= 0 {
		budget = BannerBudget
	}
	for _, loc := range locs {
		f, ok := r.Resolve(ctx, page, loc, Attached, budget)
		if !ok {
			continue
		}
		clickCtx, cancel := context.WithTimeout(ctx, budget)
		if err := f.Click(clickCtx, loc, false); err != nil {
			slog.Debug("banner click ignored", "locator", loc.String(), "frame", f.Name(), "error", err)
		} else {
			slog.Debug("banner dismissed", "locator", loc.String(), "frame", f.Name())
		}
		cancel()
	}
}

// single adapts one frame to the Page interface.
type single struct{ f Frame }

func (s single) Frames(context.Context) []Frame { return []Frame{s.f} }
