package engine

import (
	"context"
	"log/slog"
	"regexp"
	"time"
)

// OutcomeKind is the terminal state of a submitted search.
type OutcomeKind int

const (
	Searching OutcomeKind = iota
	Results
	NoResults
	Timeout
)

func (k OutcomeKind) String() string {
	switch k {
	case Results:
		return "results"
	case NoResults:
		return "no_results"
	case Timeout:
		return "timeout"
	default:
		return "searching"
	}
}

// Outcome classifies what a portal answered to one search. Frame is set
// only for Results and points at the frame holding the results section.
type Outcome struct {
	Kind       OutcomeKind
	Rego       string
	Frame      Frame
	Diagnostic string
}

// Markers describe the two mutually exclusive things a portal can show
// after a search.
type Markers struct {
	// Results becomes visible when the portal lists notices.
	Results Locator

	// NoResultsTitle is a dialog title checked against NoResultsText.
	// Leave NoResultsTitle.CSS empty for portals without such a dialog.
	NoResultsTitle Locator
	NoResultsText  *regexp.Regexp

	// Dismiss closes the no-results dialog (best-effort, first visible wins).
	Dismiss []Locator

	// Horizon bounds the whole classification.
	Horizon time.Duration

	NoResultsMessage string
	TimeoutMessage   string
}

// OutcomeClassifier polls all current frames for the markers.
type OutcomeClassifier struct {
	// Interval is the poll tick. Default: 120ms.
	Interval time.Duration
}

// Classify waits for the first marker to appear. Per tick the no-results
// dialog is checked in every frame before the results section is. Neither
// marker within the horizon yields Timeout; classification itself never
// fails.
func (c OutcomeClassifier) Classify(ctx context.Context, page Page, m Markers) Outcome {
	tick := c.Interval
	if tick <= 0 {
		tick = 120 * time.Millisecond
	}
	horizon := m.Horizon
	if horizon <= 0 {
		horizon = 30 * time.Second
	}
	deadline := time.Now().Add(horizon)

	for {
		frames := page.Frames(ctx)

		if m.NoResultsTitle.CSS != "" && m.NoResultsText != nil {
			for _, f := range frames {
				txt, ok := f.Text(ctx, m.NoResultsTitle)
				if ok && m.NoResultsText.MatchString(txt) {
					c.dismiss(ctx, f, m.Dismiss)
					return Outcome{Kind: NoResults, Diagnostic: m.NoResultsMessage}
				}
			}
		}

		for _, f := range frames {
			if f.Probe(ctx, m.Results, Visible) {
				return Outcome{Kind: Results, Frame: f}
			}
		}

		if time.Until(deadline) <= 0 {
			return Outcome{Kind: Timeout, Diagnostic: m.TimeoutMessage}
		}
		select {
		case <-ctx.Done():
			return Outcome{Kind: Timeout, Diagnostic: m.TimeoutMessage}
		case <-time.After(tick):
		}
	}
}

func (c OutcomeClassifier) dismiss(ctx context.Context, f Frame, locs []Locator) {
	for _, loc := range locs {
		if !f.Probe(ctx, loc, Visible) {
			continue
		}
		clickCtx, cancel := context.WithTimeout(ctx, time.Second)
		err := f.Click(clickCtx, loc, false)
		cancel()
		if err != nil {
			slog.Debug("no-results dialog dismiss ignored", "locator", loc.String(), "error", err)
			continue
		}
		return
	}
}
