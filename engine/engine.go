package engine

import (
	"context"
	"fmt"
	"regexp"

	"github.com/use-agent/tollwatch/models"
)

// ElementState is the condition a locator has to satisfy to count as a match.
type ElementState int

const (
	// Attached matches any element present in the DOM.
	Attached ElementState = iota
	// Visible matches only rendered, non-hidden elements.
	Visible
)

func (s ElementState) String() string {
	if s == Visible {
		return "visible"
	}
	return "attached"
}

// Locator selects elements by CSS, optionally narrowed to those whose
// visible text matches Text.
type Locator struct {
	CSS  string
	Text *regexp.Regexp
}

// CSS builds a plain CSS locator.
func CSS(sel string) Locator {
	return Locator{CSS: sel}
}

// HasText builds a locator for elements matching css whose text matches
// the (Go regexp) pattern.
func HasText(css, pattern string) Locator {
	return Locator{CSS: css, Text: regexp.MustCompile(pattern)}
}

func (l Locator) String() string {
	if l.Text != nil {
		return fmt.Sprintf("%s /%s/", l.CSS, l.Text)
	}
	return l.CSS
}

// Key is a named keyboard key.
type Key string

const (
	KeyEnter     Key = "Enter"
	KeyArrowDown Key = "ArrowDown"
)

// Frame is one document in a page's frame tree. Query methods never fail:
// an element that is not there is reported through the boolean, not an
// error. Action methods return an error when the element is missing or the
// browser rejects the interaction.
type Frame interface {
	// Name identifies the frame in logs ("main", "frame[2] https://...").
	Name() string

	// Probe reports whether loc currently matches an element in state.
	Probe(ctx context.Context, loc Locator, state ElementState) bool

	// Text returns the trimmed text of the first visible match.
	Text(ctx context.Context, loc Locator) (string, bool)

	// Attr returns an attribute of the first match.
	Attr(ctx context.Context, loc Locator, name string) (string, bool)

	// Value returns the live value property of the first match.
	Value(ctx context.Context, loc Locator) (string, bool)

	// Click clicks the first match. With force the click is dispatched
	// from script, bypassing visibility and hit-testing.
	Click(ctx context.Context, loc Locator, force bool) error

	// Type focuses the first match, clears it and sends text as discrete
	// keystrokes so per-key listeners fire.
	Type(ctx context.Context, loc Locator, text string) error

	// Press sends a single key to the first match.
	Press(ctx context.Context, loc Locator, key Key) error

	// Eval runs a JavaScript function expression in the frame.
	Eval(ctx context.Context, js string, args ...any) error

	// HTML returns the frame's rendered document.
	HTML(ctx context.Context) (string, error)
}

// Page is the root of a frame tree.
type Page interface {
	// Frames lists the main frame first, then every child frame in
	// discovery order. The list is rebuilt on every call because frames
	// come and go while a portal hydrates.
	Frames(ctx context.Context) []Frame
}

// Session is one isolated browsing context, scoped to exactly one
// extraction attempt.
type Session interface {
	Page() Page

	// Capture stores a screenshot and page dump for diagnostics. It is
	// best-effort and must not be relied on for control flow.
	Capture(ctx context.Context, label string)

	// Close releases the context. It is safe to call with an expired
	// attempt context.
	Close() error
}

// SessionOpener allocates a fresh session already navigated to url with
// client-side storage cleared. It is injected from main so that engine/
// never imports the browser layer.
type SessionOpener func(ctx context.Context, source models.Source, url string) (Session, error)

// Adapter is the per-portal boundary. Nothing outside an adapter knows a
// portal's markup.
type Adapter interface {
	// Source identifies the portal.
	Source() models.Source

	// URL is the search page a session is opened on.
	URL() string

	// SubmitSearch fills and submits the portal's search form and
	// classifies what the portal answered. Elements that never appear are
	// reported as an ErrCodeAdapterNotFound error.
	SubmitSearch(ctx context.Context, page Page, rego string) (Outcome, error)

	// ExtractRecords converts a Results outcome into notices. Rows whose
	// fields cannot all be recovered are still returned.
	ExtractRecords(ctx context.Context, out Outcome) ([]models.Notice, error)
}
