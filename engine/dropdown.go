package engine

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// DropdownState is what the widget reports about itself after an
// interaction.
type DropdownState struct {
	Value string
	Valid bool
	Open  bool
}

// committed reports whether the widget holds target as a validated value.
func (s DropdownState) committed(target string) bool {
	return strings.EqualFold(strings.TrimSpace(s.Value), target) && s.Valid
}

// Dropdown is a non-native selection widget driven one strategy at a time.
type Dropdown interface {
	// TypeAndConfirm clicks the control, clears it, types value as
	// keystrokes and presses Enter.
	TypeAndConfirm(ctx context.Context, value string) error

	// NextAndConfirm presses ArrowDown then Enter.
	NextAndConfirm(ctx context.Context) error

	// ClickOption clicks the rendered option whose text equals value
	// (case-insensitive), if it is visible.
	ClickOption(ctx context.Context, value string) error

	// ForceAssign writes the value and validity flags directly and fires
	// the events the widget listens for.
	ForceAssign(ctx context.Context, value string) error

	// State reads back value and flags.
	State(ctx context.Context) (DropdownState, error)
}

// CaretDropdown is a widget variant that only accepts a selection after
// its caret has been clicked open, and only commits it once focus moves
// elsewhere.
type CaretDropdown interface {
	Dropdown
	OpenCaret(ctx context.Context) error
	PickRendered(ctx context.Context, value string) error
	ClickElsewhere(ctx context.Context) error
}

// Step names a rung of the selection ladder.
type Step int

const (
	StepNone Step = iota
	StepCaret
	StepType
	StepNext
	StepOption
	StepForce
)

func (s Step) String() string {
	switch s {
	case StepCaret:
		return "caret"
	case StepType:
		return "type"
	case StepNext:
		return "next"
	case StepOption:
		return "option"
	case StepForce:
		return "force"
	default:
		return "none"
	}
}

// Selection is the result of driving a dropdown: the last step attempted
// and whether its post-condition held.
type Selection struct {
	Step     Step
	Verified bool
	State    DropdownState
}

// ErrOptionHidden is returned by ClickOption implementations when no
// rendered option with the wanted text is visible.
var ErrOptionHidden = errors.New("dropdown option not visible")

// DropdownResolver drives a Dropdown through a fixed four-step ladder,
// stopping at the first step whose read-back verifies.
type DropdownResolver struct {
	// CaretWait bounds the caret variant's verification poll. Default: 5s.
	CaretWait time.Duration

	// Interval is the caret verification poll tick. Default: 150ms.
	Interval time.Duration
}

type rung struct {
	step Step
	run  func(ctx context.Context, w Dropdown, target string) error
}

var ladder = [...]rung{
	{StepType, func(ctx context.Context, w Dropdown, t string) error { return w.TypeAndConfirm(ctx, t) }},
	{StepNext, func(ctx context.Context, w Dropdown, _ string) error { return w.NextAndConfirm(ctx) }},
	{StepOption, func(ctx context.Context, w Dropdown, t string) error { return w.ClickOption(ctx, t) }},
	{StepForce, func(ctx context.Context, w Dropdown, t string) error { return w.ForceAssign(ctx, t) }},
}

// Select runs the ladder. A step that errors counts as unverified and
// the next step runs; there is no retry of any step.
func (d DropdownResolver) Select(ctx context.Context, w Dropdown, target string) Selection {
	var sel Selection
	for _, r := range ladder {
		if ctx.Err() != nil {
			return sel
		}
		sel.Step = r.step
		if err := r.run(ctx, w, target); err != nil {
			slog.Debug("dropdown step failed", "step", r.step.String(), "error", err)
		}
		state, err := w.State(ctx)
		if err != nil {
			slog.Debug("dropdown read-back failed", "step", r.step.String(), "error", err)
			continue
		}
		sel.State = state
		if state.committed(target) {
			sel.Verified = true
			return sel
		}
	}
	return sel
}

// SelectViaCaret opens the caret, clicks the rendered option, clicks
// elsewhere to close the list and polls until value == target, valid and
// not open. If that never holds, the regular ladder takes over.
func (d DropdownResolver) SelectViaCaret(ctx context.Context, w CaretDropdown, target string) Selection {
	if err := w.OpenCaret(ctx); err != nil {
		slog.Debug("dropdown caret failed", "error", err)
		return d.Select(ctx, w, target)
	}
	if err := w.PickRendered(ctx, target); err != nil {
		slog.Debug("dropdown pick failed", "error", err)
		return d.Select(ctx, w, target)
	}
	if err := w.ClickElsewhere(ctx); err != nil {
		slog.Debug("dropdown close click failed", "error", err)
	}

	wait := d.CaretWait
	if wait <= 0 {
		wait = 5 * time.Second
	}
	tick := d.Interval
	if tick <= 0 {
		tick = 150 * time.Millisecond
	}

	deadline := time.Now().Add(wait)
	var last DropdownState
	for {
		state, err := w.State(ctx)
		if err == nil {
			last = state
			if state.committed(target) && !state.Open {
				return Selection{Step: StepCaret, Verified: true, State: state}
			}
		}
		if time.Until(deadline) <= 0 {
			break
		}
		select {
		case <-ctx.Done():
			return Selection{Step: StepCaret, State: last}
		case <-time.After(tick):
		}
	}
	slog.Debug("dropdown caret selection did not stick", "value", last.Value, "valid", last.Valid, "open", last.Open)
	return d.Select(ctx, w, target)
}

// FrameDropdown implements CaretDropdown over a Frame using locators, so
// the ladder logic stays independent of the browser library.
type FrameDropdown struct {
	Frame   Frame
	Control Locator

	// Options are containers rendered options live in
	// (".dropdown-menu", "[role=listbox]", ...).
	Options []string

	// Caret opens the list in the caret variant.
	Caret Locator

	// Item builds the locator of a rendered option by value.
	Item func(value string) Locator

	// Elsewhere is clicked to force the list closed.
	Elsewhere Locator

	ValidAttr string // default: "data-isvalid"
	OpenAttr  string // default: "data-isopen"

	// Resolver is used for the caret and option visibility waits.
	Resolver FrameResolver

	// CaretWait bounds the wait for the caret and the option. Default: 30s / 10s.
	CaretWait  time.Duration
	OptionWait time.Duration
}

func (d FrameDropdown) validAttr() string {
	if d.ValidAttr == "" {
		return "data-isvalid"
	}
	return d.ValidAttr
}

func (d FrameDropdown) openAttr() string {
	if d.OpenAttr == "" {
		return "data-isopen"
	}
	return d.OpenAttr
}

func (d FrameDropdown) TypeAndConfirm(ctx context.Context, value string) error {
	if err := d.Frame.Click(ctx, d.Control, false); err != nil {
		return err
	}
	if err := d.Frame.Type(ctx, d.Control, value); err != nil {
		return err
	}
	return d.Frame.Press(ctx, d.Control, KeyEnter)
}

func (d FrameDropdown) NextAndConfirm(ctx context.Context) error {
	if err := d.Frame.Press(ctx, d.Control, KeyArrowDown); err != nil {
		return err
	}
	return d.Frame.Press(ctx, d.Control, KeyEnter)
}

func (d FrameDropdown) ClickOption(ctx context.Context, value string) error {
	exact := regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(value) + `\s*$`)
	for _, container := range d.Options {
		loc := Locator{CSS: container + " *, " + container, Text: exact}
		if d.Frame.Probe(ctx, loc, Visible) {
			return d.Frame.Click(ctx, loc, false)
		}
	}
	return ErrOptionHidden
}

// forceAssignJS mirrors what the widget's own handlers do on a committed
// pick: set value and flags, fire input/change/keyup, then blur.
const forceAssignJS = `(sel, value, validAttr, openAttr) => {
	const el = document.querySelector(sel);
	if (!el) return false;
	el.value = value;
	el.setAttribute(validAttr, "true");
	el.setAttribute(openAttr, "false");
	el.dispatchEvent(new Event("input", { bubbles: true }));
	el.dispatchEvent(new Event("change", { bubbles: true }));
	el.dispatchEvent(new KeyboardEvent("keyup", { key: "Enter", bubbles: true }));
	el.blur();
	return true;
}`

func (d FrameDropdown) ForceAssign(ctx context.Context, value string) error {
	return d.Frame.Eval(ctx, forceAssignJS, d.Control.CSS, value, d.validAttr(), d.openAttr())
}

func (d FrameDropdown) State(ctx context.Context) (DropdownState, error) {
	value, ok := d.Frame.Value(ctx, d.Control)
	if !ok {
		return DropdownState{}, errors.New("dropdown control not found")
	}
	valid, _ := d.Frame.Attr(ctx, d.Control, d.validAttr())
	open, _ := d.Frame.Attr(ctx, d.Control, d.openAttr())
	return DropdownState{
		Value: value,
		Valid: valid == "true",
		Open:  open == "true",
	}, nil
}

func (d FrameDropdown) OpenCaret(ctx context.Context) error {
	wait := d.CaretWait
	if wait <= 0 {
		wait = 30 * time.Second
	}
	if !d.Resolver.WaitIn(ctx, d.Frame, d.Caret, Visible, wait) {
		return errors.New("dropdown caret never became visible")
	}
	return d.Frame.Click(ctx, d.Caret, true)
}

func (d FrameDropdown) PickRendered(ctx context.Context, value string) error {
	if d.Item == nil {
		return ErrOptionHidden
	}
	wait := d.OptionWait
	if wait <= 0 {
		wait = 10 * time.Second
	}
	item := d.Item(value)
	if !d.Resolver.WaitIn(ctx, d.Frame, item, Visible, wait) {
		return ErrOptionHidden
	}
	return d.Frame.Click(ctx, item, true)
}

func (d FrameDropdown) ClickElsewhere(ctx context.Context) error {
	if !d.Resolver.WaitIn(ctx, d.Frame, d.Elsewhere, Visible, 5*time.Second) {
		return errors.New("nothing to click outside the dropdown")
	}
	return d.Frame.Click(ctx, d.Elsewhere, true)
}
