// Package enginetest provides scripted engine.Frame and engine.Page
// implementations for adapter tests.
package enginetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/use-agent/tollwatch/engine"
)

// Frame is an in-memory engine.Frame. An element "exists" when its
// locator string has been registered with Show; Text returns the
// registered text. Every action is appended to Calls as "verb locator".
type Frame struct {
	FrameName string
	Document  string

	// ClickErr, when set, is returned by Click for that locator string.
	ClickErr map[string]error

	mu     sync.Mutex
	hidden map[string]int
	probes map[string]int
	shown  map[string]string
	values map[string]string
	attrs  map[string]map[string]string
	calls  []string
}

// NewFrame creates an empty frame.
func NewFrame(name string) *Frame {
	return &Frame{
		FrameName: name,
		ClickErr:  map[string]error{},
		hidden:    map[string]int{},
		probes:    map[string]int{},
		shown:     map[string]string{},
		values:    map[string]string{},
		attrs:     map[string]map[string]string{},
	}
}

// Show registers a visible element with the given text.
func (f *Frame) Show(loc engine.Locator, text string) *Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shown[loc.String()] = text
	return f
}

// Hydrate makes a shown element attached but hidden until it has been
// probed for visibility n times. Typing into it or clicking it without
// force fails while it is hidden.
func (f *Frame) Hydrate(loc engine.Locator, n int) *Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hidden[loc.String()] = n
	return f
}

// Probes returns how many times loc was probed.
func (f *Frame) Probes(loc engine.Locator) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probes[loc.String()]
}

// SetAttr sets an attribute on a registered element.
func (f *Frame) SetAttr(loc engine.Locator, name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.attrs[loc.String()]
	if m == nil {
		m = map[string]string{}
		f.attrs[loc.String()] = m
	}
	m[name] = value
}

// SetValue sets the value property of a registered element.
func (f *Frame) SetValue(loc engine.Locator, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[loc.String()] = value
}

// Calls returns the recorded actions.
func (f *Frame) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Frame) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *Frame) has(loc engine.Locator) bool {
	_, ok := f.shown[loc.String()]
	return ok
}

func (f *Frame) visible(loc engine.Locator) bool {
	return f.has(loc) && f.hidden[loc.String()] <= 0
}

func (f *Frame) Name() string { return f.FrameName }

func (f *Frame) Probe(_ context.Context, loc engine.Locator, state engine.ElementState) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := loc.String()
	f.probes[key]++
	if state == engine.Visible && f.has(loc) && f.hidden[key] > 0 {
		f.hidden[key]--
		return false
	}
	return f.has(loc)
}

func (f *Frame) Text(_ context.Context, loc engine.Locator) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	txt, ok := f.shown[loc.String()]
	return txt, ok
}

func (f *Frame) Attr(_ context.Context, loc engine.Locator, name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.attrs[loc.String()][name]
	return v, ok
}

func (f *Frame) Value(_ context.Context, loc engine.Locator) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.has(loc) {
		return "", false
	}
	return f.values[loc.String()], true
}

func (f *Frame) Click(_ context.Context, loc engine.Locator, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("click %s", loc)
	if err := f.ClickErr[loc.String()]; err != nil {
		return err
	}
	if !f.has(loc) {
		return fmt.Errorf("click %s: not found", loc)
	}
	if !force && !f.visible(loc) {
		return fmt.Errorf("click %s: not visible", loc)
	}
	return nil
}

func (f *Frame) Type(_ context.Context, loc engine.Locator, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("type %s %s", loc, text)
	if !f.has(loc) {
		return fmt.Errorf("type %s: not found", loc)
	}
	if !f.visible(loc) {
		return fmt.Errorf("type %s: not visible", loc)
	}
	f.values[loc.String()] = text
	return nil
}

func (f *Frame) Press(_ context.Context, loc engine.Locator, key engine.Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("press %s %s", loc, key)
	if !f.has(loc) {
		return fmt.Errorf("press %s: not found", loc)
	}
	return nil
}

func (f *Frame) Eval(_ context.Context, js string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("eval %v", args)
	return nil
}

func (f *Frame) HTML(context.Context) (string, error) {
	return f.Document, nil
}

// Page is a fixed frame list.
type Page []engine.Frame

func (p Page) Frames(context.Context) []engine.Frame { return p }
