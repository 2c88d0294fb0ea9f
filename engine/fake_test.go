package engine

import (
	"context"
	"errors"
	"sync"
)

// fakeFrame is a scripted Frame. Elements are keyed by Locator.String();
// visibleAfter delays a match until Probe has been called that many times
// for the locator, which simulates late hydration.
type fakeFrame struct {
	name string

	mu           sync.Mutex
	visible      map[string]bool
	attached     map[string]bool
	texts        map[string]string
	visibleAfter map[string]int
	probes       map[string]int
	clicks       []string
	html         string
}

func newFakeFrame(name string) *fakeFrame {
	return &fakeFrame{
		name:         name,
		visible:      map[string]bool{},
		attached:     map[string]bool{},
		texts:        map[string]string{},
		visibleAfter: map[string]int{},
		probes:       map[string]int{},
	}
}

func (f *fakeFrame) show(loc Locator, text string) *fakeFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible[loc.String()] = true
	f.attached[loc.String()] = true
	if text != "" {
		f.texts[loc.String()] = text
	}
	return f
}

func (f *fakeFrame) Name() string { return f.name }

func (f *fakeFrame) Probe(_ context.Context, loc Locator, state ElementState) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := loc.String()
	f.probes[key]++
	if n, ok := f.visibleAfter[key]; ok && f.probes[key] > n {
		return true
	}
	if state == Visible {
		return f.visible[key]
	}
	return f.attached[key] || f.visible[key]
}

func (f *fakeFrame) Text(_ context.Context, loc Locator) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.visible[loc.String()] {
		return "", false
	}
	return f.texts[loc.String()], true
}

func (f *fakeFrame) Attr(context.Context, Locator, string) (string, bool) { return "", false }
func (f *fakeFrame) Value(context.Context, Locator) (string, bool)        { return "", false }

func (f *fakeFrame) Click(_ context.Context, loc Locator, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks = append(f.clicks, loc.String())
	return nil
}

func (f *fakeFrame) Type(context.Context, Locator, string) error { return nil }
func (f *fakeFrame) Press(context.Context, Locator, Key) error   { return nil }
func (f *fakeFrame) Eval(context.Context, string, ...any) error  { return nil }
func (f *fakeFrame) HTML(context.Context) (string, error)        { return f.html, nil }

func (f *fakeFrame) clicked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.clicks...)
}

type fakePage struct {
	frames []Frame
}

func (p *fakePage) Frames(context.Context) []Frame { return p.frames }

// fakeSession records whether it was closed and what was captured.
type fakeSession struct {
	page     Page
	closed   bool
	captures []string
}

func (s *fakeSession) Page() Page                            { return s.page }
func (s *fakeSession) Capture(_ context.Context, label string) { s.captures = append(s.captures, label) }
func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

var errBoom = errors.New("boom")
