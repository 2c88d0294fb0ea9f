package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/tollwatch/engine"
)

// maxFrameDepth bounds iframe discovery. Neither portal nests deeper than
// two levels.
const maxFrameDepth = 3

// errNoMatch is returned by actions whose locator matched nothing.
var errNoMatch = errors.New("no element matches locator")

// rodPage exposes a rod page as an engine.Page.
type rodPage struct {
	page *rod.Page
}

// Frames walks the frame tree breadth-first, main document first. Frames
// that detach mid-walk are skipped.
func (p rodPage) Frames(ctx context.Context) []engine.Frame {
	main := rodFrame{name: "main", page: p.page}
	frames := []engine.Frame{main}

	level := []*rod.Page{p.page}
	for depth := 0; depth < maxFrameDepth && len(level) > 0; depth++ {
		var next []*rod.Page
		for _, parent := range level {
			iframes, err := parent.Context(ctx).Elements("iframe")
			if err != nil {
				continue
			}
			for _, el := range iframes {
				fp, err := el.Frame()
				if err != nil {
					continue
				}
				name := fmt.Sprintf("frame[%d]", len(frames))
				if src, err := el.Attribute("src"); err == nil && src != nil && *src != "" {
					name += " " + *src
				}
				frames = append(frames, rodFrame{name: name, page: fp})
				next = append(next, fp)
			}
		}
		level = next
	}
	return frames
}

// rodFrame implements engine.Frame over one document.
type rodFrame struct {
	name string
	page *rod.Page
}

func (f rodFrame) Name() string { return f.name }

// first returns the first element matching loc, restricted to visible
// ones when visible is set. It never waits.
func (f rodFrame) first(ctx context.Context, loc engine.Locator, visible bool) (*rod.Element, bool) {
	els, err := f.page.Context(ctx).Elements(loc.CSS)
	if err != nil {
		return nil, false
	}
	for _, el := range els {
		if visible {
			if ok, err := el.Visible(); err != nil || !ok {
				continue
			}
		}
		if loc.Text != nil {
			txt, err := el.Text()
			if err != nil || !loc.Text.MatchString(strings.TrimSpace(txt)) {
				continue
			}
		}
		return el, true
	}
	return nil, false
}

func (f rodFrame) Probe(ctx context.Context, loc engine.Locator, state engine.ElementState) bool {
	_, ok := f.first(ctx, loc, state == engine.Visible)
	return ok
}

func (f rodFrame) Text(ctx context.Context, loc engine.Locator) (string, bool) {
	el, ok := f.first(ctx, loc, true)
	if !ok {
		return "", false
	}
	txt, err := el.Text()
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(txt), true
}

func (f rodFrame) Attr(ctx context.Context, loc engine.Locator, name string) (string, bool) {
	el, ok := f.first(ctx, loc, false)
	if !ok {
		return "", false
	}
	v, err := el.Attribute(name)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}

func (f rodFrame) Value(ctx context.Context, loc engine.Locator) (string, bool) {
	el, ok := f.first(ctx, loc, false)
	if !ok {
		return "", false
	}
	v, err := el.Property("value")
	if err != nil {
		return "", false
	}
	return v.Str(), true
}

func (f rodFrame) Click(ctx context.Context, loc engine.Locator, force bool) error {
	el, ok := f.first(ctx, loc, !force)
	if !ok {
		return fmt.Errorf("click %s in %s: %w", loc, f.name, errNoMatch)
	}
	el = el.Context(ctx)
	if force {
		_, err := el.Eval(`() => this.click()`)
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (f rodFrame) Type(ctx context.Context, loc engine.Locator, text string) error {
	el, ok := f.first(ctx, loc, true)
	if !ok {
		return fmt.Errorf("type into %s in %s: %w", loc, f.name, errNoMatch)
	}
	el = el.Context(ctx)
	if err := el.Focus(); err != nil {
		return err
	}
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	keys := make([]input.Key, 0, len(text))
	for _, r := range text {
		keys = append(keys, input.Key(r))
	}
	return el.Type(keys...)
}

func (f rodFrame) Press(ctx context.Context, loc engine.Locator, key engine.Key) error {
	el, ok := f.first(ctx, loc, false)
	if !ok {
		return fmt.Errorf("press %s on %s in %s: %w", key, loc, f.name, errNoMatch)
	}
	var k input.Key
	switch key {
	case engine.KeyEnter:
		k = input.Enter
	case engine.KeyArrowDown:
		k = input.ArrowDown
	default:
		return fmt.Errorf("unsupported key %q", key)
	}
	el = el.Context(ctx)
	if err := el.Focus(); err != nil {
		slog.Debug("focus before key press failed", "frame", f.name, "error", err)
	}
	return el.Type(k)
}

func (f rodFrame) Eval(ctx context.Context, js string, args ...any) error {
	_, err := f.page.Context(ctx).Eval(js, args...)
	return err
}

func (f rodFrame) HTML(ctx context.Context) (string, error) {
	return f.page.Context(ctx).HTML()
}
