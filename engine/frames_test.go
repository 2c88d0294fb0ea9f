package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_FindsFirstMatchingFrame(t *testing.T) {
	field := CSS("#rego")
	main := newFakeFrame("main")
	child := newFakeFrame("frame[1]").show(field, "")
	page := &fakePage{frames: []Frame{main, child}}

	f, ok := FrameResolver{Interval: time.Millisecond}.Resolve(context.Background(), page, field, Visible, time.Second)
	require.True(t, ok)
	assert.Equal(t, "frame[1]", f.Name())
}

func TestResolve_WaitsForLateElement(t *testing.T) {
	field := CSS("#rego")
	child := newFakeFrame("frame[1]")
	child.visibleAfter[field.String()] = 5
	page := &fakePage{frames: []Frame{newFakeFrame("main"), child}}

	f, ok := FrameResolver{Interval: time.Millisecond}.Resolve(context.Background(), page, field, Visible, 2*time.Second)
	require.True(t, ok)
	assert.Same(t, child, f)
	assert.Equal(t, 6, child.probes[field.String()])
}

func TestResolve_TimesOutWithoutError(t *testing.T) {
	page := &fakePage{frames: []Frame{newFakeFrame("main")}}

	start := time.Now()
	f, ok := FrameResolver{Interval: 5 * time.Millisecond}.Resolve(context.Background(), page, CSS("#missing"), Attached, 40*time.Millisecond)
	assert.False(t, ok)
	assert.Nil(t, f)
	assert.Less(t, time.Since(start), time.Second)
}

func TestResolve_ZeroTimeoutStillProbesOnce(t *testing.T) {
	field := CSS("#rego")
	main := newFakeFrame("main").show(field, "")
	page := &fakePage{frames: []Frame{main}}

	_, ok := FrameResolver{}.Resolve(context.Background(), page, field, Visible, 0)
	assert.True(t, ok)
}

func TestDismissBanners_ClicksOnlyPresentBanners(t *testing.T) {
	accept := HasText("button", `Accept`)
	consent := CSS(`[aria-label*="consent" i]`)
	main := newFakeFrame("main").show(accept, "Accept")
	page := &fakePage{frames: []Frame{main}}

	FrameResolver{Interval: time.Millisecond}.DismissBanners(context.Background(), page, []Locator{accept, consent})

	assert.Equal(t, []string{accept.String()}, main.clicked())
}
