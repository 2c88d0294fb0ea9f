// Package portal holds what the toll-notice portal adapters share: the
// consent-banner locators and the frame snapshot used for row extraction.
// Each portal lives in its own subpackage.
package portal

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/tollwatch/engine"
	"github.com/use-agent/tollwatch/extract"
)

// ConsentBanners are the cookie and consent prompts either portal may put
// in front of its search form.
var ConsentBanners = []engine.Locator{
	engine.HasText("button", `(?i)Accept`),
	engine.HasText("button", `(?i)I Agree`),
	engine.HasText("button", `(?i)Got it`),
	engine.HasText("button, a, [role=button]", `(?i)^\s*Accept all\s*$`),
	engine.CSS(`[aria-label*="consent" i]`),
}

// Snapshot parses the frame's current document for extraction.
func Snapshot(ctx context.Context, f engine.Frame) (*goquery.Document, error) {
	if f == nil {
		return nil, fmt.Errorf("no results frame")
	}
	raw, err := f.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name(), err)
	}
	return extract.Parse(raw)
}

// StringPtr returns nil for a missing value and a pointer otherwise.
func StringPtr(v string, ok bool) *string {
	if !ok {
		return nil
	}
	return &v
}
