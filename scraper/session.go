package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/tollwatch/engine"
	"github.com/use-agent/tollwatch/models"
)

// maskJS hides the usual headless signals stealth.JS leaves alone.
const maskJS = `(() => {
	try { Object.defineProperty(navigator, "webdriver", { get: () => false }); } catch (e) {}
	try { window.chrome = window.chrome || { runtime: {} }; } catch (e) {}
	try {
		Object.defineProperty(navigator, "plugins", { get: () => [1, 2, 3, 4, 5] });
		Object.defineProperty(navigator, "languages", { get: () => ["en-AU", "en"] });
	} catch (e) {}
})()`

// clearStorageJS runs on every new document of a session.
const clearStorageJS = `(() => {
	try { localStorage.clear(); } catch (e) {}
	try { sessionStorage.clear(); } catch (e) {}
})()`

// Session is one incognito browsing context holding a single page.
type Session struct {
	source     models.Source
	url        string
	incognito  *rod.Browser
	page       *rod.Page
	router     *rod.HijackRouter
	captureDir string
	closed     bool
	onClose    func()
}

// Open creates an incognito context, applies the stealth profile, loads
// url, then clears client-side storage and reloads.
//
// Lifecycle:
//
//  1. Incognito context + page
//  2. Stealth scripts (before any navigation)
//  3. Fingerprint: user agent, locale, timezone, viewport, headers
//  4. Hijack mount
//  5. Navigate, install the storage wipe, reload, wait for the DOM to settle
//
// On any failure the context is disposed before returning.
func (b *Browser) Open(ctx context.Context, source models.Source, url string) (*Session, error) {
	// ── 1. Isolated context ──────────────────────────────────────────
	inc, err := b.browser.Incognito()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to create browser context", err)
	}
	page, err := inc.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = inc.Close()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to open page", err)
	}

	b.openSession.Add(1)
	s := &Session{
		source:     source,
		url:        url,
		incognito:  inc,
		page:       page,
		captureDir: b.captureDir,
		onClose:    func() { b.openSession.Add(-1) },
	}

	if err := b.prepare(ctx, s); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (b *Browser) prepare(ctx context.Context, s *Session) error {
	page := s.page

	// ── 2. Init scripts ──────────────────────────────────────────────
	for _, js := range []string{stealth.JS, maskJS} {
		if _, err := page.EvalOnNewDocument(js); err != nil {
			slog.Warn("stealth injection failed, proceeding without it", "source", s.source, "error", err)
		}
	}

	// ── 3. Fingerprint ───────────────────────────────────────────────
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      b.cfg.UserAgent,
		AcceptLanguage: b.cfg.Locale + ",en;q=0.9",
		Platform:       "Win32",
	}); err != nil {
		slog.Warn("user agent override failed", "error", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.cfg.ViewportWidth,
		Height:            b.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		slog.Warn("viewport override failed", "error", err)
	}
	if b.timezone != "" {
		if err := (proto.EmulationSetTimezoneOverride{TimezoneID: b.timezone}).Call(page); err != nil {
			slog.Warn("timezone override failed", "timezone", b.timezone, "error", err)
		}
	}
	if err := (proto.EmulationSetLocaleOverride{Locale: b.cfg.Locale}).Call(page); err != nil {
		slog.Debug("locale override failed", "error", err)
	}
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{
			"Accept-Language": b.cfg.Locale + ",en;q=0.9",
		}),
	}.Call(page)

	// ── 4. Hijack mount ──────────────────────────────────────────────
	s.router = setupHijack(page, b.cfg.BlockedResourceTypes, b.cfg.BlockTrackers)

	// ── 5. Navigate, wipe storage, reload ────────────────────────────
	p := page.Context(ctx)
	if err := p.Navigate(s.url); err != nil {
		return categorizeError(err, s.source.Label()+": navigation failed")
	}
	_ = p.WaitLoad()

	if _, err := page.EvalOnNewDocument(clearStorageJS); err != nil {
		slog.Debug("storage wipe script not installed", "error", err)
	}
	if err := p.Reload(); err != nil {
		return categorizeError(err, s.source.Label()+": reload failed")
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
	return nil
}

// Page returns the session's page as an engine.Page.
func (s *Session) Page() engine.Page {
	return rodPage{page: s.page}
}

// Close stops the hijack router and disposes the incognito context. It
// uses the page's own background context, so an expired attempt deadline
// does not prevent cleanup. Close is idempotent.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.onClose != nil {
		s.onClose()
	}

	var errs []error
	if s.router != nil {
		if err := s.router.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.page.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.incognito.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// toHeadersMap converts a plain string map to proto.NetworkHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps navigation errors into typed ScrapeErrors.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg+" (timed out)", err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, msg+" (canceled)", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
