package scraper

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/tollwatch/config"
	"github.com/use-agent/tollwatch/engine"
	"github.com/use-agent/tollwatch/models"
)

// Browser owns the Chromium process. Every extraction attempt gets its own
// incognito context from Open, so no cookies or storage leak between
// vehicles or portals.
type Browser struct {
	browser     *rod.Browser
	cfg         config.BrowserConfig
	timezone    string
	captureDir  string
	openSession atomic.Int32
}

// NewBrowser launches a browser with the stealth launch flags. Sessions
// take their timezone and capture directory from run.
func NewBrowser(cfg config.BrowserConfig, run config.RunConfig) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "IsolateOrigins,site-per-process,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("lang"), cfg.Locale)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL, "headless", cfg.Headless)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	return &Browser{
		browser:    browser,
		cfg:        cfg,
		timezone:   run.Timezone,
		captureDir: run.CaptureDir,
	}, nil
}

// Opener returns Open as an engine.SessionOpener.
func (b *Browser) Opener() engine.SessionOpener {
	return func(ctx context.Context, source models.Source, url string) (engine.Session, error) {
		s, err := b.Open(ctx, source, url)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// OpenSessions reports how many sessions are currently open.
func (b *Browser) OpenSessions() int {
	return int(b.openSession.Load())
}

// Close kills the browser process.
// Call this on shutdown to prevent zombie Chrome processes.
func (b *Browser) Close() {
	slog.Info("browser shutting down")
	if err := b.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
}
