package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Browser   BrowserConfig
	Run       RunConfig
	Notify    NotifyConfig
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// BrowserConfig controls the Rod browser instance and per-attempt sessions.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is an optional proxy URL for all portal traffic.
	Proxy string

	// UserAgent is the desktop user-agent every session presents.
	UserAgent string

	// Locale is the navigator locale every session presents.
	Locale string // default: "en-AU"

	// ViewportWidth and ViewportHeight size every session's window.
	ViewportWidth  int // default: 1366
	ViewportHeight int // default: 900

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// BlockTrackers drops requests to known analytics and ad hosts.
	BlockTrackers bool // default: true
}

// RunConfig controls a scraping run.
type RunConfig struct {
	// RosterFile is the path to the JSON/YAML roster.
	RosterFile string // default: "./regos.json"

	// WindowDays is the lookback window for dated notices.
	WindowDays int // default: 365

	// Timezone is the reference timezone for "today" and notice dates.
	Timezone string // default: "Australia/Sydney"

	// AttemptTimeout is the hard deadline for one (vehicle, source) attempt.
	AttemptTimeout time.Duration // default: 3m

	// CaptureDir receives screenshots and page dumps on failures. Empty disables capture.
	CaptureDir string
}

// NotifyConfig controls the Google Chat card delivery.
type NotifyConfig struct {
	// WebhookURL is the Google Chat incoming webhook. Empty = log payloads.
	WebhookURL string

	// Timeout bounds a single delivery.
	Timeout time.Duration // default: 10s

	// Payee details embedded in reminder messages.
	AccountName   string
	BSB           string
	AccountNumber string
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "127.0.0.1"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 0.2

	// Burst is the maximum burst size per API key.
	Burst int // default: 2
}

// CacheConfig controls the in-memory report cache behind the check API.
type CacheConfig struct {
	// MaxEntries caps the number of cached reports.
	MaxEntries int // default: 100
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config: failed to read .env file", "error", err)
	}

	return &Config{
		Browser: BrowserConfig{
			Headless:       envBoolOr("HEADLESS", true),
			NoSandbox:      envBoolOr("TOLLWATCH_NO_SANDBOX", false),
			BrowserBin:     os.Getenv("TOLLWATCH_BROWSER_BIN"),
			Proxy:          os.Getenv("TOLLWATCH_PROXY"),
			UserAgent:      envOr("STEALTH_UA", defaultUserAgent),
			Locale:         envOr("TOLLWATCH_LOCALE", "en-AU"),
			ViewportWidth:  envIntOr("TOLLWATCH_VIEWPORT_WIDTH", 1366),
			ViewportHeight: envIntOr("TOLLWATCH_VIEWPORT_HEIGHT", 900),
			BlockedResourceTypes: envSliceOr("TOLLWATCH_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			BlockTrackers: envBoolOr("TOLLWATCH_BLOCK_TRACKERS", true),
		},
		Run: RunConfig{
			RosterFile:     envOr("REGOS_FILE", "regos.json"),
			WindowDays:     envPositiveIntOr("DAYS_TO_CHECK", 365),
			Timezone:       envOr("TOLLWATCH_TZ", "Australia/Sydney"),
			AttemptTimeout: envDurationOr("TOLLWATCH_ATTEMPT_TIMEOUT", 3*time.Minute),
			CaptureDir:     os.Getenv("TOLLWATCH_CAPTURE_DIR"),
		},
		Notify: NotifyConfig{
			WebhookURL:    os.Getenv("GOOGLE_CHAT_WEBHOOK_URL"),
			Timeout:       envDurationOr("TOLLWATCH_WEBHOOK_TIMEOUT", 10*time.Second),
			AccountName:   os.Getenv("TOLLWATCH_ACCOUNT_NAME"),
			BSB:           os.Getenv("TOLLWATCH_ACCOUNT_BSB"),
			AccountNumber: os.Getenv("TOLLWATCH_ACCOUNT_NUMBER"),
		},
		Server: ServerConfig{
			Host: envOr("TOLLWATCH_HOST", "127.0.0.1"),
			Port: envIntOr("TOLLWATCH_PORT", 8080),
			Mode: envOr("TOLLWATCH_MODE", "release"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("TOLLWATCH_AUTH_ENABLED", true),
			APIKeys: envSliceOr("TOLLWATCH_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("TOLLWATCH_RATE_RPS", 0.2),
			Burst:             envIntOr("TOLLWATCH_RATE_BURST", 2),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("TOLLWATCH_CACHE_MAX_ENTRIES", 100),
		},
		Log: LogConfig{
			Level:  envOr("TOLLWATCH_LOG_LEVEL", "info"),
			Format: envOr("TOLLWATCH_LOG_FORMAT", "text"),
		},
	}
}

// Location resolves the reference timezone, falling back to UTC with a
// warning when the name is unknown to the system tz database.
func (c RunConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		slog.Warn("config: unknown timezone, using UTC", "timezone", c.Timezone, "error", err)
		return time.UTC
	}
	return loc
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// envPositiveIntOr is envIntOr for values that must be at least 1. Zero and
// negative values are logged and replaced by fallback.
func envPositiveIntOr(key string, fallback int) int {
	i := envIntOr(key, fallback)
	if i <= 0 {
		slog.Warn("config: value must be positive, using default", "key", key, "value", i, "default", fallback)
		return fallback
	}
	return i
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
