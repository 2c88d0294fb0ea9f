package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HEADLESS", "")
	t.Setenv("DAYS_TO_CHECK", "")
	t.Setenv("TOLLWATCH_TZ", "")
	t.Setenv("REGOS_FILE", "")

	cfg := Load()
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 365, cfg.Run.WindowDays)
	assert.Equal(t, "Australia/Sydney", cfg.Run.Timezone)
	assert.Equal(t, "regos.json", cfg.Run.RosterFile)
	assert.Equal(t, "en-AU", cfg.Browser.Locale)
	assert.Equal(t, 3*time.Minute, cfg.Run.AttemptTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HEADLESS", "false")
	t.Setenv("DAYS_TO_CHECK", "30")
	t.Setenv("TOLLWATCH_ATTEMPT_TIMEOUT", "90s")
	t.Setenv("TOLLWATCH_API_KEYS", " a , ,b ")

	cfg := Load()
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 30, cfg.Run.WindowDays)
	assert.Equal(t, 90*time.Second, cfg.Run.AttemptTimeout)
	assert.Equal(t, []string{"a", "b"}, cfg.Auth.APIKeys)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DAYS_TO_CHECK", "many")
	t.Setenv("HEADLESS", "maybe")

	cfg := Load()
	assert.Equal(t, 365, cfg.Run.WindowDays)
	assert.True(t, cfg.Browser.Headless)
}

func TestLoad_NonPositiveWindowUsesDefault(t *testing.T) {
	for _, v := range []string{"0", "-30"} {
		t.Setenv("DAYS_TO_CHECK", v)
		assert.Equal(t, 365, Load().Run.WindowDays, v)
	}
}

func TestRunConfig_Location(t *testing.T) {
	loc := RunConfig{Timezone: "Australia/Sydney"}.Location()
	require.NotNil(t, loc)
	assert.Equal(t, "Australia/Sydney", loc.String())

	assert.Equal(t, time.UTC, RunConfig{Timezone: "Nowhere/Special"}.Location())
}
