package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "data/marketcompass.db", cfg.Database.SQLitePath)
	assert.Equal(t, 10*time.Minute, cfg.Sources.CacheTTL)
	assert.Equal(t, "0 0 8 * * 1-5", cfg.Schedule.DailyBriefCron)

	// Trade-plan params default to the canonical values.
	assert.Equal(t, 3, cfg.Plan.SwingWindow)
	assert.InDelta(t, 0.02, cfg.Plan.ClusterThreshold, 1e-9)
	assert.InDelta(t, 30.0, cfg.Plan.OversoldRSI, 1e-9)
	assert.InDelta(t, 0.90, cfg.Plan.StopFloorMult, 1e-9)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: tok123
  chat_id: "42"
http:
  addr: ":9999"
plan:
  oversold_rsi: 35
  stop_fallback_mult: 0.95
watch:
  investors: [BRK, AKRE]
famous_investors:
  BRK: Warren Buffett
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tok123", cfg.Telegram.BotToken)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.InDelta(t, 35.0, cfg.Plan.OversoldRSI, 1e-9)
	assert.InDelta(t, 0.95, cfg.Plan.StopFallbackMult, 1e-9)
	// Unset params still default.
	assert.InDelta(t, 0.02, cfg.Plan.ClusterThreshold, 1e-9)
	assert.Equal(t, []string{"BRK", "AKRE"}, cfg.Watch.Investors)
	assert.Equal(t, "Warren Buffett", cfg.FamousInvestors["BRK"])
	assert.NoError(t, cfg.RequireTelegram())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("COMPASS_HTTP_ADDR", ":7777")
	t.Setenv("COMPASS_CACHE_TTL", "5m")
	t.Setenv("COMPASS_CLUSTER_THRESHOLD", "0.03")

	path := writeConfig(t, `
telegram:
  bot_token: file-token
http:
  addr: ":9999"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Telegram.BotToken)
	assert.Equal(t, ":7777", cfg.HTTP.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Sources.CacheTTL)
	assert.InDelta(t, 0.03, cfg.Plan.ClusterThreshold, 1e-9)
}

func TestValidateRejectsBadParams(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	cfg.Plan.SupportWeight = 1.5
	assert.Error(t, cfg.Validate())

	cfg.Plan.SupportWeight = 0.4
	cfg.Plan.SwingWindow = -1
	assert.Error(t, cfg.Validate())
}

func TestRequireTelegram(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Error(t, cfg.RequireTelegram())
}
