package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "app:\n  env: prod\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":9992", cfg.App.HTTPAddr)
	assert.Equal(t, "https://fapi.binance.com", cfg.Market.RESTBaseURL)
	assert.Equal(t, 15, cfg.Market.TimeoutSeconds)
	assert.Equal(t, "configs/watchlist.yaml", cfg.Scan.WatchlistPath)
	assert.Equal(t, 10, cfg.Scan.OffsetSeconds)
	assert.Equal(t, 8, cfg.Scan.VolHistorySize)
	assert.Equal(t, 20, cfg.Features.MAFast)
	assert.Equal(t, 50, cfg.Features.MASlow)
	assert.Equal(t, 200, cfg.Features.MATrend)
	assert.InDelta(t, 2.0, cfg.Detect.VolExpansion, 1e-9)
	assert.InDelta(t, 0.7, cfg.Detect.CompressionRatio, 1e-9)
	assert.Equal(t, 50, cfg.Decide.MinFormingScore)
	assert.Equal(t, 75, cfg.Decide.HighThreshold)
	assert.InDelta(t, 100000.0, cfg.Paper.InitialCapital, 1e-9)
	assert.Equal(t, "data/db/yagati.db", cfg.Store.Path)
}

func TestLoadExplicitValuesWin(t *testing.T) {
	path := writeConfig(t, `
scan:
  offset_seconds: 0
  vol_history_size: 12
decide:
  min_forming_score: 40
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// an explicit zero must not be replaced by the default
	assert.Equal(t, 0, cfg.Scan.OffsetSeconds)
	assert.Equal(t, 12, cfg.Scan.VolHistorySize)
	assert.Equal(t, 40, cfg.Decide.MinFormingScore)
}

func TestLoadValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"ma order", "features:\n  ma_fast: 50\n  ma_slow: 20\n"},
		{"forming above high", "decide:\n  min_forming_score: 80\n  high_threshold: 60\n"},
		{"telegram without token", "notify:\n  telegram:\n    enabled: true\n"},
		{"risk fraction too large", "paper:\n  enabled: true\n  risk_fraction: 0.5\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	_, err = Load("  ")
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("YAGATI_TELEGRAM_BOT_TOKEN", "tok-123")
	t.Setenv("YAGATI_TELEGRAM_CHAT_ID", "chat-456")

	path := writeConfig(t, "notify:\n  telegram:\n    enabled: true\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tok-123", cfg.Notify.Telegram.BotToken)
	assert.Equal(t, "chat-456", cfg.Notify.Telegram.ChatID)
}

func TestReadWatchlistFileGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.yaml")
	body := `
symbols:
  - ethusdt
  - BTCUSDT
  - btcusdt
timeframes:
  - 1h
  - 15M
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	entries, err := readWatchlistFile(path)
	require.NoError(t, err)

	// duplicates collapse, symbols uppercase, timeframes lowercase, sorted
	assert.Equal(t, []WatchEntry{
		{Symbol: "BTCUSDT", Timeframe: "15m"},
		{Symbol: "BTCUSDT", Timeframe: "1h"},
		{Symbol: "ETHUSDT", Timeframe: "15m"},
		{Symbol: "ETHUSDT", Timeframe: "1h"},
	}, entries)
}

func TestNewWatchlistRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("symbols: []\ntimeframes: []\n"), 0o644))

	_, err := NewWatchlist(path)
	assert.Error(t, err)
}

func TestWatchlistSnapshotTimeframes(t *testing.T) {
	snap := WatchlistSnapshot{Entries: []WatchEntry{
		{Symbol: "BTCUSDT", Timeframe: "15m"},
		{Symbol: "BTCUSDT", Timeframe: "1h"},
		{Symbol: "ETHUSDT", Timeframe: "15m"},
	}}
	assert.Equal(t, []string{"15m", "1h"}, snap.Timeframes())
}
