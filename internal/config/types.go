package config

import "strings"

// Config is the top-level configuration carrier.
type Config struct {
	App      AppConfig     `toml:"app"`
	Market   MarketConfig  `toml:"market"`
	Scan     ScanConfig    `toml:"scan"`
	Features FeatureConfig `toml:"features"`
	Detect   DetectConfig  `toml:"detect"`
	Decide   DecideConfig  `toml:"decide"`
	Paper    PaperConfig   `toml:"paper"`
	Store    StoreConfig   `toml:"store"`
	Notify   NotifyConfig  `toml:"notify"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

type MarketConfig struct {
	RESTBaseURL    string `toml:"rest_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	ProxyEnabled   bool   `toml:"proxy_enabled"`
	ProxyURL       string `toml:"proxy_url"`
}

// ScanConfig drives the aligned cycle loop. The cadence follows the shortest
// timeframe on the watchlist; offset gives the exchange time to finalize the
// closed candle before we fetch.
type ScanConfig struct {
	WatchlistPath  string `toml:"watchlist_path"`
	OffsetSeconds  int    `toml:"offset_seconds"`
	RunImmediately bool   `toml:"run_immediately"`
	VolHistorySize int    `toml:"vol_history_size"`
}

type FeatureConfig struct {
	VolatilityPeriod int `toml:"volatility_period"`
	MAFast           int `toml:"ma_fast"`
	MASlow           int `toml:"ma_slow"`
	MATrend          int `toml:"ma_trend"`
	RangeLookback    int `toml:"range_lookback"`
}

type DetectConfig struct {
	VolExpansion       float64 `toml:"vol_expansion"`
	VolExpansionStrong float64 `toml:"vol_expansion_strong"`
	RangeProximityPct  float64 `toml:"range_proximity_pct"`
	RangeVolRatio      float64 `toml:"range_vol_ratio"`
	TrendFastDistPct   float64 `toml:"trend_fast_dist_pct"`
	TrendSlowDistPct   float64 `toml:"trend_slow_dist_pct"`
	CompressionRatio   float64 `toml:"compression_ratio"`
	ExpansionRatio     float64 `toml:"expansion_ratio"`
	ExpansionStrong    float64 `toml:"expansion_strong"`
}

type DecideConfig struct {
	MinFormingScore int     `toml:"min_forming_score"`
	HighThreshold   int     `toml:"high_threshold"`
	MinRewardRisk   float64 `toml:"min_reward_risk"`
}

type PaperConfig struct {
	Enabled        bool    `toml:"enabled"`
	InitialCapital float64 `toml:"initial_capital"`
	RiskFraction   float64 `toml:"risk_fraction"`
	RewardMultiple float64 `toml:"reward_multiple"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
