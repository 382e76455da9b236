package config

import "strings"

const (
	defaultAppEnv        = "dev"
	defaultAppLogLevel   = "info"
	defaultAppHTTPAddr   = ":9992"
	defaultAppLogPath    = "data/logs/yagati.log"
	defaultMarketREST    = "https://fapi.binance.com"
	defaultMarketTimeout = 15
	defaultWatchlistPath = "configs/watchlist.yaml"
	defaultScanOffset    = 10
	defaultVolHistory    = 8

	defaultVolatilityPeriod = 20
	defaultMAFast           = 20
	defaultMASlow           = 50
	defaultMATrend          = 200
	defaultRangeLookback    = 20

	defaultVolExpansion       = 2.0
	defaultVolExpansionStrong = 3.0
	defaultRangeProximityPct  = 2.0
	defaultRangeVolRatio      = 1.5
	defaultTrendFastDistPct   = 5.0
	defaultTrendSlowDistPct   = 8.0
	defaultCompressionRatio   = 0.7
	defaultExpansionRatio     = 1.5
	defaultExpansionStrong    = 2.0

	defaultMinFormingScore = 50
	defaultHighThreshold   = 75
	defaultMinRewardRisk   = 2.0

	defaultPaperCapital = 100000
	defaultRiskFraction = 0.01
	defaultRewardMult   = 2.0
	defaultStorePath    = "data/db/yagati.db"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.Scan.applyDefaults(keys)
	c.Features.applyDefaults(keys)
	c.Detect.applyDefaults(keys)
	c.Decide.applyDefaults(keys)
	c.Paper.applyDefaults(keys)
	c.Store.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("market.rest_url", &m.RESTBaseURL, defaultMarketREST),
		intFieldDefault("market.timeout_seconds", &m.TimeoutSeconds, defaultMarketTimeout),
	)
}

func (s *ScanConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("scan.watchlist_path", &s.WatchlistPath, defaultWatchlistPath),
		intFieldDefault("scan.offset_seconds", &s.OffsetSeconds, defaultScanOffset),
		intFieldDefault("scan.vol_history_size", &s.VolHistorySize, defaultVolHistory),
	)
}

func (f *FeatureConfig) applyDefaults(keys keySet) {
	if f == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("features.volatility_period", &f.VolatilityPeriod, defaultVolatilityPeriod),
		intFieldDefault("features.ma_fast", &f.MAFast, defaultMAFast),
		intFieldDefault("features.ma_slow", &f.MASlow, defaultMASlow),
		intFieldDefault("features.ma_trend", &f.MATrend, defaultMATrend),
		intFieldDefault("features.range_lookback", &f.RangeLookback, defaultRangeLookback),
	)
}

func (d *DetectConfig) applyDefaults(keys keySet) {
	if d == nil {
		return
	}
	applyFieldDefaults(keys,
		floatFieldDefault("detect.vol_expansion", &d.VolExpansion, defaultVolExpansion),
		floatFieldDefault("detect.vol_expansion_strong", &d.VolExpansionStrong, defaultVolExpansionStrong),
		floatFieldDefault("detect.range_proximity_pct", &d.RangeProximityPct, defaultRangeProximityPct),
		floatFieldDefault("detect.range_vol_ratio", &d.RangeVolRatio, defaultRangeVolRatio),
		floatFieldDefault("detect.trend_fast_dist_pct", &d.TrendFastDistPct, defaultTrendFastDistPct),
		floatFieldDefault("detect.trend_slow_dist_pct", &d.TrendSlowDistPct, defaultTrendSlowDistPct),
		floatFieldDefault("detect.compression_ratio", &d.CompressionRatio, defaultCompressionRatio),
		floatFieldDefault("detect.expansion_ratio", &d.ExpansionRatio, defaultExpansionRatio),
		floatFieldDefault("detect.expansion_strong", &d.ExpansionStrong, defaultExpansionStrong),
	)
}

func (d *DecideConfig) applyDefaults(keys keySet) {
	if d == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("decide.min_forming_score", &d.MinFormingScore, defaultMinFormingScore),
		intFieldDefault("decide.high_threshold", &d.HighThreshold, defaultHighThreshold),
		floatFieldDefault("decide.min_reward_risk", &d.MinRewardRisk, defaultMinRewardRisk),
	)
}

func (p *PaperConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	applyFieldDefaults(keys,
		floatFieldDefault("paper.initial_capital", &p.InitialCapital, defaultPaperCapital),
		floatFieldDefault("paper.risk_fraction", &p.RiskFraction, defaultRiskFraction),
		floatFieldDefault("paper.reward_multiple", &p.RewardMultiple, defaultRewardMult),
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.path", &s.Path, defaultStorePath),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func floatFieldDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
