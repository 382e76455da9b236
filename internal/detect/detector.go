package detect

import (
	"fmt"

	"yagati/internal/feature"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

const (
	SetupVolatilityExpansion  = "volatility_expansion"
	SetupRangeBreakAttempt    = "range_break_attempt"
	SetupTrendAcceleration    = "trend_acceleration"
	SetupCompressionExpansion = "compression_expansion"
)

// Candidate is an ephemeral detection result. Identity for deduplication is
// (Symbol, Timeframe, SetupType).
type Candidate struct {
	Symbol     string
	Timeframe  string
	SetupType  string
	Confidence Confidence
	Direction  Direction
	Context    string
}

// Thresholds are the named detection constants. Determinism requires they are
// configuration, never derived from market state.
type Thresholds struct {
	VolExpansionRatio     float64
	VolExpansionHighRatio float64
	RangeProximityPct     float64
	RangeVolRatio         float64
	TrendFastExtPct       float64
	TrendSlowExtPct       float64
	CompressionRatio      float64
	ExpansionRatio        float64
	ExpansionHighRatio    float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		VolExpansionRatio:     2.0,
		VolExpansionHighRatio: 3.0,
		RangeProximityPct:     2.0,
		RangeVolRatio:         1.5,
		TrendFastExtPct:       5.0,
		TrendSlowExtPct:       8.0,
		CompressionRatio:      0.7,
		ExpansionRatio:        1.5,
		ExpansionHighRatio:    2.0,
	}
}

// Rule is one pure detection strategy. Rules never see each other's output and
// never short-circuit the scan.
type Rule func(fs feature.Set, volHistory []float64, th Thresholds) (Candidate, bool)

// Detector evaluates the fixed rule set against one feature set plus the
// rolling volatility history for the same (symbol, timeframe).
type Detector struct {
	th    Thresholds
	rules []Rule
}

func New(th Thresholds) *Detector {
	return &Detector{
		th: th,
		rules: []Rule{
			volatilityExpansion,
			rangeBreakAttempt,
			trendAcceleration,
			compressionExpansion,
		},
	}
}

// Scan runs every rule independently and returns the candidates in rule order.
// Identical inputs always produce the identical candidate list.
func (d *Detector) Scan(fs feature.Set, volHistory []float64) []Candidate {
	var out []Candidate
	for _, rule := range d.rules {
		if c, ok := rule(fs, volHistory, d.th); ok {
			c.Symbol = fs.Symbol
			c.Timeframe = fs.Timeframe
			out = append(out, c)
		}
	}
	return out
}

func volatilityExpansion(fs feature.Set, hist []float64, th Thresholds) (Candidate, bool) {
	avg := mean(hist)
	if avg <= 0 {
		return Candidate{}, false
	}
	if fs.Volatility <= th.VolExpansionRatio*avg {
		return Candidate{}, false
	}
	conf := ConfidenceMedium
	if fs.Volatility > th.VolExpansionHighRatio*avg {
		conf = ConfidenceHigh
	}
	return Candidate{
		SetupType:  SetupVolatilityExpansion,
		Confidence: conf,
		Direction:  directionFromTrend(fs),
		Context:    fmt.Sprintf("current_vol=%.2f%% vs avg=%.2f%%", fs.Volatility, avg),
	}, true
}

func rangeBreakAttempt(fs feature.Set, hist []float64, th Thresholds) (Candidate, bool) {
	avg := mean(hist)
	if avg <= 0 {
		return Candidate{}, false
	}
	nearHigh := fs.DistToHigh < th.RangeProximityPct
	nearLow := fs.DistToLow < th.RangeProximityPct
	if !nearHigh && !nearLow {
		return Candidate{}, false
	}
	if fs.Volatility <= th.RangeVolRatio*avg {
		return Candidate{}, false
	}
	dir := DirectionLong
	side := "upside"
	if nearLow && (!nearHigh || fs.DistToLow < fs.DistToHigh) {
		dir = DirectionShort
		side = "downside"
	}
	return Candidate{
		SetupType:  SetupRangeBreakAttempt,
		Confidence: ConfidenceMedium,
		Direction:  dir,
		Context:    fmt.Sprintf("%s break attempt, vol %.2f%% vs avg %.2f%%", side, fs.Volatility, avg),
	}, true
}

func trendAcceleration(fs feature.Set, _ []float64, th Thresholds) (Candidate, bool) {
	extendedFast := abs(fs.DistFast) > th.TrendFastExtPct
	extendedSlow := abs(fs.DistSlow) > th.TrendSlowExtPct
	if !extendedFast && !extendedSlow {
		return Candidate{}, false
	}
	conf := ConfidenceMedium
	if extendedSlow {
		conf = ConfidenceHigh
	}
	dir := DirectionLong
	side := "up"
	if fs.DistFast < 0 {
		dir = DirectionShort
		side = "down"
	}
	return Candidate{
		SetupType:  SetupTrendAcceleration,
		Confidence: conf,
		Direction:  dir,
		Context:    fmt.Sprintf("extended %s, fast_dist=%.1f%% slow_dist=%.1f%%", side, fs.DistFast, fs.DistSlow),
	}, true
}

// compressionExpansion fires when the previous volatility observation sat below
// the compression ratio of its own recent average, and the current volatility
// has expanded off that compressed base.
func compressionExpansion(fs feature.Set, hist []float64, th Thresholds) (Candidate, bool) {
	if len(hist) < 2 {
		return Candidate{}, false
	}
	prior := hist[len(hist)-1]
	base := mean(hist[:len(hist)-1])
	if prior <= 0 || base <= 0 {
		return Candidate{}, false
	}
	compressed := prior < th.CompressionRatio*base
	expanded := fs.Volatility > th.ExpansionRatio*prior
	if !compressed || !expanded {
		return Candidate{}, false
	}
	conf := ConfidenceMedium
	if fs.Volatility > th.ExpansionHighRatio*prior {
		conf = ConfidenceHigh
	}
	return Candidate{
		SetupType:  SetupCompressionExpansion,
		Confidence: conf,
		Direction:  directionFromTrend(fs),
		Context:    fmt.Sprintf("squeeze release, vol %.2f%% -> %.2f%%", prior, fs.Volatility),
	}, true
}

func directionFromTrend(fs feature.Set) Direction {
	if fs.DistFast < 0 {
		return DirectionShort
	}
	return DirectionLong
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
