package feature

import (
	"errors"
	"fmt"

	"yagati/internal/market"

	talib "github.com/markcheno/go-talib"
)

// ErrInsufficientData marks a candle window shorter than the longest configured
// lookback. Callers skip the affected (symbol, timeframe) for the cycle.
var ErrInsufficientData = errors.New("insufficient candle data")

// Params are the deterministic lookbacks for feature computation. They come
// from configuration and never change with market state.
type Params struct {
	VolatilityPeriod int
	MAFast           int
	MASlow           int
	MATrend          int
	RangeLookback    int
}

func DefaultParams() Params {
	return Params{
		VolatilityPeriod: 20,
		MAFast:           20,
		MASlow:           50,
		MATrend:          200,
		RangeLookback:    20,
	}
}

// RewardRisk approximates reward vs risk from recent structure: resistance is
// the lookback high, support the lookback low.
type RewardRisk struct {
	Ratio      float64 `json:"ratio"`
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
}

// Set holds the derived scalars for one (symbol, timeframe, as-of) tuple.
// Immutable once computed; recomputed from the candle window every cycle.
type Set struct {
	Symbol      string `json:"symbol"`
	Timeframe   string `json:"timeframe"`
	CandleCount int    `json:"candle_count"`

	LastClose float64 `json:"last_close"`

	// Volatility is the mean high-low range over the volatility period,
	// normalized by the last close, in percent. VolatilityRatio compares it
	// against the same measure over the whole window.
	Volatility      float64 `json:"volatility"`
	VolatilityRatio float64 `json:"volatility_ratio"`

	MAFast  float64 `json:"ma_fast"`
	MASlow  float64 `json:"ma_slow"`
	MATrend float64 `json:"ma_trend"`

	// Percent distance of the last close from each moving average.
	DistFast  float64 `json:"dist_fast"`
	DistSlow  float64 `json:"dist_slow"`
	DistTrend float64 `json:"dist_trend"`

	RecentHigh float64 `json:"recent_high"`
	RecentLow  float64 `json:"recent_low"`
	DistToHigh float64 `json:"dist_to_high"`
	DistToLow  float64 `json:"dist_to_low"`

	// TrendStrength is an alignment score: 100 for a full MA stack,
	// 50 for partial alignment, 0 otherwise.
	TrendStrength float64 `json:"trend_strength"`

	RewardRisk RewardRisk `json:"reward_risk"`
}

// Compute derives the full feature set from an ascending candle window.
// Pure function, no I/O.
func Compute(symbol, timeframe string, candles []market.Candle, p Params) (Set, error) {
	longest := p.MATrend
	for _, n := range []int{p.MASlow, p.MAFast, p.VolatilityPeriod, p.RangeLookback} {
		if n > longest {
			longest = n
		}
	}
	if len(candles) < longest {
		return Set{}, fmt.Errorf("%w: %s %s has %d candles, need %d",
			ErrInsufficientData, symbol, timeframe, len(candles), longest)
	}

	closes := market.Closes(candles)
	highs := market.Highs(candles)
	lows := market.Lows(candles)
	lastClose := closes[len(closes)-1]
	if lastClose <= 0 {
		return Set{}, fmt.Errorf("%w: %s %s last close is not positive",
			ErrInsufficientData, symbol, timeframe)
	}

	maFast := lastOf(talib.Sma(closes, p.MAFast))
	maSlow := lastOf(talib.Sma(closes, p.MASlow))
	maTrend := lastOf(talib.Sma(closes, p.MATrend))

	recentHigh := lastOf(talib.Max(highs, p.RangeLookback))
	recentLow := lastOf(talib.Min(lows, p.RangeLookback))

	vol := rangeVolatility(candles[len(candles)-p.VolatilityPeriod:], lastClose)
	wholeVol := rangeVolatility(candles, lastClose)
	volRatio := 0.0
	if wholeVol > 0 {
		volRatio = vol / wholeVol
	}

	set := Set{
		Symbol:          symbol,
		Timeframe:       timeframe,
		CandleCount:     len(candles),
		LastClose:       lastClose,
		Volatility:      vol,
		VolatilityRatio: volRatio,
		MAFast:          maFast,
		MASlow:          maSlow,
		MATrend:         maTrend,
		DistFast:        pctDistance(lastClose, maFast),
		DistSlow:        pctDistance(lastClose, maSlow),
		DistTrend:       pctDistance(lastClose, maTrend),
		RecentHigh:      recentHigh,
		RecentLow:       recentLow,
		DistToHigh:      (recentHigh - lastClose) / lastClose * 100.0,
		DistToLow:       (lastClose - recentLow) / lastClose * 100.0,
		TrendStrength:   trendStrength(lastClose, maFast, maSlow, maTrend),
	}
	set.RewardRisk = rewardRiskProxy(lastClose, recentHigh, recentLow)
	return set, nil
}

// rangeVolatility is the mean high-low range of the window normalized by the
// reference close, in percent.
func rangeVolatility(candles []market.Candle, refClose float64) float64 {
	if len(candles) == 0 || refClose <= 0 {
		return 0
	}
	sum := 0.0
	for _, c := range candles {
		sum += c.High - c.Low
	}
	return sum / float64(len(candles)) / refClose * 100.0
}

func pctDistance(price, ma float64) float64 {
	if ma == 0 {
		return 0
	}
	return (price - ma) / ma * 100.0
}

func trendStrength(close, fast, slow, trend float64) float64 {
	switch {
	case close > fast && fast > slow && slow > trend:
		return 100
	case close < fast && fast < slow && slow < trend:
		return 100
	case (close > trend && fast > slow) || (close < trend && fast < slow):
		return 50
	default:
		return 0
	}
}

func rewardRiskProxy(close, resistance, support float64) RewardRisk {
	rr := RewardRisk{Support: support, Resistance: resistance}
	risk := close - support
	if risk > 0 {
		rr.Ratio = (resistance - close) / risk
	}
	return rr
}

func lastOf(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}
