package feature

import (
	"testing"

	"yagati/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Params {
	return Params{
		VolatilityPeriod: 4,
		MAFast:           3,
		MASlow:           5,
		MATrend:          8,
		RangeLookback:    4,
	}
}

func flatCandles(n int, close, high, low float64) []market.Candle {
	out := make([]market.Candle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, market.Candle{
			OpenTime:  int64(i) * 60_000,
			CloseTime: int64(i+1)*60_000 - 1,
			Open:      close,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    100,
		})
	}
	return out
}

func TestComputeInsufficientData(t *testing.T) {
	_, err := Compute("BTCUSDT", "1h", flatCandles(5, 100, 101, 99), testParams())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestComputeLongestLookbackMayBeVolatilityPeriod(t *testing.T) {
	// the volatility window can legitimately exceed every MA window; a short
	// candle series must come back as an error, not a slice panic
	p := Params{
		VolatilityPeriod: 30,
		MAFast:           5,
		MASlow:           10,
		MATrend:          20,
		RangeLookback:    10,
	}
	_, err := Compute("BTCUSDT", "1h", flatCandles(25, 100, 101, 99), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)

	fs, err := Compute("BTCUSDT", "1h", flatCandles(30, 100, 101, 99), p)
	require.NoError(t, err)
	assert.Equal(t, 30, fs.CandleCount)

	p.VolatilityPeriod = 10
	p.RangeLookback = 25
	_, err = Compute("BTCUSDT", "1h", flatCandles(22, 100, 101, 99), p)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestComputeFlatMarket(t *testing.T) {
	fs, err := Compute("BTCUSDT", "1h", flatCandles(10, 100, 101, 99), testParams())
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", fs.Symbol)
	assert.Equal(t, "1h", fs.Timeframe)
	assert.Equal(t, 10, fs.CandleCount)
	assert.InDelta(t, 100.0, fs.LastClose, 1e-9)

	// mean(high-low)=2 over close=100 -> 2%
	assert.InDelta(t, 2.0, fs.Volatility, 1e-9)
	assert.InDelta(t, 1.0, fs.VolatilityRatio, 1e-9)

	assert.InDelta(t, 100.0, fs.MAFast, 1e-9)
	assert.InDelta(t, 100.0, fs.MASlow, 1e-9)
	assert.InDelta(t, 100.0, fs.MATrend, 1e-9)
	assert.InDelta(t, 0.0, fs.DistFast, 1e-9)

	assert.InDelta(t, 101.0, fs.RecentHigh, 1e-9)
	assert.InDelta(t, 99.0, fs.RecentLow, 1e-9)
	assert.InDelta(t, 1.0, fs.DistToHigh, 1e-9)
	assert.InDelta(t, 1.0, fs.DistToLow, 1e-9)

	// flat stack: no alignment
	assert.InDelta(t, 0.0, fs.TrendStrength, 1e-9)

	// risk = 100-99 = 1, reward = 101-100 = 1
	assert.InDelta(t, 1.0, fs.RewardRisk.Ratio, 1e-9)
	assert.InDelta(t, 99.0, fs.RewardRisk.Support, 1e-9)
	assert.InDelta(t, 101.0, fs.RewardRisk.Resistance, 1e-9)
}

func TestComputeUptrendAlignment(t *testing.T) {
	candles := make([]market.Candle, 0, 12)
	price := 100.0
	for i := 0; i < 12; i++ {
		candles = append(candles, market.Candle{
			OpenTime:  int64(i) * 60_000,
			CloseTime: int64(i+1)*60_000 - 1,
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    100,
		})
		price += 5
	}
	fs, err := Compute("ETHUSDT", "4h", candles, testParams())
	require.NoError(t, err)

	// strictly rising closes: close > fast > slow > trend
	assert.InDelta(t, 100.0, fs.TrendStrength, 1e-9)
	assert.Greater(t, fs.DistFast, 0.0)
	assert.Greater(t, fs.DistTrend, fs.DistFast)
}

func TestComputeDeterministic(t *testing.T) {
	candles := flatCandles(10, 100, 102, 97)
	a, err := Compute("SOLUSDT", "15m", candles, testParams())
	require.NoError(t, err)
	b, err := Compute("SOLUSDT", "15m", candles, testParams())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestComputeRejectsNonPositiveClose(t *testing.T) {
	candles := flatCandles(10, 0, 1, 0)
	_, err := Compute("BAD", "1h", candles, testParams())
	assert.ErrorIs(t, err, ErrInsufficientData)
}
