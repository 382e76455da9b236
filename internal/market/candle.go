package market

type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Closes extracts close prices in candle order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, 0, len(candles))
	for _, c := range candles {
		out = append(out, c.Close)
	}
	return out
}

// Highs extracts high prices in candle order.
func Highs(candles []Candle) []float64 {
	out := make([]float64, 0, len(candles))
	for _, c := range candles {
		out = append(out, c.High)
	}
	return out
}

// Lows extracts low prices in candle order.
func Lows(candles []Candle) []float64 {
	out := make([]float64, 0, len(candles))
	for _, c := range candles {
		out = append(out, c.Low)
	}
	return out
}

// Sanitize drops candles that violate ascending open-time order. Gaps are
// tolerated, out-of-order or duplicate timestamps are not.
func Sanitize(candles []Candle) []Candle {
	if len(candles) <= 1 {
		return candles
	}
	out := make([]Candle, 0, len(candles))
	lastOpen := int64(-1)
	for _, c := range candles {
		if c.OpenTime <= lastOpen {
			continue
		}
		out = append(out, c)
		lastOpen = c.OpenTime
	}
	return out
}

// DropUnclosed removes the trailing candle when its close time is still in the
// future relative to nowMillis. Exchanges report the in-progress candle on the
// history endpoint and it must not feed the feature computation.
func DropUnclosed(candles []Candle, nowMillis int64) []Candle {
	if len(candles) == 0 {
		return candles
	}
	last := candles[len(candles)-1]
	if last.CloseTime > nowMillis {
		return candles[:len(candles)-1]
	}
	return candles
}
