package market

import "context"

// Source supplies candle history and spot prices for the scan cycle. The
// implementation owns its retry and timeout policy; callers treat any error as
// a per-(symbol, timeframe) skip.
type Source interface {
	FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)

	LatestPrice(ctx context.Context, symbol string) (float64, error)

	Close() error
}
