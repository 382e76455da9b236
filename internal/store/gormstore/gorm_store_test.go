package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"yagati/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	s, err := NewGormStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAccountRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acct, err := s.Account(ctx)
	require.NoError(t, err)
	assert.Nil(t, acct)

	// updating the absent row is an error, not an upsert
	err = s.UpdateAccount(ctx, store.AccountState{Equity: 1})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, s.CreateAccount(ctx, store.AccountState{
		Equity: 100000, InitialCapital: 100000,
	}))

	acct, err = s.Account(ctx)
	require.NoError(t, err)
	require.NotNil(t, acct)
	assert.InDelta(t, 100000.0, acct.Equity, 1e-9)

	require.NoError(t, s.UpdateAccount(ctx, store.AccountState{
		Equity: 102000, InitialCapital: 100000, TotalTrades: 1, WinningTrades: 1,
	}))
	acct, err = s.Account(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 102000.0, acct.Equity, 1e-9)
	assert.Equal(t, 1, acct.TotalTrades)
	// initial capital is immutable after create
	assert.InDelta(t, 100000.0, acct.InitialCapital, 1e-9)
}

func sampleOpenTrade(id string) store.OpenTrade {
	return store.OpenTrade{
		ID:           id,
		Symbol:       "btcusdt",
		Timeframe:    "1h",
		Direction:    "LONG",
		EntryPrice:   50000,
		PositionSize: 1,
		StopLoss:     49000,
		TakeProfit:   52000,
		RiskAmount:   1000,
		EquityAtOpen: 100000,
		OpenedAt:     time.UnixMilli(1_700_000_000_000),
		SetupID:      "BTCUSDT|1h|range_break_attempt",
	}
}

func TestOpenTradeLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, s.CreateOpenTrade(ctx, store.OpenTrade{}))

	require.NoError(t, s.CreateOpenTrade(ctx, sampleOpenTrade("t1")))

	open, err := s.OpenTrades(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "BTCUSDT", open[0].Symbol)
	assert.Equal(t, "1h", open[0].Timeframe)
	assert.Equal(t, int64(1_700_000_000_000), open[0].OpenedAt.UnixMilli())

	require.NoError(t, s.DeleteOpenTrade(ctx, "t1"))
	open, err = s.OpenTrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	// deleting an unknown id is a no-op
	assert.NoError(t, s.DeleteOpenTrade(ctx, "absent"))
}

func TestClosedTradesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.UnixMilli(1_700_000_000_000)
	for i, id := range []string{"c1", "c2", "c3"} {
		ct := store.ClosedTrade{
			OpenTrade:  sampleOpenTrade(id),
			ExitPrice:  52000,
			ClosedAt:   base.Add(time.Duration(i) * time.Minute),
			PnL:        2000,
			PnLPercent: 4,
			ExitReason: "target",
		}
		require.NoError(t, s.CreateClosedTrade(ctx, ct))
	}

	got, err := s.ClosedTrades(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c3", got[0].ID)
	assert.Equal(t, "c2", got[1].ID)
	assert.Equal(t, "target", got[0].ExitReason)
}

func sampleSetup(id, symbol, setupType string) store.SetupRecord {
	return store.SetupRecord{
		ID:              id,
		Symbol:          symbol,
		Timeframe:       "1h",
		SetupType:       setupType,
		Status:          "forming",
		Confidence:      "MEDIUM",
		Direction:       "LONG",
		Context:         "vol 4.50% vs avg 2.00%",
		Score:           75,
		FeatureSnapshot: []byte(`{"volatility":4.5}`),
		DetectedAt:      time.UnixMilli(1_700_000_000_000),
	}
}

func TestSetupCreateUpdateAndFormingFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSetup(ctx, sampleSetup("s1", "btcusdt", "volatility_expansion")))
	require.NoError(t, s.CreateSetup(ctx, sampleSetup("s2", "ETHUSDT", "trend_acceleration")))

	forming, err := s.FormingSetups(ctx)
	require.NoError(t, err)
	assert.Len(t, forming, 2)
	for _, rec := range forming {
		assert.Contains(t, []string{"BTCUSDT", "ETHUSDT"}, rec.Symbol)
	}

	// update matches on identity regardless of symbol casing
	upd := sampleSetup("", "btcusdt", "volatility_expansion")
	upd.Confidence = "HIGH"
	upd.Score = 100
	require.NoError(t, s.UpdateSetup(ctx, upd))

	forming, err = s.FormingSetups(ctx)
	require.NoError(t, err)
	for _, rec := range forming {
		if rec.ID == "s1" {
			assert.Equal(t, "HIGH", rec.Confidence)
			assert.Equal(t, 100, rec.Score)
		}
	}

	missing := sampleSetup("", "BTCUSDT", "compression_expansion")
	assert.ErrorIs(t, s.UpdateSetup(ctx, missing), gorm.ErrRecordNotFound)

	// a non-forming row drops out of the filter
	done := sampleSetup("", "ETHUSDT", "trend_acceleration")
	done.Status = "invalidated"
	require.NoError(t, s.UpdateSetup(ctx, done))
	forming, err = s.FormingSetups(ctx)
	require.NoError(t, err)
	require.Len(t, forming, 1)
	assert.Equal(t, "s1", forming[0].ID)
}

func TestEventLogOrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.UnixMilli(1_700_000_000_000)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.AppendEvent(ctx, store.EventLog{
			CycleType: "decision",
			Context:   "BTCUSDT 1h volatility_expansion",
			Status:    "forming",
			Note:      "score 75/100",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	events, err := s.RecentEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].CreatedAt.After(events[1].CreatedAt))
	assert.Equal(t, "decision", events[0].CycleType)
}
