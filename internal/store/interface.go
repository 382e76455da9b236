package store

import (
	"context"
	"time"
)

// AccountState is the single-row virtual ledger. Read at cycle start, written
// at most once per cycle by the paper trading engine.
type AccountState struct {
	Equity         float64
	InitialCapital float64
	TotalTrades    int
	WinningTrades  int
	LosingTrades   int
	UpdatedAt      time.Time
}

// OpenTrade mirrors the open-position slot in the trade ledger.
type OpenTrade struct {
	ID           string
	Symbol       string
	Timeframe    string
	Direction    string
	EntryPrice   float64
	PositionSize float64
	StopLoss     float64
	TakeProfit   float64
	RiskAmount   float64
	EquityAtOpen float64
	OpenedAt     time.Time
	SetupID      string
}

// ClosedTrade extends OpenTrade with the exit block. Append-only.
type ClosedTrade struct {
	OpenTrade
	ExitPrice  float64
	ClosedAt   time.Time
	PnL        float64
	PnLPercent float64
	ExitReason string
}

// SetupRecord is one live row per dedup identity (symbol, timeframe,
// setup_type) in the setups table.
type SetupRecord struct {
	ID              string
	Symbol          string
	Timeframe       string
	SetupType       string
	Status          string
	Confidence      string
	Direction       string
	Context         string
	Score           int
	FeatureSnapshot []byte
	DetectedAt      time.Time
}

// EventLog is one row in the append-only governance log: heartbeats, cycle
// summaries, decisions (forming and reject alike) and explicit errors.
type EventLog struct {
	ID        int64
	CycleType string
	Context   string
	Status    string
	Note      string
	CreatedAt time.Time
}

type AccountStore interface {
	// Account returns nil without error when no account row exists yet.
	Account(ctx context.Context) (*AccountState, error)
	CreateAccount(ctx context.Context, st AccountState) error
	UpdateAccount(ctx context.Context, st AccountState) error
}

type TradeStore interface {
	OpenTrades(ctx context.Context) ([]OpenTrade, error)
	CreateOpenTrade(ctx context.Context, t OpenTrade) error
	DeleteOpenTrade(ctx context.Context, id string) error
	CreateClosedTrade(ctx context.Context, t ClosedTrade) error
	ClosedTrades(ctx context.Context, limit int) ([]ClosedTrade, error)
}

type SetupStore interface {
	FormingSetups(ctx context.Context) ([]SetupRecord, error)
	CreateSetup(ctx context.Context, rec SetupRecord) error
	UpdateSetup(ctx context.Context, rec SetupRecord) error
}

type EventStore interface {
	AppendEvent(ctx context.Context, ev EventLog) error
	RecentEvents(ctx context.Context, limit int) ([]EventLog, error)
}

// Store is the full tabular persistence surface.
type Store interface {
	AccountStore
	TradeStore
	SetupStore
	EventStore
	Close() error
}
