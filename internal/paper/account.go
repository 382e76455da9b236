package paper

import (
	"time"

	"yagati/internal/detect"
)

// ExitReason classifies how a position left the open slot.
type ExitReason string

const (
	ExitStop   ExitReason = "stop"
	ExitTarget ExitReason = "target"
	ExitManual ExitReason = "manual"
)

// Account is the virtual ledger. Mutated only by the engine on trade close.
type Account struct {
	Equity         float64
	InitialCapital float64
	TotalTrades    int
	WinningTrades  int
	LosingTrades   int
}

// Position is the single open slot. The engine enforces that at most one
// instance exists at any time.
type Position struct {
	ID           string
	Symbol       string
	Timeframe    string
	Direction    detect.Direction
	EntryPrice   float64
	Size         float64
	StopPrice    float64
	TargetPrice  float64
	RiskAmount   float64
	EquityAtOpen float64
	OpenedAt     time.Time
	SetupID      string
}

// ClosedTrade is the terminal form of a Position.
type ClosedTrade struct {
	Position
	ExitPrice  float64
	ClosedAt   time.Time
	PnL        float64
	PnLPercent float64
	ExitReason ExitReason
}

// State is the engine's explicit single-owner state: passed into each cycle,
// returned updated. No module-level mutable state exists.
type State struct {
	Account Account
	Open    *Position
}

func (a *Account) applyClose(pnl float64) {
	a.TotalTrades++
	if pnl > 0 {
		a.WinningTrades++
	} else {
		a.LosingTrades++
	}
	a.Equity += pnl
}
