package model

import "gorm.io/datatypes"

// AccountModel maps to 'paper_account'. A single row per deployment.
type AccountModel struct {
	ID             int64   `gorm:"column:id;primaryKey"`
	Equity         float64 `gorm:"column:equity"`
	InitialCapital float64 `gorm:"column:initial_capital"`
	TotalTrades    int     `gorm:"column:total_trades"`
	WinningTrades  int     `gorm:"column:winning_trades"`
	LosingTrades   int     `gorm:"column:losing_trades"`
	UpdatedAtUnix  int64   `gorm:"column:updated_at"`
}

func (AccountModel) TableName() string { return "paper_account" }

// OpenTradeModel maps to 'open_trades'. The slot invariant keeps this table at
// zero or one rows; the schema does not enforce it.
type OpenTradeModel struct {
	ID            string  `gorm:"column:id;primaryKey"`
	Symbol        string  `gorm:"column:symbol;index"`
	Timeframe     string  `gorm:"column:timeframe"`
	Direction     string  `gorm:"column:direction"`
	EntryPrice    float64 `gorm:"column:entry_price"`
	PositionSize  float64 `gorm:"column:position_size"`
	StopLoss      float64 `gorm:"column:stop_loss"`
	TakeProfit    float64 `gorm:"column:take_profit"`
	RiskAmount    float64 `gorm:"column:risk_amount"`
	EquityAtOpen  float64 `gorm:"column:equity_at_open"`
	OpenedAtUnix  int64   `gorm:"column:opened_at"`
	SetupIdentity string  `gorm:"column:setup_identity"`
}

func (OpenTradeModel) TableName() string { return "open_trades" }

// ClosedTradeModel maps to 'closed_trades'. Append-only.
type ClosedTradeModel struct {
	ID            string  `gorm:"column:id;primaryKey"`
	Symbol        string  `gorm:"column:symbol;index"`
	Timeframe     string  `gorm:"column:timeframe"`
	Direction     string  `gorm:"column:direction"`
	EntryPrice    float64 `gorm:"column:entry_price"`
	PositionSize  float64 `gorm:"column:position_size"`
	StopLoss      float64 `gorm:"column:stop_loss"`
	TakeProfit    float64 `gorm:"column:take_profit"`
	RiskAmount    float64 `gorm:"column:risk_amount"`
	EquityAtOpen  float64 `gorm:"column:equity_at_open"`
	OpenedAtUnix  int64   `gorm:"column:opened_at"`
	SetupIdentity string  `gorm:"column:setup_identity"`
	ExitPrice     float64 `gorm:"column:exit_price"`
	ClosedAtUnix  int64   `gorm:"column:closed_at;index"`
	PnL           float64 `gorm:"column:pnl"`
	PnLPercent    float64 `gorm:"column:pnl_percent"`
	ExitReason    string  `gorm:"column:exit_reason"`
}

func (ClosedTradeModel) TableName() string { return "closed_trades" }

// SetupModel maps to 'setups'. One live row per (symbol, timeframe,
// setup_type) identity, kept current by the recorder.
type SetupModel struct {
	ID              string         `gorm:"column:id;primaryKey"`
	Symbol          string         `gorm:"column:symbol;uniqueIndex:idx_setup_identity"`
	Timeframe       string         `gorm:"column:timeframe;uniqueIndex:idx_setup_identity"`
	SetupType       string         `gorm:"column:setup_type;uniqueIndex:idx_setup_identity"`
	Status          string         `gorm:"column:status;index"`
	Confidence      string         `gorm:"column:confidence"`
	Direction       string         `gorm:"column:direction"`
	Context         string         `gorm:"column:context"`
	Score           int            `gorm:"column:score"`
	FeatureSnapshot datatypes.JSON `gorm:"column:feature_snapshot"`
	DetectedAtUnix  int64          `gorm:"column:detected_at"`
}

func (SetupModel) TableName() string { return "setups" }

// EventLogModel maps to 'event_log'. Append-only cycle and decision journal.
type EventLogModel struct {
	ID            int64  `gorm:"column:id;primaryKey"`
	CycleType     string `gorm:"column:cycle_type;index"`
	Context       string `gorm:"column:context"`
	Status        string `gorm:"column:status"`
	Note          string `gorm:"column:note"`
	CreatedAtUnix int64  `gorm:"column:created_at;index"`
}

func (EventLogModel) TableName() string { return "event_log" }
