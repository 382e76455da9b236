package paper

import (
	"context"
	"fmt"
	"sort"
	"time"

	"yagati/internal/decide"
	"yagati/internal/detect"
	"yagati/internal/logger"
	"yagati/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceSource supplies the latest traded price for stop/target monitoring.
type PriceSource interface {
	LatestPrice(ctx context.Context, symbol string) (float64, error)
}

// Ledger is the slice of the tabular store the engine writes to.
type Ledger interface {
	store.AccountStore
	store.TradeStore
}

type Config struct {
	InitialCapital float64
	RiskFraction   float64
	RewardMultiple float64
}

func DefaultConfig() Config {
	return Config{
		InitialCapital: 100000,
		RiskFraction:   0.01,
		RewardMultiple: 2.0,
	}
}

// Engine owns the Account and the single open-position slot. State goes in,
// updated state comes out; nothing here is package-level mutable.
type Engine struct {
	cfg    Config
	prices PriceSource
	ledger Ledger

	nowFn func() time.Time
	newID func() string
}

func NewEngine(cfg Config, prices PriceSource, ledger Ledger) *Engine {
	return &Engine{
		cfg:    cfg,
		prices: prices,
		ledger: ledger,
		nowFn:  func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
}

// LoadState seeds engine state from the store, creating the account row on
// first run. When the store holds more than one open trade the first is kept
// and the rest are reported; the slot invariant only ever allows one.
func (e *Engine) LoadState(ctx context.Context) (State, error) {
	acct, err := e.ledger.Account(ctx)
	if err != nil {
		return State{}, fmt.Errorf("loading account: %w", err)
	}
	if acct == nil {
		created := store.AccountState{
			Equity:         e.cfg.InitialCapital,
			InitialCapital: e.cfg.InitialCapital,
			UpdatedAt:      e.nowFn(),
		}
		if err := e.ledger.CreateAccount(ctx, created); err != nil {
			return State{}, fmt.Errorf("creating account: %w", err)
		}
		logger.Infof("paper: account initialized with %.2f", e.cfg.InitialCapital)
		acct = &created
	}

	st := State{Account: Account{
		Equity:         acct.Equity,
		InitialCapital: acct.InitialCapital,
		TotalTrades:    acct.TotalTrades,
		WinningTrades:  acct.WinningTrades,
		LosingTrades:   acct.LosingTrades,
	}}

	open, err := e.ledger.OpenTrades(ctx)
	if err != nil {
		return State{}, fmt.Errorf("loading open trades: %w", err)
	}
	for i, t := range open {
		if t.Symbol == "" || t.EntryPrice <= 0 {
			logger.Warnf("paper: ignoring invalid open trade record id=%s", t.ID)
			continue
		}
		if st.Open != nil {
			logger.Errorf("paper: open slot invariant violated in store, extra trade id=%s ignored (index %d)", t.ID, i)
			continue
		}
		pos := fromStoreOpen(t)
		st.Open = &pos
	}
	return st, nil
}

// RunCycle executes one pass of the position state machine: monitor the open
// slot if held, otherwise open from the best forming decision. A symbol closed
// this cycle is not re-opened in the same cycle.
func (e *Engine) RunCycle(ctx context.Context, st State, decisions []decide.Decision) State {
	closedSymbol := ""
	if st.Open != nil {
		st, closedSymbol = e.monitor(ctx, st)
	}
	if st.Open == nil {
		st = e.tryOpen(ctx, st, decisions, closedSymbol)
	}
	return st
}

func (e *Engine) monitor(ctx context.Context, st State) (State, string) {
	pos := st.Open
	price, err := e.prices.LatestPrice(ctx, pos.Symbol)
	if err != nil {
		logger.Warnf("paper: price fetch failed for %s, position held: %v", pos.Symbol, err)
		return st, ""
	}
	if price <= 0 {
		logger.Warnf("paper: non-positive price %.4f for %s, position held", price, pos.Symbol)
		return st, ""
	}

	reason, hit := exitCheck(pos.Direction, price, pos.StopPrice, pos.TargetPrice)
	if !hit {
		logger.Debugf("paper: %s %s holding, price=%.4f stop=%.4f target=%.4f",
			pos.Symbol, pos.Direction, price, pos.StopPrice, pos.TargetPrice)
		return st, ""
	}
	exitPrice := pos.TargetPrice
	if reason == ExitStop {
		exitPrice = pos.StopPrice
	}
	return e.close(ctx, st, exitPrice, reason)
}

// ManualClose force-exits the open position at the given price. Used by the
// operator API, never by the cycle itself.
func (e *Engine) ManualClose(ctx context.Context, st State, price float64) (State, error) {
	if st.Open == nil {
		return st, fmt.Errorf("no open position")
	}
	if price <= 0 {
		var err error
		price, err = e.prices.LatestPrice(ctx, st.Open.Symbol)
		if err != nil {
			return st, fmt.Errorf("fetching close price: %w", err)
		}
	}
	st, _ = e.close(ctx, st, price, ExitManual)
	return st, nil
}

// close converts the open position into a ClosedTrade and applies it to the
// account. Persistence failures are logged loudly; when the closed-trade row
// cannot be written the position stays open so the close retries next cycle.
func (e *Engine) close(ctx context.Context, st State, exitPrice float64, reason ExitReason) (State, string) {
	pos := st.Open
	pnl, pnlPct := PnL(pos.EntryPrice, exitPrice, pos.Size, pos.Direction)
	closed := ClosedTrade{
		Position:   *pos,
		ExitPrice:  exitPrice,
		ClosedAt:   e.nowFn(),
		PnL:        pnl,
		PnLPercent: pnlPct,
		ExitReason: reason,
	}

	if err := e.ledger.CreateClosedTrade(ctx, toStoreClosed(closed)); err != nil {
		logger.Errorf("paper: persisting closed trade %s %s failed, position kept open: %v", pos.Symbol, pos.ID, err)
		return st, ""
	}
	if err := e.ledger.DeleteOpenTrade(ctx, pos.ID); err != nil {
		logger.Errorf("paper: deleting open trade %s failed: %v", pos.ID, err)
	}

	st.Account.applyClose(pnl)
	st.Open = nil
	if err := e.ledger.UpdateAccount(ctx, e.toStoreAccount(st.Account)); err != nil {
		logger.Errorf("paper: account update after close of %s failed: %v", pos.Symbol, err)
	}

	logger.Infof("paper: closed %s %s entry=%.4f exit=%.4f pnl=%+.2f (%+.2f%%) reason=%s equity=%.2f",
		pos.Symbol, pos.Direction, pos.EntryPrice, exitPrice, pnl, pnlPct, reason, st.Account.Equity)
	return st, pos.Symbol
}

func (e *Engine) tryOpen(ctx context.Context, st State, decisions []decide.Decision, excludeSymbol string) State {
	candidates := formingByScore(decisions)
	for _, d := range candidates {
		if excludeSymbol != "" && d.Symbol == excludeSymbol {
			continue
		}
		sizing, err := ComputeSizing(st.Account.Equity, e.cfg.RiskFraction,
			d.Proposal.Entry, d.Proposal.Stop, e.cfg.RewardMultiple, d.Proposal.Direction)
		if err != nil {
			logger.Warnf("paper: rejecting %s %s candidate: %v", d.Symbol, d.SetupType, err)
			continue
		}
		pos := Position{
			ID:           e.newID(),
			Symbol:       d.Symbol,
			Timeframe:    d.Timeframe,
			Direction:    d.Proposal.Direction,
			EntryPrice:   d.Proposal.Entry,
			Size:         sizing.Size,
			StopPrice:    sizing.Stop,
			TargetPrice:  sizing.Target,
			RiskAmount:   sizing.RiskAmount,
			EquityAtOpen: st.Account.Equity,
			OpenedAt:     e.nowFn(),
			SetupID:      setupIdentity(d),
		}
		if err := e.ledger.CreateOpenTrade(ctx, toStoreOpen(pos)); err != nil {
			logger.Errorf("paper: persisting open trade %s failed: %v", pos.Symbol, err)
		}
		st.Open = &pos
		logger.Infof("paper: opened %s %s entry=%.4f size=%.6f stop=%.4f target=%.4f risk=%.2f",
			pos.Symbol, pos.Direction, pos.EntryPrice, pos.Size, pos.StopPrice, pos.TargetPrice, pos.RiskAmount)
		return st
	}
	return st
}

// exitCheck evaluates stop before target so an ambiguous cycle resolves to the
// conservative outcome. Decimal comparison avoids float epsilon surprises at
// exact level touches.
func exitCheck(dir detect.Direction, price, stop, target float64) (ExitReason, bool) {
	p := decimal.NewFromFloat(price)
	s := decimal.NewFromFloat(stop)
	t := decimal.NewFromFloat(target)
	if dir == detect.DirectionShort {
		if p.GreaterThanOrEqual(s) {
			return ExitStop, true
		}
		if p.LessThanOrEqual(t) {
			return ExitTarget, true
		}
		return "", false
	}
	if p.LessThanOrEqual(s) {
		return ExitStop, true
	}
	if p.GreaterThanOrEqual(t) {
		return ExitTarget, true
	}
	return "", false
}

func formingByScore(decisions []decide.Decision) []decide.Decision {
	out := make([]decide.Decision, 0, len(decisions))
	for _, d := range decisions {
		if d.Status == decide.StatusForming {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func setupIdentity(d decide.Decision) string {
	return d.Symbol + "|" + d.Timeframe + "|" + d.SetupType
}

func (e *Engine) toStoreAccount(a Account) store.AccountState {
	return store.AccountState{
		Equity:         a.Equity,
		InitialCapital: a.InitialCapital,
		TotalTrades:    a.TotalTrades,
		WinningTrades:  a.WinningTrades,
		LosingTrades:   a.LosingTrades,
		UpdatedAt:      e.nowFn(),
	}
}

func toStoreOpen(p Position) store.OpenTrade {
	return store.OpenTrade{
		ID:           p.ID,
		Symbol:       p.Symbol,
		Timeframe:    p.Timeframe,
		Direction:    string(p.Direction),
		EntryPrice:   p.EntryPrice,
		PositionSize: p.Size,
		StopLoss:     p.StopPrice,
		TakeProfit:   p.TargetPrice,
		RiskAmount:   p.RiskAmount,
		EquityAtOpen: p.EquityAtOpen,
		OpenedAt:     p.OpenedAt,
		SetupID:      p.SetupID,
	}
}

func toStoreClosed(t ClosedTrade) store.ClosedTrade {
	return store.ClosedTrade{
		OpenTrade:  toStoreOpen(t.Position),
		ExitPrice:  t.ExitPrice,
		ClosedAt:   t.ClosedAt,
		PnL:        t.PnL,
		PnLPercent: t.PnLPercent,
		ExitReason: string(t.ExitReason),
	}
}

func fromStoreOpen(t store.OpenTrade) Position {
	return Position{
		ID:           t.ID,
		Symbol:       t.Symbol,
		Timeframe:    t.Timeframe,
		Direction:    detect.Direction(t.Direction),
		EntryPrice:   t.EntryPrice,
		Size:         t.PositionSize,
		StopPrice:    t.StopLoss,
		TargetPrice:  t.TakeProfit,
		RiskAmount:   t.RiskAmount,
		EquityAtOpen: t.EquityAtOpen,
		OpenedAt:     t.OpenedAt,
		SetupID:      t.SetupID,
	}
}
