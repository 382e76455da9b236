package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yagati/internal/decide"
	"yagati/internal/feature"
	"yagati/internal/gateway/binance"
	"yagati/internal/logger"
	"yagati/internal/store"
)

// runCycle is the single scheduled entry point: scan every watchlist entry,
// score candidates, persist setups, then hand the decisions to the paper
// engine. All state mutation happens under the app mutex.
func (a *App) runCycle(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	snap := a.watchlist.Snapshot()
	var decisions []decide.Decision
	scanned, failed := 0, 0

	for _, entry := range snap.Entries {
		if ctx.Err() != nil {
			return
		}
		ds, err := a.scanOne(ctx, entry.Symbol, entry.Timeframe)
		if err != nil {
			failed++
			logger.Warnf("cycle: scan %s %s failed: %v", entry.Symbol, entry.Timeframe, err)
			continue
		}
		scanned++
		decisions = append(decisions, ds...)
	}

	for _, d := range decisions {
		a.logDecision(ctx, d)
	}

	stats := a.recorder.Apply(ctx, decisions)
	if stats.Created > 0 || stats.Updated > 0 {
		a.sendSetupNote(decisions, stats.Created, stats.Updated)
	}

	if a.paperEngine != nil {
		a.runPaperCycle(ctx, decisions)
	}

	a.cycleCount.Add(1)
	a.lastCycleAt.Store(time.Now().UnixMilli())

	note := fmt.Sprintf("scanned=%d failed=%d decisions=%d %s elapsed=%s",
		scanned, failed, len(decisions), stats, time.Since(start).Truncate(time.Millisecond))
	a.appendEvent(ctx, "cycle_summary", "", "ok", note)
	logger.Infof("cycle: %s", note)
}

// scanOne runs fetch -> features -> detect -> decide for one watchlist entry.
func (a *App) scanOne(ctx context.Context, symbol, timeframe string) ([]decide.Decision, error) {
	limit := binance.HistoryLimitFor(a.featParams.MATrend)
	candles, err := a.source.FetchHistory(ctx, symbol, timeframe, limit)
	if err != nil {
		return nil, err
	}
	fs, err := feature.Compute(symbol, timeframe, candles, a.featParams)
	if err != nil {
		if errors.Is(err, feature.ErrInsufficientData) {
			logger.Debugf("cycle: %s %s skipped: %v", symbol, timeframe, err)
			return nil, nil
		}
		return nil, err
	}

	hist := a.volHist.Values(symbol, timeframe)
	candidates := a.detector.Scan(fs, hist)
	a.volHist.Observe(symbol, timeframe, fs.Volatility)

	return a.engine.DecideAll(candidates, fs), nil
}

// runPaperCycle isolates simulation faults: a panic inside the engine is
// downgraded to an event-log entry and the scan results stand.
func (a *App) runPaperCycle(ctx context.Context, decisions []decide.Decision) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("paper cycle panic: %v", r)
			a.appendEvent(ctx, "paper_cycle", "", "error", fmt.Sprintf("panic: %v", r))
		}
	}()

	before := a.paperState
	a.paperState = a.paperEngine.RunCycle(ctx, a.paperState, decisions)

	if a.paperState.Account.TotalTrades > before.Account.TotalTrades {
		a.sendTradeClosedNote(a.paperState)
	}
	// a close can free the slot for a different symbol within the same cycle,
	// so a new open is a changed position id, not just a filled slot
	if open := a.paperState.Open; open != nil && (before.Open == nil || before.Open.ID != open.ID) {
		a.sendTradeOpenedNote(*open)
	}
}

func (a *App) logDecision(ctx context.Context, d decide.Decision) {
	a.appendEvent(ctx, "decision",
		fmt.Sprintf("%s %s %s", d.Symbol, d.Timeframe, d.SetupType),
		string(d.Status), d.Justification)
}

func (a *App) appendEvent(ctx context.Context, cycleType, subject, status, note string) {
	ev := store.EventLog{
		CycleType: cycleType,
		Context:   subject,
		Status:    status,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.AppendEvent(ctx, ev); err != nil {
		logger.Warnf("event log write failed (%s): %v", cycleType, err)
	}
}
