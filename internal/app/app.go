package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"yagati/internal/config"
	"yagati/internal/decide"
	"yagati/internal/detect"
	"yagati/internal/feature"
	"yagati/internal/gateway/binance"
	"yagati/internal/gateway/notifier"
	"yagati/internal/logger"
	"yagati/internal/market"
	"yagati/internal/paper"
	"yagati/internal/recorder"
	"yagati/internal/scheduler"
	"yagati/internal/store"
	"yagati/internal/store/gormstore"
	statushttp "yagati/internal/transport/http/status"

	"golang.org/x/sync/errgroup"
)

// App wires the scan pipeline together and owns all cycle state. The mutex
// serializes the scheduled cycle against manual-close requests from the HTTP
// layer; everything else the HTTP layer serves comes from the store.
type App struct {
	cfg       *config.Config
	watchlist *config.Watchlist
	source    market.Source
	store     store.Store

	featParams feature.Params
	detector   *detect.Detector
	volHist    *detect.VolHistory
	engine     *decide.Engine
	recorder   *recorder.Recorder
	notify     notifier.TextNotifier

	paperEngine *paper.Engine

	mu         sync.Mutex
	paperState paper.State

	httpSrv      *statushttp.Server
	scanInterval time.Duration

	startedAt   time.Time
	cycleCount  atomic.Int64
	lastCycleAt atomic.Int64
}

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	watchlist, err := config.NewWatchlist(cfg.Scan.WatchlistPath)
	if err != nil {
		return nil, fmt.Errorf("loading watchlist: %w", err)
	}
	snap := watchlist.Snapshot()
	interval, ok := scheduler.ShortestInterval(snap.Timeframes())
	if !ok {
		return nil, fmt.Errorf("watchlist has no parseable timeframe")
	}

	source, err := binance.New(binance.Config{
		RESTBaseURL:  cfg.Market.RESTBaseURL,
		HTTPTimeout:  time.Duration(cfg.Market.TimeoutSeconds) * time.Second,
		ProxyEnabled: cfg.Market.ProxyEnabled,
		RESTProxyURL: cfg.Market.ProxyURL,
	})
	if err != nil {
		return nil, fmt.Errorf("building market source: %w", err)
	}

	st, err := gormstore.NewGormStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	a := &App{
		cfg:       cfg,
		watchlist: watchlist,
		source:    source,
		store:     st,
		featParams: feature.Params{
			VolatilityPeriod: cfg.Features.VolatilityPeriod,
			MAFast:           cfg.Features.MAFast,
			MASlow:           cfg.Features.MASlow,
			MATrend:          cfg.Features.MATrend,
			RangeLookback:    cfg.Features.RangeLookback,
		},
		detector: detect.New(detect.Thresholds{
			VolExpansionRatio:     cfg.Detect.VolExpansion,
			VolExpansionHighRatio: cfg.Detect.VolExpansionStrong,
			RangeProximityPct:     cfg.Detect.RangeProximityPct,
			RangeVolRatio:         cfg.Detect.RangeVolRatio,
			TrendFastExtPct:       cfg.Detect.TrendFastDistPct,
			TrendSlowExtPct:       cfg.Detect.TrendSlowDistPct,
			CompressionRatio:      cfg.Detect.CompressionRatio,
			ExpansionRatio:        cfg.Detect.ExpansionRatio,
			ExpansionHighRatio:    cfg.Detect.ExpansionStrong,
		}),
		volHist:      detect.NewVolHistory(cfg.Scan.VolHistorySize),
		engine:       decide.NewEngine(scoringFromConfig(cfg)),
		recorder:     recorder.New(st),
		notify:       notifier.Noop{},
		scanInterval: interval,
		startedAt:    time.Now().UTC(),
	}

	if cfg.Notify.Telegram.Enabled {
		a.notify = notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
	}
	if cfg.Paper.Enabled {
		a.paperEngine = paper.NewEngine(paper.Config{
			InitialCapital: cfg.Paper.InitialCapital,
			RiskFraction:   cfg.Paper.RiskFraction,
			RewardMultiple: cfg.Paper.RewardMultiple,
		}, source, st)
	}

	var closer statushttp.PositionCloser
	if a.paperEngine != nil {
		closer = a
	}
	httpSrv, err := statushttp.NewServer(statushttp.ServerConfig{
		Addr:    cfg.App.HTTPAddr,
		Runtime: a,
		Router:  statushttp.NewRouter(st, closer),
	})
	if err != nil {
		return nil, fmt.Errorf("building status server: %w", err)
	}
	a.httpSrv = httpSrv

	watchlist.OnChange(func(s config.WatchlistSnapshot) {
		logger.Infof("watchlist updated: %d entries (v%d); scan cadence stays at %s until restart",
			len(s.Entries), s.Version, a.scanInterval)
	})
	return a, nil
}

// scoringFromConfig keeps the bucket weights fixed and maps only the tunable
// thresholds from configuration.
func scoringFromConfig(cfg *config.Config) decide.Scoring {
	sc := decide.DefaultScoring()
	sc.MinFormingScore = cfg.Decide.MinFormingScore
	sc.ConfidenceHigh = cfg.Decide.HighThreshold
	// the MEDIUM tier starts where forming starts, so forming decisions are
	// never tagged LOW and rejects never MEDIUM
	sc.ConfidenceMedium = cfg.Decide.MinFormingScore
	sc.VolExpansionRatio = cfg.Detect.VolExpansion
	sc.MinRewardRisk = cfg.Decide.MinRewardRisk
	return sc
}

// Run seeds persistent state and drives the aligned cycle loop plus the HTTP
// server until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.store.Close()
	defer a.source.Close()

	if err := a.recorder.Seed(ctx); err != nil {
		return err
	}
	if a.paperEngine != nil {
		state, err := a.paperEngine.LoadState(ctx)
		if err != nil {
			return fmt.Errorf("loading paper state: %w", err)
		}
		a.mu.Lock()
		a.paperState = state
		a.mu.Unlock()
		logger.Infof("paper trading enabled: equity=%.2f trades=%d open=%v",
			state.Account.Equity, state.Account.TotalTrades, state.Open != nil)
	}

	logger.InfoBlock(fmt.Sprintf(
		"yagati starting\nenv=%s interval=%s offset=%ds\nentries=%d paper=%v http=%s",
		a.cfg.App.Env, a.scanInterval, a.cfg.Scan.OffsetSeconds,
		len(a.watchlist.Snapshot().Entries), a.cfg.Paper.Enabled, a.httpSrv.Addr()))
	a.appendEvent(ctx, "heartbeat", "", "ok",
		fmt.Sprintf("started env=%s interval=%s entries=%d paper=%v",
			a.cfg.App.Env, a.scanInterval, len(a.watchlist.Snapshot().Entries), a.cfg.Paper.Enabled))

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := a.httpSrv.Start(ctx); err != nil {
			return fmt.Errorf("status http server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		sched := scheduler.NewAlignedScheduler(ctx,
			a.scanInterval, time.Duration(a.cfg.Scan.OffsetSeconds)*time.Second)
		sched.RunImmediately = a.cfg.Scan.RunImmediately
		sched.Start(func() { a.runCycle(ctx) })
		return ctx.Err()
	})

	err := group.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

// RuntimeStatus implements statushttp.RuntimeProvider.
func (a *App) RuntimeStatus() statushttp.RuntimeStatus {
	last := a.lastCycleAt.Load()
	rs := statushttp.RuntimeStatus{
		Env:           a.cfg.App.Env,
		StartedAt:     a.startedAt,
		UptimeSeconds: int64(time.Since(a.startedAt).Seconds()),
		CycleCount:    a.cycleCount.Load(),
		WatchEntries:  len(a.watchlist.Snapshot().Entries),
		PaperEnabled:  a.cfg.Paper.Enabled,
	}
	if last > 0 {
		rs.LastCycleAt = time.UnixMilli(last)
	}
	return rs
}

// CloseOpenPosition implements statushttp.PositionCloser. It competes with
// the cycle for the state mutex so the slot is never mutated concurrently.
func (a *App) CloseOpenPosition(ctx context.Context) error {
	if a.paperEngine == nil {
		return fmt.Errorf("paper trading disabled")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	st, err := a.paperEngine.ManualClose(ctx, a.paperState, 0)
	if err != nil {
		return err
	}
	a.paperState = st
	a.sendTradeClosedNote(st)
	return nil
}
