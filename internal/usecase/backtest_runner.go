package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"QuantSuperior/internal/domain/models"
	drepo "QuantSuperior/internal/domain/repository"
	"QuantSuperior/internal/engine"
	"QuantSuperior/pkg/cache"
	applogger "QuantSuperior/pkg/logger"
)

// RunParams selects one backtest run.
type RunParams struct {
	Symbol  string
	Period  drepo.Period
	Limit   int
	CostBps *float64 // nil uses the configured engine cost
	NoCache bool
}

// RunOutput is a finished run: the displayed bars and what the engine made of them.
type RunOutput struct {
	Symbol string                `json:"symbol"`
	Source string                `json:"source"`
	Bars   []models.EnrichedBar  `json:"bars"`
	Result models.BacktestResult `json:"result"`
	Cached bool                  `json:"-"`
}

// BacktestRunner fetches the primary and companion series, runs the engine
// and caches the output.
type BacktestRunner struct {
	provider    drepo.BarProvider
	store       drepo.BarStore
	cache       cache.Service
	metrics     drepo.Metrics
	log         *applogger.Logger
	base        engine.Config
	indexSymbol string
	volSymbol   string
	cacheTTL    time.Duration
}

type RunnerConfig struct {
	Engine      engine.Config
	IndexSymbol string
	VolSymbol   string
	CacheTTL    time.Duration
}

// NewBacktestRunner builds a runner; store and cache may be nil.
func NewBacktestRunner(
	provider drepo.BarProvider,
	store drepo.BarStore,
	c cache.Service,
	metrics drepo.Metrics,
	log *applogger.Logger,
	cfg RunnerConfig,
) *BacktestRunner {
	if log == nil {
		log = applogger.Nop()
	}
	if cfg.IndexSymbol == "" {
		cfg.IndexSymbol = "SPY"
	}
	if cfg.VolSymbol == "" {
		cfg.VolSymbol = "^VIX"
	}
	return &BacktestRunner{
		provider:    provider,
		store:       store,
		cache:       c,
		metrics:     metrics,
		log:         log,
		base:        cfg.Engine,
		indexSymbol: cfg.IndexSymbol,
		volSymbol:   cfg.VolSymbol,
		cacheTTL:    cfg.CacheTTL,
	}
}

// CacheKey identifies a run in the response cache.
func CacheKey(p RunParams) string {
	var cost any = "base"
	if p.CostBps != nil {
		cost = *p.CostBps
	}
	return cache.Key("backtest", p.Symbol, p.Period, p.Limit, cost)
}

// Run returns the backtest for p, from cache when possible.
func (r *BacktestRunner) Run(ctx context.Context, p RunParams) (*RunOutput, error) {
	if p.Symbol == "" {
		return nil, errors.New("symbol required")
	}
	if !drepo.IsValidPeriod(p.Period) {
		p.Period = drepo.NormalizePeriod(string(p.Period))
	}
	if p.CostBps == nil {
		cost := r.base.CostBpsPerSide
		p.CostBps = &cost
	}
	if r.cache == nil || p.NoCache || r.cacheTTL <= 0 {
		return r.run(ctx, p)
	}
	out, hit, err := cache.GetOrLoad(ctx, r.cache, CacheKey(p), r.cacheTTL, func(ctx context.Context) (*RunOutput, error) {
		return r.run(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	out.Cached = hit
	return out, nil
}

func (r *BacktestRunner) run(ctx context.Context, p RunParams) (*RunOutput, error) {
	start := time.Now()

	var (
		wg               sync.WaitGroup
		primary, spy, vx series
	)
	wg.Add(3)
	go func() { defer wg.Done(); primary = r.load(ctx, p.Symbol, p.Period) }()
	go func() { defer wg.Done(); spy = r.load(ctx, r.indexSymbol, p.Period) }()
	go func() { defer wg.Done(); vx = r.load(ctx, r.volSymbol, p.Period) }()
	wg.Wait()

	if len(primary.bars) == 0 {
		if r.metrics != nil {
			r.metrics.RecordError("no_data")
		}
		if primary.err != nil {
			return nil, fmt.Errorf("%w: %s: %v", drepo.ErrNoData, p.Symbol, primary.err)
		}
		return nil, fmt.Errorf("%w: %s", drepo.ErrNoData, p.Symbol)
	}
	// companions degrade to undefined returns
	for _, c := range []series{spy, vx} {
		if c.err != nil {
			r.log.Warn("companion series unavailable", applogger.String("symbol", c.symbol), applogger.Error(c.err))
		}
	}

	cfg := r.base
	if p.CostBps != nil {
		cfg.CostBpsPerSide = *p.CostBps
	}
	obs := newLogObserver(r.log.With(applogger.String("symbol", p.Symbol)))
	eng := engine.New(cfg, engine.WithObserver(obs))

	bars := eng.Prepare(primary.bars, spy.bars, vx.bars)
	if p.Limit > 0 && len(bars) > p.Limit {
		bars = bars[len(bars)-p.Limit:]
	}
	res := eng.Run(bars)
	obs.summary(len(bars))

	if r.metrics != nil {
		r.metrics.RecordBacktest(p.Symbol, res.Metrics.TotalTrades, res.Metrics.TotalReturnPct)
		r.metrics.RecordSignal(p.Symbol, string(res.SignalNext.Signal))
		r.metrics.RecordLatency("backtest", time.Since(start).Seconds())
	}
	return &RunOutput{Symbol: p.Symbol, Source: primary.source, Bars: bars, Result: res}, nil
}

type series struct {
	symbol string
	source string
	bars   []models.PriceBar
	err    error
}

// load fetches from the provider, writes through to the store and falls back
// to the store when the provider fails or has nothing.
func (r *BacktestRunner) load(ctx context.Context, symbol string, period drepo.Period) series {
	s := series{symbol: symbol}
	bars, err := r.provider.FetchDaily(ctx, symbol, period)
	if err == nil && len(bars) > 0 {
		s.source, s.bars = r.provider.Name(), bars
		r.record(s)
		if r.store != nil {
			if serr := r.store.SaveBars(ctx, symbol, bars); serr != nil {
				r.log.Warn("bar store write failed", applogger.String("symbol", symbol), applogger.Error(serr))
			}
		}
		return s
	}
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordError("fetch")
		}
		r.log.Warn("market data fetch failed", applogger.String("symbol", symbol), applogger.Error(err))
	}
	s.err = err

	if r.store == nil {
		return s
	}
	stored, serr := r.store.LoadBars(ctx, symbol, period.ApproxBars())
	if serr != nil {
		r.log.Warn("bar store read failed", applogger.String("symbol", symbol), applogger.Error(serr))
		return s
	}
	if len(stored) > 0 {
		s.source, s.bars, s.err = "store", stored, nil
		r.record(s)
	}
	return s
}

func (r *BacktestRunner) record(s series) {
	if r.metrics != nil {
		r.metrics.RecordBars(s.source, s.symbol, len(s.bars))
	}
}

// logObserver bridges engine events to the structured logger.
type logObserver struct {
	log    *applogger.Logger
	skips  map[string]int
	trades int
}

func newLogObserver(log *applogger.Logger) *logObserver {
	return &logObserver{log: log, skips: make(map[string]int)}
}

func (o *logObserver) OnSkip(_ int, _ *models.EnrichedBar, reason string) {
	o.skips[reason]++
}

func (o *logObserver) OnTrade(_ int, t models.Trade) {
	o.trades++
	o.log.Debug("trade",
		applogger.String("entry_date", t.EntryDate),
		applogger.Float64("pnl_points", t.PnlPoints),
		applogger.Float64("return_pct", t.ReturnPct))
}

func (o *logObserver) OnSignal(d models.SignalDecision) {
	o.log.Info("next session signal",
		applogger.String("signal", string(d.Signal)),
		applogger.String("date", d.Date.Or("")))
}

func (o *logObserver) summary(rows int) {
	o.log.Debug("backtest done",
		applogger.Int("rows", rows),
		applogger.Int("trades", o.trades),
		applogger.Int("skip_filter", o.skips[engine.SkipFilter]),
		applogger.Int("skip_pattern", o.skips[engine.SkipPattern]),
		applogger.Int("skip_price", o.skips[engine.SkipEntryPrice]+o.skips[engine.SkipExitPrice]))
}
