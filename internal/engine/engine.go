// Package engine holds the overnight strategy core: bar enrichment, companion
// alignment, the entry filter and TOP3 pattern, the backtest loop, metrics and
// the next-session signal. It is synchronous, allocation-only and never fails on
// data-quality problems; undefined values travel as models.Opt.
package engine

import "sort"

const (
	// DefaultVolumeWindow is the trailing window of the volume statistics.
	DefaultVolumeWindow = 20
	// DefaultCostBpsPerSide is the per-leg transaction cost.
	DefaultCostBpsPerSide = 2.0
	// MinIndexReturn rejects entries after a companion index sell-off.
	MinIndexReturn = -0.005
)

// DefaultAllowedWeekdays is Monday through Thursday (Monday=0).
var DefaultAllowedWeekdays = []int{0, 1, 2, 3}

// Config is the only state an Engine carries across runs.
type Config struct {
	CostBpsPerSide  float64
	AllowedWeekdays []int
	VolumeWindow    int
}

// DefaultConfig returns the production strategy settings.
func DefaultConfig() Config {
	return Config{
		CostBpsPerSide:  DefaultCostBpsPerSide,
		AllowedWeekdays: append([]int(nil), DefaultAllowedWeekdays...),
		VolumeWindow:    DefaultVolumeWindow,
	}
}

// Option configures Engine.
type Option func(*Engine)

// WithObserver attaches an event observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.obs = o
		}
	}
}

// Engine runs the strategy over enriched bars.
type Engine struct {
	cfg     Config
	filter  Filter
	pattern Pattern
	obs     Observer
}

// New creates an Engine. Zero or invalid config fields fall back to defaults.
func New(cfg Config, opts ...Option) *Engine {
	if cfg.VolumeWindow <= 0 {
		cfg.VolumeWindow = DefaultVolumeWindow
	}
	if cfg.CostBpsPerSide < 0 {
		cfg.CostBpsPerSide = 0
	}
	if len(cfg.AllowedWeekdays) == 0 {
		cfg.AllowedWeekdays = append([]int(nil), DefaultAllowedWeekdays...)
	}
	days := append([]int(nil), cfg.AllowedWeekdays...)
	sort.Ints(days)
	cfg.AllowedWeekdays = days

	e := &Engine{
		cfg:     cfg,
		filter:  NewFilter(MinIndexReturn, days),
		pattern: TOP3(),
		obs:     NopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	c := e.cfg
	c.AllowedWeekdays = append([]int(nil), e.cfg.AllowedWeekdays...)
	return c
}

// roundTripCost is the fraction of entry price charged for both legs.
func (e *Engine) roundTripCost() float64 {
	return 2 * e.cfg.CostBpsPerSide / 10000
}
