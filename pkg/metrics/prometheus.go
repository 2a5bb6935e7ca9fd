package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	backtests     *prometheus.CounterVec
	trades        *prometheus.HistogramVec
	signals       *prometheus.CounterVec
	barsFetched   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	lastEquity    *prometheus.GaugeVec
}

// New registers the collectors on reg; nil means the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		backtests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quant_backtests_total",
			Help: "Backtest runs by symbol",
		}, []string{"symbol"}),
		trades: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quant_backtest_trades",
			Help:    "Trades produced per backtest run",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}, []string{"symbol"}),
		signals: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quant_signals_total",
			Help: "Next-session decisions by kind",
		}, []string{"symbol", "signal"}),
		barsFetched: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quant_bars_fetched_total",
			Help: "Daily bars loaded by source",
		}, []string{"source", "symbol"}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quant_notifications_total",
			Help: "Signal notifications by transport and outcome",
		}, []string{"transport", "outcome"}),
		errorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quant_errors_total",
			Help: "Errors by kind",
		}, []string{"type"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quant_operation_duration_seconds",
			Help:    "Duration of operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		lastEquity: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "quant_last_total_return_pct",
			Help: "Total return of the most recent backtest",
		}, []string{"symbol"}),
	}
}

func (r *Recorder) RecordBacktest(symbol string, trades int, totalReturnPct float64) {
	r.backtests.WithLabelValues(symbol).Inc()
	r.trades.WithLabelValues(symbol).Observe(float64(trades))
	r.lastEquity.WithLabelValues(symbol).Set(totalReturnPct)
}

func (r *Recorder) RecordSignal(symbol, signal string) {
	r.signals.WithLabelValues(symbol, signal).Inc()
}

func (r *Recorder) RecordBars(source, symbol string, n int) {
	r.barsFetched.WithLabelValues(source, symbol).Add(float64(n))
}

func (r *Recorder) RecordNotification(transport string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	r.notifications.WithLabelValues(transport, outcome).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
