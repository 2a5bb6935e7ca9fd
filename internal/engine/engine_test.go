package engine

import (
	"fmt"
	"math"
	"testing"

	"QuantSuperior/internal/domain/models"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func bar(date string, t int64, open, close float64, vol int64) models.PriceBar {
	return models.PriceBar{Date: date, Time: t, Open: open, High: math.Max(open, close), Low: math.Min(open, close), Close: close, Volume: vol}
}

// matching returns an enriched bar that satisfies filter and pattern (Tuesday).
func matching(close float64) models.EnrichedBar {
	return models.EnrichedBar{
		PriceBar:  models.PriceBar{Date: "2024-01-02", Time: 1704153600, Close: close},
		GapOpen:   models.Some(0.005),
		SpyRet:    models.Some(0.004),
		VixRet:    models.Some(-0.07),
		VolZ:      models.Some(-1.0),
		DayOfWeek: models.Some(1),
	}
}

func TestRunEmpty(t *testing.T) {
	res := New(DefaultConfig()).Run(nil)
	if len(res.Trades) != 0 || len(res.Equity) != 0 || len(res.Markers) != 0 {
		t.Fatalf("expected empty ledger, got %+v", res)
	}
	if res.Metrics != (models.Metrics{}) {
		t.Fatalf("expected zero metrics, got %+v", res.Metrics)
	}
	if res.SignalNext.Signal != models.SignalFlat || res.SignalNext.Date.Valid {
		t.Fatalf("expected FLAT without date, got %+v", res.SignalNext)
	}
}

func TestRunSingleBar(t *testing.T) {
	bars := Enrich([]models.PriceBar{bar("2024-01-02", 1, 100, 100, 10)}, 20)
	res := New(DefaultConfig()).Run(bars)
	if len(res.Trades) != 0 {
		t.Fatalf("expected no trades")
	}
	if d, ok := res.SignalNext.Date.Get(); !ok || d != "2024-01-02" || res.SignalNext.Signal != models.SignalFlat {
		t.Fatalf("unexpected signal %+v", res.SignalNext)
	}
}

func TestRunNoPatternMatch(t *testing.T) {
	raw := []models.PriceBar{
		bar("2024-01-02", 1, 99, 100, 10),
		bar("2024-01-03", 2, 100, 100, 10),
	}
	res := New(DefaultConfig()).Backtest(raw, nil, nil)
	if len(res.Trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(res.Trades))
	}
	if d, _ := res.SignalNext.Date.Get(); d != "2024-01-03" {
		t.Fatalf("signal should be evaluated on last bar, got %q", d)
	}
	if res.SignalNext.Signal != models.SignalFlat || res.SignalNext.Explain != nil {
		t.Fatalf("expected FLAT without explain, got %+v", res.SignalNext)
	}
}

func TestRunMatchedTrade(t *testing.T) {
	b0 := matching(100)
	b1 := models.EnrichedBar{PriceBar: models.PriceBar{Date: "2024-01-03", Time: 1704240000, Open: 101, Close: 101}}
	res := New(DefaultConfig()).Run([]models.EnrichedBar{b0, b1})

	if len(res.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(res.Trades))
	}
	tr := res.Trades[0]
	if !near(tr.RawPoints, 1.0) || !near(tr.CostPoints, 0.04) || !near(tr.PnlPoints, 0.96) {
		t.Fatalf("unexpected points: %+v", tr)
	}
	if !near(tr.ReturnPct, 0.96) {
		t.Fatalf("expected return 0.96%%, got %v", tr.ReturnPct)
	}
	if len(res.Equity) != 1 || !near(res.Equity[0].Value, 1.0096) || res.Equity[0].Time != b1.Time {
		t.Fatalf("unexpected equity %+v", res.Equity)
	}
	if len(res.Markers) != 2 || res.Markers[0].Kind != models.MarkerEntry || res.Markers[0].Time != b0.Time ||
		res.Markers[1].Kind != models.MarkerExit || res.Markers[1].Time != b1.Time {
		t.Fatalf("unexpected markers %+v", res.Markers)
	}
	if res.Metrics.TotalTrades != 1 || !near(res.Metrics.WinRate, 100) || !near(res.Metrics.TotalReturnPct, 0.96) {
		t.Fatalf("unexpected metrics %+v", res.Metrics)
	}
	if res.Metrics.CAGR != 0 {
		t.Fatalf("cagr must stay zero")
	}
}

func TestRunZeroCost(t *testing.T) {
	b0 := matching(100)
	b1 := models.EnrichedBar{PriceBar: models.PriceBar{Date: "2024-01-03", Time: 2, Open: 99}}
	res := New(Config{CostBpsPerSide: 0}).Run([]models.EnrichedBar{b0, b1})
	if len(res.Trades) != 1 || !near(res.Trades[0].PnlPoints, -1) || !near(res.Trades[0].CostPoints, 0) {
		t.Fatalf("unexpected trade %+v", res.Trades)
	}
	if res.Metrics.WinRate != 0 {
		t.Fatalf("losing trade should not count as win")
	}
}

func TestRunSkipsBadPrices(t *testing.T) {
	zero := matching(0)
	nanExit := models.EnrichedBar{PriceBar: models.PriceBar{Date: "2024-01-03", Open: math.NaN()}}

	var reasons []string
	obs := ObserverFuncs{Skip: func(_ int, _ *models.EnrichedBar, r string) { reasons = append(reasons, r) }}
	e := New(DefaultConfig(), WithObserver(obs))

	res := e.Run([]models.EnrichedBar{zero, nanExit})
	if len(res.Trades) != 0 {
		t.Fatalf("zero entry close must not trade")
	}
	res = e.Run([]models.EnrichedBar{matching(100), nanExit})
	if len(res.Trades) != 0 {
		t.Fatalf("NaN exit open must not trade")
	}
	if len(reasons) != 2 || reasons[0] != SkipEntryPrice || reasons[1] != SkipExitPrice {
		t.Fatalf("unexpected skip reasons %v", reasons)
	}
}

func TestEquityIsProductOfNetReturns(t *testing.T) {
	bars := []models.EnrichedBar{matching(100), matching(102), matching(101), matching(103)}
	for i := range bars {
		bars[i].Open = 100 + float64(i)
		bars[i].Time = int64(i)
	}
	res := New(DefaultConfig()).Run(bars)
	if len(res.Trades) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(res.Trades))
	}
	want := 1.0
	for i, tr := range res.Trades {
		want *= 1 + tr.ReturnPct/100
		if !near(res.Equity[i].Value, want) {
			t.Fatalf("equity[%d]=%v want %v", i, res.Equity[i].Value, want)
		}
	}
	if !near(res.Metrics.TotalReturnPct, (want-1)*100) {
		t.Fatalf("total return mismatch")
	}
	if res.SignalNext.Signal != models.SignalLong || res.SignalNext.Explain == nil {
		t.Fatalf("last bar matches, expected LONG, got %+v", res.SignalNext)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	raw := make([]models.PriceBar, 0, 40)
	for i := 0; i < 40; i++ {
		raw = append(raw, bar(fmt.Sprintf("2024-02-%02d", 1+i%28), int64(i), 100+float64(i%3)*0.4, 100+float64(i%5)*0.3, int64(1000+i*13%70)))
	}
	e := New(DefaultConfig())
	a := e.Backtest(raw, raw, raw)
	b := e.Backtest(raw, raw, raw)
	if len(a.Trades) != len(b.Trades) || a.Metrics != b.Metrics || a.SignalNext.Signal != b.SignalNext.Signal {
		t.Fatalf("runs differ: %+v vs %+v", a.Metrics, b.Metrics)
	}
}

func TestNewDefaults(t *testing.T) {
	c := New(Config{}).Config()
	if c.VolumeWindow != DefaultVolumeWindow || len(c.AllowedWeekdays) != 4 {
		t.Fatalf("unexpected defaults %+v", c)
	}
}

func TestComputeMetricsMixedLedger(t *testing.T) {
	trades := []models.Trade{
		{PnlPoints: 2, ReturnPct: 1.0},
		{PnlPoints: -1, ReturnPct: -0.5},
		{PnlPoints: 0, ReturnPct: 0},
	}
	equity := []models.EquityPoint{{Value: 1.01}, {Value: 1.00495}, {Value: 1.00495}}
	m := ComputeMetrics(trades, equity)
	if m.TotalTrades != 3 {
		t.Fatalf("expected 3 trades, got %d", m.TotalTrades)
	}
	// a flat trade is not a win
	if !near(m.WinRate, 100.0/3) {
		t.Fatalf("unexpected win rate %v", m.WinRate)
	}
	if !near(m.AvgTradePct, 0.5/3) || !near(m.AvgPoints, 1.0/3) {
		t.Fatalf("unexpected averages %+v", m)
	}
	if !near(m.TotalReturnPct, 0.495) || m.CAGR != 0 {
		t.Fatalf("unexpected totals %+v", m)
	}
	if z := ComputeMetrics(nil, nil); z != (models.Metrics{}) {
		t.Fatalf("empty ledger must give zero metrics, got %+v", z)
	}
}

func TestWinRateFollowsReturnSign(t *testing.T) {
	// a negative entry close flips the sign of return_pct against pnl_points
	b0 := matching(-100)
	b1 := models.EnrichedBar{PriceBar: models.PriceBar{Date: "2024-01-03", Time: 2, Open: -99}}
	res := New(DefaultConfig()).Run([]models.EnrichedBar{b0, b1})
	if len(res.Trades) != 1 {
		t.Fatalf("expected one trade, got %+v", res.Trades)
	}
	tr := res.Trades[0]
	if tr.PnlPoints <= 0 || tr.ReturnPct >= 0 {
		t.Fatalf("expected positive points and negative return, got %+v", tr)
	}
	if res.Metrics.WinRate != 0 {
		t.Fatalf("win rate must count return_pct, got %v", res.Metrics.WinRate)
	}

	m := ComputeMetrics([]models.Trade{{PnlPoints: -0.5, ReturnPct: 0.3}}, nil)
	if m.WinRate != 100 {
		t.Fatalf("positive return is a win, got %v", m.WinRate)
	}
}
