package engine

import "QuantSuperior/internal/domain/models"

// Entry reports whether bar b passes both the filter and the pattern.
func (e *Engine) Entry(b *models.EnrichedBar) bool {
	return e.filter.Admit(b) && e.pattern.Match(b)
}

// Run simulates the overnight strategy: long at the close of every qualifying bar,
// flat at the next bar's open. The final bar never opens a trade; it feeds the
// next-session signal instead.
func (e *Engine) Run(bars []models.EnrichedBar) models.BacktestResult {
	res := models.BacktestResult{
		Trades:  []models.Trade{},
		Equity:  []models.EquityPoint{},
		Markers: []models.Marker{},
	}
	n := len(bars)
	if n <= 1 {
		res.SignalNext = models.SignalDecision{Signal: models.SignalFlat}
		if n == 1 {
			res.SignalNext.Date = models.Some(bars[0].Date)
		}
		e.obs.OnSignal(res.SignalNext)
		return res
	}

	cost := e.roundTripCost()
	equity := 1.0
	for i := 0; i < n-1; i++ {
		b := &bars[i]
		if !e.filter.Admit(b) {
			e.obs.OnSkip(i, b, SkipFilter)
			continue
		}
		if !e.pattern.Match(b) {
			e.obs.OnSkip(i, b, SkipPattern)
			continue
		}
		entry := b.Close
		if entry == 0 || !finite(entry) {
			e.obs.OnSkip(i, b, SkipEntryPrice)
			continue
		}
		next := &bars[i+1]
		exit := next.Open
		if !finite(exit) {
			e.obs.OnSkip(i, b, SkipExitPrice)
			continue
		}

		raw := exit - entry
		costPts := cost * entry
		net := raw/entry - cost
		equity *= 1 + net

		t := models.Trade{
			EntryDate:  b.Date,
			EntryTime:  b.Time,
			ExitTime:   next.Time,
			EntryClose: entry,
			ExitOpen:   exit,
			RawPoints:  raw,
			CostPoints: costPts,
			PnlPoints:  raw - costPts,
			ReturnPct:  net * 100,
			SpyRet:     b.SpyRet,
			VixRet:     b.VixRet,
		}
		res.Trades = append(res.Trades, t)
		res.Equity = append(res.Equity, models.EquityPoint{Time: next.Time, Value: equity})
		res.Markers = append(res.Markers,
			models.Marker{Time: b.Time, Kind: models.MarkerEntry},
			models.Marker{Time: next.Time, Kind: models.MarkerExit},
		)
		e.obs.OnTrade(i, t)
	}

	res.Metrics = ComputeMetrics(res.Trades, res.Equity)
	res.SignalNext = e.Signal(&bars[n-1])
	return res
}

// Backtest enriches, merges and runs in one call.
func (e *Engine) Backtest(primary, spy, vix []models.PriceBar) models.BacktestResult {
	return e.Run(e.Prepare(primary, spy, vix))
}
