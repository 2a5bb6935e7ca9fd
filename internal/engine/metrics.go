package engine

import "QuantSuperior/internal/domain/models"

// ComputeMetrics summarises a trade ledger. Values are unrounded.
func ComputeMetrics(trades []models.Trade, equity []models.EquityPoint) models.Metrics {
	if len(trades) == 0 {
		return models.Metrics{}
	}
	var wins int
	var sumPct, sumPts float64
	for _, t := range trades {
		if t.ReturnPct > 0 {
			wins++
		}
		sumPct += t.ReturnPct
		sumPts += t.PnlPoints
	}
	n := float64(len(trades))
	m := models.Metrics{
		TotalTrades: len(trades),
		WinRate:     100 * float64(wins) / n,
		AvgTradePct: sumPct / n,
		AvgPoints:   sumPts / n,
	}
	if len(equity) > 0 {
		m.TotalReturnPct = (equity[len(equity)-1].Value - 1) * 100
	}
	return m
}
