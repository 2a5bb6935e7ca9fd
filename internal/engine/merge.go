package engine

import "QuantSuperior/internal/domain/models"

// Merge attaches companion index and volatility returns to the enriched primary bars.
// A companion return on bar i compares the companion close on bar i's date with the
// close on the date of the primary bar immediately preceding it. If either date is
// missing from the companion, or the earlier close is zero, the return is undefined.
// The input slice is updated in place and returned.
func Merge(bars []models.EnrichedBar, spy, vix []models.PriceBar) []models.EnrichedBar {
	if len(bars) == 0 {
		return bars
	}
	spyClose := closeLookup(spy)
	vixClose := closeLookup(vix)

	// date -> first position; duplicated dates resolve to the earliest row.
	pos := make(map[string]int, len(bars))
	for i := range bars {
		if _, ok := pos[bars[i].Date]; !ok {
			pos[bars[i].Date] = i
		}
	}

	for i := range bars {
		bars[i].SpyRet = models.None[float64]()
		bars[i].VixRet = models.None[float64]()

		p, ok := pos[bars[i].Date]
		if !ok || p == 0 {
			continue
		}
		prevDate := bars[p-1].Date
		bars[i].SpyRet = companionReturn(spyClose, bars[i].Date, prevDate)
		bars[i].VixRet = companionReturn(vixClose, bars[i].Date, prevDate)
	}
	return bars
}

func closeLookup(bars []models.PriceBar) map[string]float64 {
	m := make(map[string]float64, len(bars))
	for _, b := range bars {
		m[b.Date] = b.Close
	}
	return m
}

func companionReturn(closes map[string]float64, date, prevDate string) models.OptFloat {
	cur, ok := closes[date]
	if !ok || !finite(cur) {
		return models.OptFloat{}
	}
	prev, ok := closes[prevDate]
	if !ok || prev == 0 || !finite(prev) {
		return models.OptFloat{}
	}
	return models.Some(cur/prev - 1)
}

// Prepare runs Enrich then Merge.
func (e *Engine) Prepare(primary, spy, vix []models.PriceBar) []models.EnrichedBar {
	return Merge(e.Enrich(primary), spy, vix)
}
