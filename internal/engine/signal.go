package engine

import "QuantSuperior/internal/domain/models"

// Signal evaluates the entry rules on the most recent bar. A nil bar is FLAT
// with an undefined date.
func (e *Engine) Signal(b *models.EnrichedBar) models.SignalDecision {
	d := models.SignalDecision{Signal: models.SignalFlat}
	if b == nil {
		e.obs.OnSignal(d)
		return d
	}
	d.Date = models.Some(b.Date)
	if e.Entry(b) {
		d.Signal = models.SignalLong
		d.Explain = &models.SignalExplain{
			GapOpen:   b.GapOpen,
			SpyRet:    b.SpyRet,
			VixRet:    b.VixRet,
			VolZ:      b.VolZ,
			DayOfWeek: b.DayOfWeek,
		}
	}
	e.obs.OnSignal(d)
	return d
}

// SignalFor returns the decision for the last bar of a prepared sequence.
func (e *Engine) SignalFor(bars []models.EnrichedBar) models.SignalDecision {
	if len(bars) == 0 {
		return e.Signal(nil)
	}
	return e.Signal(&bars[len(bars)-1])
}
