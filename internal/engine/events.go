package engine

import "QuantSuperior/internal/domain/models"

// Skip reasons reported to observers.
const (
	SkipFilter     = "filter"
	SkipPattern    = "pattern"
	SkipEntryPrice = "entry_price"
	SkipExitPrice  = "exit_price"
)

// Observer receives engine events. Implementations must not retain the bar pointer.
type Observer interface {
	OnSkip(index int, bar *models.EnrichedBar, reason string)
	OnTrade(index int, t models.Trade)
	OnSignal(d models.SignalDecision)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnSkip(int, *models.EnrichedBar, string) {}
func (NopObserver) OnTrade(int, models.Trade)              {}
func (NopObserver) OnSignal(models.SignalDecision)         {}

// ObserverFuncs adapts plain functions to Observer. Nil functions are no-ops.
type ObserverFuncs struct {
	Skip   func(int, *models.EnrichedBar, string)
	Trade  func(int, models.Trade)
	Signal func(models.SignalDecision)
}

func (f ObserverFuncs) OnSkip(i int, b *models.EnrichedBar, reason string) {
	if f.Skip != nil {
		f.Skip(i, b, reason)
	}
}

func (f ObserverFuncs) OnTrade(i int, t models.Trade) {
	if f.Trade != nil {
		f.Trade(i, t)
	}
}

func (f ObserverFuncs) OnSignal(d models.SignalDecision) {
	if f.Signal != nil {
		f.Signal(d)
	}
}
