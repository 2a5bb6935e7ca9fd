package repository

import (
	"context"
	"errors"

	"QuantSuperior/internal/domain/models"
)

// ErrNoData is returned when the primary series is empty from every source.
var ErrNoData = errors.New("no data available")

// BarProvider fetches daily bars from a market-data source, ascending by date.
// An empty slice with a nil error means the source has nothing for the period.
type BarProvider interface {
	FetchDaily(ctx context.Context, symbol string, period Period) ([]models.PriceBar, error)
	Name() string
}

// BarStore persists daily bars. LoadBars returns the latest n ascending.
type BarStore interface {
	SaveBars(ctx context.Context, symbol string, bars []models.PriceBar) error
	LoadBars(ctx context.Context, symbol string, n int) ([]models.PriceBar, error)
	Health(ctx context.Context) error
}

// SignalPublisher emits a LONG alert to an event stream.
type SignalPublisher interface {
	PublishSignal(ctx context.Context, alert models.SignalAlert) error
}

// Notifier delivers a LONG alert to a human.
type Notifier interface {
	Notify(ctx context.Context, alert models.SignalAlert) error
}

type Metrics interface {
	RecordBacktest(symbol string, trades int, totalReturnPct float64)
	RecordSignal(symbol, signal string)
	RecordBars(source, symbol string, n int)
	RecordNotification(transport string, ok bool)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
