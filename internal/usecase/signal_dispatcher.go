package usecase

import (
	"context"
	"fmt"
	"time"

	"QuantSuperior/internal/domain/models"
	drepo "QuantSuperior/internal/domain/repository"
	"QuantSuperior/pkg/config"
	applogger "QuantSuperior/pkg/logger"
	"QuantSuperior/pkg/queue"
)

// JobSignalEmail is the queue job type carrying a SignalAlert.
const JobSignalEmail = "signal.email"

// SignalDispatcher turns a LONG decision into an alert on the configured transport.
// FLAT is a no-op. The decision is taken as given.
type SignalDispatcher struct {
	enabled   bool
	transport string
	notifier  drepo.Notifier
	queue     queue.Publisher
	publisher drepo.SignalPublisher
	metrics   drepo.Metrics
	log       *applogger.Logger
	now       func() time.Time
}

// DispatcherDeps holds the optional sinks; only the one matching the transport is required.
type DispatcherDeps struct {
	Notifier  drepo.Notifier
	Queue     queue.Publisher
	Publisher drepo.SignalPublisher
	Metrics   drepo.Metrics
	Log       *applogger.Logger
}

func NewSignalDispatcher(enabled bool, transport string, deps DispatcherDeps) (*SignalDispatcher, error) {
	if transport == "" {
		transport = config.TransportDirect
	}
	if deps.Log == nil {
		deps.Log = applogger.Nop()
	}
	d := &SignalDispatcher{
		enabled:   enabled,
		transport: transport,
		notifier:  deps.Notifier,
		queue:     deps.Queue,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		log:       deps.Log,
		now:       time.Now,
	}
	if !enabled {
		return d, nil
	}
	switch transport {
	case config.TransportNone:
	case config.TransportDirect:
		if d.notifier == nil {
			return nil, fmt.Errorf("transport %s requires a notifier", transport)
		}
	case config.TransportQueue:
		if d.queue == nil {
			return nil, fmt.Errorf("transport %s requires a queue", transport)
		}
	case config.TransportKafka:
		if d.publisher == nil {
			return nil, fmt.Errorf("transport %s requires a publisher", transport)
		}
	default:
		return nil, fmt.Errorf("unknown transport: %s", transport)
	}
	return d, nil
}

// Alert builds the alert for a run; ok is false unless the decision is LONG.
func Alert(symbol string, res models.BacktestResult, at time.Time) (models.SignalAlert, bool) {
	if res.SignalNext.Signal != models.SignalLong {
		return models.SignalAlert{}, false
	}
	return models.SignalAlert{
		Symbol:   symbol,
		Signal:   res.SignalNext.Signal,
		Date:     res.SignalNext.Date.Or(""),
		Explain:  res.SignalNext.Explain,
		Metrics:  res.Metrics,
		IssuedAt: at.Unix(),
	}, true
}

// Dispatch sends the alert for a LONG decision. It reports whether anything was sent.
func (d *SignalDispatcher) Dispatch(ctx context.Context, symbol string, res models.BacktestResult) (bool, error) {
	alert, ok := Alert(symbol, res, d.now())
	if !ok || !d.enabled || d.transport == config.TransportNone {
		return false, nil
	}

	var err error
	switch d.transport {
	case config.TransportDirect:
		err = d.notifier.Notify(ctx, alert)
	case config.TransportQueue:
		err = d.queue.Enqueue(ctx, JobSignalEmail, alert)
	case config.TransportKafka:
		err = d.publisher.PublishSignal(ctx, alert)
	}
	if d.metrics != nil {
		d.metrics.RecordNotification(d.transport, err == nil)
	}
	if err != nil {
		return false, fmt.Errorf("dispatch signal via %s: %w", d.transport, err)
	}
	d.log.Info("signal dispatched",
		applogger.String("symbol", symbol),
		applogger.String("date", alert.Date),
		applogger.String("transport", d.transport))
	return true, nil
}
