package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"QuantSuperior/internal/domain/models"
	drepo "QuantSuperior/internal/domain/repository"
	"QuantSuperior/pkg/queue"
)

// SignalAlertHandler consumes alerts from the signals topic and notifies.
type SignalAlertHandler struct {
	topic    string
	notifier drepo.Notifier
	metrics  drepo.Metrics
}

func NewSignalAlertHandler(topic string, notifier drepo.Notifier, metrics drepo.Metrics) *SignalAlertHandler {
	return &SignalAlertHandler{topic: topic, notifier: notifier, metrics: metrics}
}

func (h *SignalAlertHandler) Topic() string { return h.topic }

func (h *SignalAlertHandler) Handle(ctx context.Context, b []byte) error {
	var alert models.SignalAlert
	if err := json.Unmarshal(b, &alert); err != nil {
		h.record(false)
		return fmt.Errorf("decode alert: %w", err)
	}
	return h.notify(ctx, alert)
}

func (h *SignalAlertHandler) notify(ctx context.Context, alert models.SignalAlert) error {
	if alert.Signal != models.SignalLong {
		return nil
	}
	err := h.notifier.Notify(ctx, alert)
	h.record(err == nil)
	return err
}

func (h *SignalAlertHandler) record(ok bool) {
	if h.metrics != nil {
		h.metrics.RecordNotification("email", ok)
	}
}

// SignalEmailJob is the queue side of the same delivery.
type SignalEmailJob struct {
	h *SignalAlertHandler
}

func NewSignalEmailJob(notifier drepo.Notifier, metrics drepo.Metrics) *SignalEmailJob {
	return &SignalEmailJob{h: &SignalAlertHandler{notifier: notifier, metrics: metrics}}
}

var _ queue.Job = (*SignalEmailJob)(nil)

func (j *SignalEmailJob) Name() string { return "signal-email" }
func (j *SignalEmailJob) Type() string { return JobSignalEmail }

func (j *SignalEmailJob) Handle(ctx context.Context, payload json.RawMessage) error {
	alert, err := queue.ParsePayload[models.SignalAlert](payload)
	if err != nil {
		j.h.record(false)
		return err
	}
	return j.h.notify(ctx, *alert)
}
