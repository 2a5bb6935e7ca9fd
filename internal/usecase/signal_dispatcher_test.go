package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"QuantSuperior/internal/domain/models"
	"QuantSuperior/pkg/config"
)

func longResult() models.BacktestResult {
	return models.BacktestResult{
		Metrics: models.Metrics{TotalTrades: 3},
		SignalNext: models.SignalDecision{
			Signal:  models.SignalLong,
			Date:    models.Some("2024-03-06"),
			Explain: &models.SignalExplain{GapOpen: models.Some(0.005)},
		},
	}
}

func flatResult() models.BacktestResult {
	return models.BacktestResult{SignalNext: models.SignalDecision{Signal: models.SignalFlat, Date: models.Some("2024-03-06")}}
}

func TestDispatchTransports(t *testing.T) {
	n := &fakeNotifier{}
	q := &fakeQueue{}
	pub := &fakePublisher{}
	m := newFakeMetrics()
	deps := DispatcherDeps{Notifier: n, Queue: q, Publisher: pub, Metrics: m}

	for _, tr := range []string{config.TransportDirect, config.TransportQueue, config.TransportKafka} {
		d, err := NewSignalDispatcher(true, tr, deps)
		if err != nil {
			t.Fatalf("%s: %v", tr, err)
		}
		sent, err := d.Dispatch(context.Background(), "FTSEMIB.MI", longResult())
		if err != nil || !sent {
			t.Fatalf("%s: sent=%v err=%v", tr, sent, err)
		}
	}
	if len(n.alerts) != 1 || n.alerts[0].Date != "2024-03-06" || n.alerts[0].Metrics.TotalTrades != 3 {
		t.Fatalf("direct alerts %+v", n.alerts)
	}
	if len(q.types) != 1 || q.types[0] != JobSignalEmail {
		t.Fatalf("queue types %v", q.types)
	}
	if len(pub.alerts) != 1 || pub.alerts[0].Symbol != "FTSEMIB.MI" {
		t.Fatalf("kafka alerts %+v", pub.alerts)
	}
	if m.notifications[config.TransportDirect] != 1 || m.notifications[config.TransportKafka] != 1 {
		t.Fatalf("notification metrics %v", m.notifications)
	}
}

func TestDispatchSkips(t *testing.T) {
	n := &fakeNotifier{}
	d, _ := NewSignalDispatcher(true, config.TransportDirect, DispatcherDeps{Notifier: n})
	if sent, err := d.Dispatch(context.Background(), "X", flatResult()); sent || err != nil {
		t.Fatalf("flat: sent=%v err=%v", sent, err)
	}

	off, _ := NewSignalDispatcher(false, config.TransportDirect, DispatcherDeps{})
	if sent, _ := off.Dispatch(context.Background(), "X", longResult()); sent {
		t.Fatalf("disabled dispatcher must not send")
	}
	none, _ := NewSignalDispatcher(true, config.TransportNone, DispatcherDeps{})
	if sent, _ := none.Dispatch(context.Background(), "X", longResult()); sent {
		t.Fatalf("none transport must not send")
	}
	if len(n.alerts) != 0 {
		t.Fatalf("unexpected alerts %+v", n.alerts)
	}
}

func TestDispatchErrorsAndValidation(t *testing.T) {
	if _, err := NewSignalDispatcher(true, config.TransportQueue, DispatcherDeps{}); err == nil {
		t.Fatalf("queue transport without queue must fail")
	}
	if _, err := NewSignalDispatcher(true, "pigeon", DispatcherDeps{}); err == nil {
		t.Fatalf("unknown transport must fail")
	}
	d, _ := NewSignalDispatcher(true, config.TransportDirect, DispatcherDeps{Notifier: &fakeNotifier{err: errUpstream}})
	if _, err := d.Dispatch(context.Background(), "X", longResult()); err == nil {
		t.Fatalf("notifier error must surface")
	}
}

func TestAlertOnlyForLong(t *testing.T) {
	at := time.Unix(1700000000, 0)
	if _, ok := Alert("X", flatResult(), at); ok {
		t.Fatalf("flat produced alert")
	}
	a, ok := Alert("X", longResult(), at)
	if !ok || a.IssuedAt != 1700000000 || a.Explain == nil {
		t.Fatalf("alert %+v", a)
	}
}

func TestSignalAlertHandlerAndJob(t *testing.T) {
	n := &fakeNotifier{}
	m := newFakeMetrics()
	h := NewSignalAlertHandler("quant.signals", n, m)
	if h.Topic() != "quant.signals" {
		t.Fatalf("topic %s", h.Topic())
	}
	a, _ := Alert("FTSEMIB.MI", longResult(), time.Now())
	b, _ := json.Marshal(a)
	if err := h.Handle(context.Background(), b); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := h.Handle(context.Background(), []byte("{")); err == nil {
		t.Fatalf("malformed message must fail")
	}

	j := NewSignalEmailJob(n, m)
	if j.Type() != JobSignalEmail {
		t.Fatalf("job type %s", j.Type())
	}
	if err := j.Handle(context.Background(), b); err != nil {
		t.Fatalf("job: %v", err)
	}
	flat, _ := json.Marshal(models.SignalAlert{Symbol: "X", Signal: models.SignalFlat})
	if err := j.Handle(context.Background(), flat); err != nil {
		t.Fatalf("flat job: %v", err)
	}
	if len(n.alerts) != 2 || m.notifications["email"] != 2 {
		t.Fatalf("alerts=%d metrics=%v", len(n.alerts), m.notifications)
	}
}
