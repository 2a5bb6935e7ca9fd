package usecase

import (
	"context"
	"errors"
	"sync"

	"QuantSuperior/internal/domain/models"
	drepo "QuantSuperior/internal/domain/repository"
)

type fakeProvider struct {
	mu    sync.Mutex
	bars  map[string][]models.PriceBar
	errs  map[string]error
	calls int
}

func (p *fakeProvider) Name() string { return "yfinance" }

func (p *fakeProvider) FetchDaily(_ context.Context, symbol string, _ drepo.Period) ([]models.PriceBar, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if err := p.errs[symbol]; err != nil {
		return nil, err
	}
	return p.bars[symbol], nil
}

type fakeStore struct {
	mu    sync.Mutex
	saved map[string][]models.PriceBar
}

func newFakeStore() *fakeStore { return &fakeStore{saved: map[string][]models.PriceBar{}} }

func (s *fakeStore) SaveBars(_ context.Context, symbol string, bars []models.PriceBar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[symbol] = bars
	return nil
}

func (s *fakeStore) LoadBars(_ context.Context, symbol string, n int) ([]models.PriceBar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bars := s.saved[symbol]
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	return bars, nil
}

func (s *fakeStore) Health(context.Context) error { return nil }

type fakeMetrics struct {
	mu            sync.Mutex
	backtests     int
	signals       []string
	notifications map[string]int
	errors        map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{notifications: map[string]int{}, errors: map[string]int{}}
}

func (m *fakeMetrics) RecordBacktest(string, int, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backtests++
}

func (m *fakeMetrics) RecordSignal(_ string, signal string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals = append(m.signals, signal)
}

func (m *fakeMetrics) RecordBars(string, string, int) {}

func (m *fakeMetrics) RecordNotification(transport string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.notifications[transport]++
	}
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []models.SignalAlert
	err    error
}

func (n *fakeNotifier) Notify(_ context.Context, a models.SignalAlert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.alerts = append(n.alerts, a)
	return nil
}

type fakeQueue struct {
	types    []string
	payloads []any
}

func (q *fakeQueue) Enqueue(_ context.Context, msgType string, payload any) error {
	q.types = append(q.types, msgType)
	q.payloads = append(q.payloads, payload)
	return nil
}

type fakePublisher struct {
	alerts []models.SignalAlert
}

func (p *fakePublisher) PublishSignal(_ context.Context, a models.SignalAlert) error {
	p.alerts = append(p.alerts, a)
	return nil
}

type fakeHub struct {
	msgs []any
}

func (h *fakeHub) Broadcast(msg any) { h.msgs = append(h.msgs, msg) }

var errUpstream = errors.New("upstream down")

// longSeries ends on a bar that satisfies TOP3 with one trade before it:
// 03-05 gaps +0.5% (trade 101 -> 101.5), 03-06 gaps +0.495% (LONG).
func longSeries() []models.PriceBar {
	return []models.PriceBar{
		{Date: "2024-03-04", Time: 1709542800, Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000},
		{Date: "2024-03-05", Time: 1709629200, Open: 100.5, High: 102, Low: 100, Close: 101, Volume: 1000},
		{Date: "2024-03-06", Time: 1709715600, Open: 101.5, High: 103, Low: 101, Close: 102, Volume: 1000},
	}
}

func spySeries() []models.PriceBar {
	return []models.PriceBar{
		{Date: "2024-03-04", Close: 500},
		{Date: "2024-03-05", Close: 501},
		{Date: "2024-03-06", Close: 502},
	}
}
