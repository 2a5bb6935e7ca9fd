package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"

	applogger "QuantSuperior/pkg/logger"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	mu        sync.Mutex
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

type flakyHandler struct {
	topic    string
	failures int
	calls    int
}

func (h *flakyHandler) Topic() string { return h.topic }

func (h *flakyHandler) Handle(context.Context, []byte) error {
	h.calls++
	if h.calls <= h.failures {
		return errors.New("transient")
	}
	return nil
}

func TestProducerPublishJSON(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "snappy", prometheus.NewRegistry())

	if err := p.Publish(context.Background(), "quant.signals", []byte("FTSEMIB.MI"), map[string]string{"signal": "LONG"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 || w.msgs[0].Topic != "quant.signals" || string(w.msgs[0].Key) != "FTSEMIB.MI" {
		t.Fatalf("unexpected message %+v", w.msgs)
	}
	var body map[string]string
	if err := json.Unmarshal(w.msgs[0].Value, &body); err != nil || body["signal"] != "LONG" {
		t.Fatalf("payload %s", w.msgs[0].Value)
	}

	w.err = errors.New("broker down")
	if err := p.PublishMessage(context.Background(), "t", "x"); err == nil {
		t.Fatalf("expected publish error")
	}
}

func newTestConsumer(t *testing.T, h MessageHandler, retry int) (*Consumer, *fakeReader, *fakeWriter) {
	t.Helper()
	c, err := NewConsumer(applogger.Nop(),
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(retry, time.Millisecond, time.Millisecond),
	)
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	c.RegisterHandler(h)
	r := &fakeReader{}
	c.readers[h.Topic()] = r
	dlq := &fakeWriter{}
	c.dlq = dlq
	c.cfg.DLQTopic = "dlq"
	return c, r, dlq
}

func TestConsumerRetriesThenCommits(t *testing.T) {
	h := &flakyHandler{topic: "signals", failures: 2}
	c, r, dlq := newTestConsumer(t, h, 3)

	var attempts []int
	c.SetHook(HookFuncs{After: func(_ context.Context, _ kafka.Message, attempt int, _ error) {
		attempts = append(attempts, attempt)
	}})

	c.process(context.Background(), kafka.Message{Topic: "signals", Value: []byte(`{}`)})
	if h.calls != 3 || len(attempts) != 3 {
		t.Fatalf("calls=%d attempts=%v", h.calls, attempts)
	}
	if len(r.committed) != 1 || len(dlq.msgs) != 0 {
		t.Fatalf("committed=%d dlq=%d", len(r.committed), len(dlq.msgs))
	}
}

func TestConsumerDeadLetters(t *testing.T) {
	h := &flakyHandler{topic: "signals", failures: 100}
	c, r, dlq := newTestConsumer(t, h, 1)

	c.process(context.Background(), kafka.Message{Topic: "signals", Value: []byte(`bad`)})
	if h.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", h.calls)
	}
	if len(dlq.msgs) != 1 || HeaderValue(dlq.msgs[0], "source_topic") != "signals" {
		t.Fatalf("dlq=%+v", dlq.msgs)
	}
	if len(r.committed) != 1 {
		t.Fatalf("dead-lettered message must be committed")
	}
}

func TestConsumerStartStop(t *testing.T) {
	h := &flakyHandler{topic: "signals"}
	c, _, _ := newTestConsumer(t, h, 0)
	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestHookChainTrace(t *testing.T) {
	chain := HookChain{TraceHook, HookFuncs{Before: func(ctx context.Context, _ kafka.Message) (context.Context, error) {
		if TraceID(ctx) != "abc" {
			return ctx, errors.New("trace id not propagated")
		}
		return ctx, nil
	}}}
	km := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}
	if _, err := chain.BeforeHandle(context.Background(), km); err != nil {
		t.Fatalf("before: %v", err)
	}

	panicky := HookChain{HookFuncs{Before: func(context.Context, kafka.Message) (context.Context, error) { panic("x") }}}
	if _, err := panicky.BeforeHandle(context.Background(), km); err == nil {
		t.Fatalf("panic should surface as error")
	}
}

func TestBackoffBounds(t *testing.T) {
	for attempt := 1; attempt < 10; attempt++ {
		d := backoff(10*time.Millisecond, 80*time.Millisecond, attempt)
		if d <= 0 || d > 80*time.Millisecond {
			t.Fatalf("attempt %d: %v", attempt, d)
		}
	}
}
