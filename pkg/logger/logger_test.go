package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "debug").With(String("component", "engine"))
	l.Info("run", Int("trades", 3), Float64("equity", 1.02), Bool("long", true), Error(errors.New("boom")))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("invalid json: %v (%s)", err, buf.String())
	}
	if m["component"] != "engine" || m["trades"] != float64(3) || m["long"] != true || m["error"] != "boom" {
		t.Fatalf("unexpected entry %v", m)
	}
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, "warn").Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info must be filtered at warn level")
	}
}

type capturePublisher struct {
	mu      sync.Mutex
	batches [][]DigestEntry
}

func (c *capturePublisher) PublishMessage(_ context.Context, _ string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, payload.([]DigestEntry))
	return nil
}

func TestDigestDeduplicates(t *testing.T) {
	pub := &capturePublisher{}
	d := NewDigest(DigestConfig{Interval: time.Hour, MaxUnique: 10, Topic: "t", Publisher: pub})
	l := Nop()
	l.AttachDigest(d)

	l.Error("fetch failed", String("symbol", "^VIX"))
	l.Error("fetch failed", String("symbol", "^VIX"))
	l.Warn("fetch failed", String("symbol", "SPY"))
	if d.Pending() != 2 {
		t.Fatalf("expected 2 distinct entries, got %d", d.Pending())
	}
	l.DetachDigest()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.batches) != 1 || len(pub.batches[0]) != 2 {
		t.Fatalf("expected one flush of 2 entries, got %v", pub.batches)
	}
	for _, e := range pub.batches[0] {
		if e.Level == "error" && e.Count != 2 {
			t.Fatalf("error entry count=%d", e.Count)
		}
	}
}
