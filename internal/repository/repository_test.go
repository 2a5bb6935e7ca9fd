package repository

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"QuantSuperior/internal/domain/models"
)

func TestBarRowsDropsBadDates(t *testing.T) {
	rows := barRows("FTSEMIB.MI", []models.PriceBar{
		{Date: "2024-01-02", Time: 1704182400, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Date: "02/01/2024"},
	})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0][0] != "FTSEMIB.MI" || len(rows[0]) != 8 {
		t.Fatalf("row %v", rows[0])
	}
	if d, ok := rows[0][1].(time.Time); !ok || d.Day() != 2 {
		t.Fatalf("date column %v", rows[0][1])
	}
}

func TestBarSchema(t *testing.T) {
	stmts := BarSchema("quant")
	if len(stmts) != 2 || !strings.Contains(stmts[1], "quant.daily_bars") || !strings.Contains(stmts[1], "ReplacingMergeTree") {
		t.Fatalf("schema %v", stmts)
	}
}

func TestReverse(t *testing.T) {
	xs := []int{1, 2, 3, 4}
	reverse(xs)
	if xs[0] != 4 || xs[3] != 1 {
		t.Fatalf("reverse %v", xs)
	}
}

type capturePublisher struct {
	topic string
	key   []byte
	value any
}

func (c *capturePublisher) Publish(_ context.Context, topic string, key []byte, value any) error {
	c.topic, c.key, c.value = topic, key, value
	return nil
}

func TestKafkaSignalPublisherKeysBySymbol(t *testing.T) {
	cp := &capturePublisher{}
	p := NewKafkaSignalPublisher(cp, "quant.signals")
	alert := models.SignalAlert{Symbol: "FTSEMIB.MI", Signal: models.SignalLong, Date: "2024-03-05"}
	if err := p.PublishSignal(context.Background(), alert); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if cp.topic != "quant.signals" || string(cp.key) != "FTSEMIB.MI" {
		t.Fatalf("topic=%s key=%s", cp.topic, cp.key)
	}
	b, _ := json.Marshal(cp.value)
	if !strings.Contains(string(b), `"signal":"LONG"`) {
		t.Fatalf("payload %s", b)
	}
}
