package saver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"QuantSuperior/internal/domain/models"
)

func sampleBars() []models.PriceBar {
	return []models.PriceBar{
		{Date: "2024-03-04", Time: 1709510400, Open: 100, High: 102, Low: 99, Close: 101, Volume: 1000},
		{Date: "2024-03-05", Time: 1709596800, Open: 101, High: 103, Low: 100.5, Close: 102.5, Volume: 1200},
	}
}

func sampleTrades() []models.Trade {
	return []models.Trade{{
		EntryDate: "2024-03-04", EntryTime: 1709510400, ExitTime: 1709596800,
		EntryClose: 101, ExitOpen: 101.5, RawPoints: 0.5, CostPoints: 0.0202, PnlPoints: 0.4798,
		ReturnPct: 0.475, SpyRet: models.Some(0.01),
	}}
}

func TestForPathRejectsUnknownExtension(t *testing.T) {
	if _, err := ForPath("bars.xlsx"); err == nil {
		t.Fatalf("expected error for xlsx")
	}
	if s, err := ForPath("/tmp/BARS.Parquet"); err != nil || s.Extension() != "parquet" {
		t.Fatalf("expected parquet saver, got %v %v", s, err)
	}
}

func TestBarsRoundTripAllFormats(t *testing.T) {
	dir := t.TempDir()
	for _, ext := range []string{"csv", "json", "parquet"} {
		path := filepath.Join(dir, "bars."+ext)
		s := New(ext)
		if err := s.SaveBars(sampleBars(), path); err != nil {
			t.Fatalf("%s save: %v", ext, err)
		}
		got, err := LoadBars(path)
		if err != nil {
			t.Fatalf("%s load: %v", ext, err)
		}
		want := sampleBars()
		if len(got) != len(want) {
			t.Fatalf("%s: expected %d bars, got %d", ext, len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s bar %d: expected %+v, got %+v", ext, i, want[i], got[i])
			}
		}
	}
}

func TestCSVLoadsYahooExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ftsemib.csv")
	data := "Date,Open,High,Low,Close,Adj Close,Volume\n" +
		"2024-03-04 00:00:00+01:00,100,102,99,101,101,1000\n" +
		"2024-03-05,,,,,,\n" +
		"2024-03-06,101,103,100,102,102,0\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	bars, err := LoadBars(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("blank row should be skipped, got %d bars", len(bars))
	}
	if bars[0].Date != "2024-03-04" || bars[0].Time != 1709510400 {
		t.Fatalf("unexpected first bar %+v", bars[0])
	}
	if bars[1].Close != 102 || bars[1].Volume != 0 {
		t.Fatalf("unexpected second bar %+v", bars[1])
	}
}

func TestCSVRequiresClose(t *testing.T) {
	if _, err := readCSVBars(strings.NewReader("date,open\n2024-01-02,1\n")); err == nil {
		t.Fatalf("expected missing close error")
	}
}

func TestSaveTradesKeepsNullReturns(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "trades.json")
	if err := SaveTrades(sampleTrades(), jsonPath); err != nil {
		t.Fatalf("json: %v", err)
	}
	raw, _ := os.ReadFile(jsonPath)
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rows[0]["spy_ret"] != 0.01 || rows[0]["vix_ret"] != nil {
		t.Fatalf("unexpected returns %v / %v", rows[0]["spy_ret"], rows[0]["vix_ret"])
	}

	csvPath := filepath.Join(dir, "trades.csv")
	if err := SaveTrades(sampleTrades(), csvPath); err != nil {
		t.Fatalf("csv: %v", err)
	}
	raw, _ = os.ReadFile(csvPath)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[1], ",0.01,") {
		t.Fatalf("unexpected csv %q", raw)
	}

	if err := SaveTrades(sampleTrades(), filepath.Join(dir, "trades.parquet")); err != nil {
		t.Fatalf("parquet: %v", err)
	}
}
