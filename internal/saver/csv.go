package saver

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"QuantSuperior/internal/domain/models"
	"QuantSuperior/pkg/util"
)

// CSVSaver reads and writes comma-separated files with a header row.
// Bar headers are matched case-insensitively, so yfinance exports
// (Date,Open,High,Low,Close,Adj Close,Volume) load as is.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

var barAliases = map[string]string{
	"date": "date", "day": "date",
	"t": "time", "time": "time", "timestamp": "time",
	"o": "open", "open": "open",
	"h": "high", "high": "high",
	"l": "low", "low": "low",
	"c": "close", "close": "close",
	"v": "volume", "volume": "volume",
}

func (CSVSaver) LoadBars(path string) ([]models.PriceBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCSVBars(f)
}

func readCSVBars(r io.Reader) ([]models.PriceBar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		if name, ok := barAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			col[name] = i
		}
	}
	if _, ok := col["close"]; !ok {
		return nil, fmt.Errorf("csv header has no close column")
	}
	if _, hasDate := col["date"]; !hasDate {
		if _, hasTime := col["time"]; !hasTime {
			return nil, fmt.Errorf("csv header has no date or time column")
		}
	}

	var rows []Bar
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		var b Bar
		if d := get("date"); d != "" {
			// "2024-03-04 00:00:00+01:00" style stamps keep the calendar day only
			if len(d) > len(util.DateLayout) {
				d = d[:len(util.DateLayout)]
			}
			b.Date = d
		}
		if ts := get("time"); ts != "" {
			t, ok := util.ParseTime(ts)
			if !ok {
				return nil, fmt.Errorf("line %d: bad time %q", line, ts)
			}
			b.Time = t.Unix()
		}
		var perr error
		b.Open, perr = parseFloat(get("open"), perr)
		b.High, perr = parseFloat(get("high"), perr)
		b.Low, perr = parseFloat(get("low"), perr)
		b.Close, perr = parseFloat(get("close"), perr)
		if perr != nil {
			// yfinance leaves holidays blank
			continue
		}
		if v := get("volume"); v != "" {
			fv, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad volume %q", line, v)
			}
			b.Volume = int64(fv)
		}
		rows = append(rows, b)
	}
	return fromRows(rows), nil
}

func parseFloat(s string, prev error) (float64, error) {
	if prev != nil {
		return 0, prev
	}
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(s, 64)
}

func (CSVSaver) SaveBars(bars []models.PriceBar, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "t", "o", "h", "l", "c", "v"}); err != nil {
		return err
	}
	for _, b := range toRows(bars) {
		if err := w.Write([]string{
			b.Date,
			strconv.FormatInt(b.Time, 10),
			floatStr(b.Open),
			floatStr(b.High),
			floatStr(b.Low),
			floatStr(b.Close),
			strconv.FormatInt(b.Volume, 10),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (CSVSaver) SaveTrades(trades []models.Trade, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"entry_date", "entry_time", "exit_time", "entry_close", "exit_open",
		"raw_points", "cost_points", "pnl_points", "return_pct", "spy_ret", "vix_ret",
	}); err != nil {
		return err
	}
	for _, t := range tradeRows(trades) {
		if err := w.Write([]string{
			t.EntryDate,
			strconv.FormatInt(t.EntryTime, 10),
			strconv.FormatInt(t.ExitTime, 10),
			floatStr(t.EntryClose),
			floatStr(t.ExitOpen),
			floatStr(t.RawPoints),
			floatStr(t.CostPoints),
			floatStr(t.PnlPoints),
			floatStr(t.ReturnPct),
			optStr(t.SpyRet),
			optStr(t.VixRet),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func optStr(p *float64) string {
	if p == nil {
		return ""
	}
	return floatStr(*p)
}
