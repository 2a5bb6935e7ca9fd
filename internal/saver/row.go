package saver

import (
	"QuantSuperior/internal/domain/models"
	"QuantSuperior/pkg/util"
)

// Bar is the file DTO for a daily bar.
type Bar struct {
	Date   string  `json:"date" parquet:"date"`
	Time   int64   `json:"t" parquet:"t"`
	Open   float64 `json:"o" parquet:"o"`
	High   float64 `json:"h" parquet:"h"`
	Low    float64 `json:"l" parquet:"l"`
	Close  float64 `json:"c" parquet:"c"`
	Volume int64   `json:"v" parquet:"v"`
}

// TradeRow is the file DTO for one ledger entry. Missing cross-asset returns stay null.
type TradeRow struct {
	EntryDate  string   `json:"entry_date" parquet:"entry_date"`
	EntryTime  int64    `json:"entry_time" parquet:"entry_time"`
	ExitTime   int64    `json:"exit_time" parquet:"exit_time"`
	EntryClose float64  `json:"entry_close" parquet:"entry_close"`
	ExitOpen   float64  `json:"exit_open" parquet:"exit_open"`
	RawPoints  float64  `json:"raw_points" parquet:"raw_points"`
	CostPoints float64  `json:"cost_points" parquet:"cost_points"`
	PnlPoints  float64  `json:"pnl_points" parquet:"pnl_points"`
	ReturnPct  float64  `json:"return_pct" parquet:"return_pct"`
	SpyRet     *float64 `json:"spy_ret" parquet:"spy_ret,optional"`
	VixRet     *float64 `json:"vix_ret" parquet:"vix_ret,optional"`
}

func toRows(bars []models.PriceBar) []Bar {
	out := make([]Bar, len(bars))
	for i, b := range bars {
		out[i] = Bar{Date: b.Date, Time: b.Time, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
	}
	return out
}

// fromRows fills a missing date from the timestamp and a missing timestamp from the date.
func fromRows(rows []Bar) []models.PriceBar {
	out := make([]models.PriceBar, len(rows))
	for i, r := range rows {
		b := models.PriceBar{Date: r.Date, Time: r.Time, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume}
		if b.Date == "" && b.Time > 0 {
			b.Date = util.FormatDay(b.Time, 0)
		}
		if b.Time == 0 {
			if t, ok := util.ParseDate(b.Date); ok {
				b.Time = t.Unix()
			}
		}
		out[i] = b
	}
	return out
}

func tradeRows(trades []models.Trade) []TradeRow {
	out := make([]TradeRow, len(trades))
	for i, t := range trades {
		out[i] = TradeRow{
			EntryDate:  t.EntryDate,
			EntryTime:  t.EntryTime,
			ExitTime:   t.ExitTime,
			EntryClose: t.EntryClose,
			ExitOpen:   t.ExitOpen,
			RawPoints:  t.RawPoints,
			CostPoints: t.CostPoints,
			PnlPoints:  t.PnlPoints,
			ReturnPct:  t.ReturnPct,
			SpyRet:     t.SpyRet.Ptr(),
			VixRet:     t.VixRet.Ptr(),
		}
	}
	return out
}
