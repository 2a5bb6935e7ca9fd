package api

import (
	"QuantSuperior/internal/domain/models"
	"QuantSuperior/internal/usecase"
	"QuantSuperior/pkg/util"
)

const (
	colorUp       = "#26a69a"
	colorDown     = "#ef5350"
	volumeUp      = "rgba(38,166,154,0.5)"
	volumeDown    = "rgba(239,83,80,0.5)"
	chartInterval = "1d"
)

// toChart renders a run in the Lightweight Charts layout.
func toChart(out *usecase.RunOutput) models.QuantSuperiorResponse {
	resp := models.QuantSuperiorResponse{
		Candles:    make([]models.ChartCandle, 0, len(out.Bars)),
		Volume:     make([]models.ChartVolume, 0, len(out.Bars)),
		Equity:     out.Result.Equity,
		Markers:    make([]models.ChartMarker, 0, len(out.Result.Markers)),
		Metrics:    roundMetrics(out.Result.Metrics),
		SignalNext: toChartSignal(out.Result.SignalNext),
		Meta: models.ChartMeta{
			Symbol: out.Symbol,
			TF:     chartInterval,
			Rows:   len(out.Bars),
			Source: out.Source,
		},
	}
	if resp.Equity == nil {
		resp.Equity = []models.EquityPoint{}
	}
	for _, b := range out.Bars {
		resp.Candles = append(resp.Candles, models.ChartCandle{Time: b.Time, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close})
		color := volumeDown
		if b.Close > b.Open {
			color = volumeUp
		}
		resp.Volume = append(resp.Volume, models.ChartVolume{Time: b.Time, Value: b.Volume, Color: color})
	}
	for _, m := range out.Result.Markers {
		resp.Markers = append(resp.Markers, toChartMarker(m))
	}
	return resp
}

func toChartMarker(m models.Marker) models.ChartMarker {
	if m.Kind == models.MarkerEntry {
		return models.ChartMarker{Time: m.Time, Position: "belowBar", Shape: "arrowUp", Text: "QS BUY", Color: colorUp}
	}
	return models.ChartMarker{Time: m.Time, Position: "aboveBar", Shape: "arrowDown", Text: "QS SELL", Color: colorDown}
}

// toChartSignal renders a missing explanation as an empty object.
func toChartSignal(d models.SignalDecision) models.ChartSignal {
	s := models.ChartSignal{Signal: d.Signal, Date: d.Date, Explain: struct{}{}}
	if d.Explain != nil {
		s.Explain = d.Explain
	}
	return s
}

func roundMetrics(m models.Metrics) models.Metrics {
	return models.Metrics{
		TotalTrades:    m.TotalTrades,
		WinRate:        util.Round(m.WinRate, 2),
		AvgTradePct:    util.Round(m.AvgTradePct, 4),
		AvgPoints:      util.Round(m.AvgPoints, 2),
		TotalReturnPct: util.Round(m.TotalReturnPct, 2),
		CAGR:           m.CAGR,
	}
}
