package models

// Lightweight-Charts payloads. Transport shape only; the core never builds these.

type ChartCandle struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

type ChartVolume struct {
	Time  int64  `json:"time"`
	Value int64  `json:"value"`
	Color string `json:"color"`
}

type ChartMarker struct {
	Time     int64  `json:"time"`
	Position string `json:"position"`
	Shape    string `json:"shape"`
	Text     string `json:"text"`
	Color    string `json:"color"`
}

type ChartMeta struct {
	Symbol string `json:"symbol"`
	TF     string `json:"tf"`
	Rows   int    `json:"rows"`
	Source string `json:"source"`
}

type ChartSignal struct {
	Signal  SignalKind  `json:"signal"`
	Date    Opt[string] `json:"date"`
	Explain any         `json:"explain"`
}

// QuantSuperiorResponse is the body of /api/quant-superior.
type QuantSuperiorResponse struct {
	Candles    []ChartCandle `json:"candles"`
	Volume     []ChartVolume `json:"volume"`
	Equity     []EquityPoint `json:"equity"`
	Markers    []ChartMarker `json:"markers"`
	Metrics    Metrics       `json:"metrics"`
	SignalNext ChartSignal   `json:"signal_next"`
	Meta       ChartMeta     `json:"meta"`
}
