package models

// SignalKind is the next-session decision.
type SignalKind string

const (
	SignalLong SignalKind = "LONG"
	SignalFlat SignalKind = "FLAT"
)

// MarkerKind annotates a chart marker.
type MarkerKind string

const (
	MarkerEntry MarkerKind = "entry"
	MarkerExit  MarkerKind = "exit"
)

// Trade is one overnight round trip: long at the entry close, flat at the next open.
type Trade struct {
	EntryDate  string   `json:"entry_date"`
	EntryTime  int64    `json:"entry_time"`
	ExitTime   int64    `json:"exit_time"`
	EntryClose float64  `json:"entry_close"`
	ExitOpen   float64  `json:"exit_open"`
	RawPoints  float64  `json:"raw_points"`
	CostPoints float64  `json:"cost_points"`
	PnlPoints  float64  `json:"pnl_points"`
	ReturnPct  float64  `json:"return_pct"` // net return, percent
	SpyRet     OptFloat `json:"spy_ret"`
	VixRet     OptFloat `json:"vix_ret"`
}

// EquityPoint is the running multiplicative equity after a trade.
type EquityPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// Marker is a chart annotation; it carries no simulation meaning.
type Marker struct {
	Time int64      `json:"time"`
	Kind MarkerKind `json:"kind"`
}

// Metrics summarises a trade ledger. CAGR is reported as zero.
type Metrics struct {
	TotalTrades    int     `json:"total_trades"`
	WinRate        float64 `json:"win_rate"`
	AvgTradePct    float64 `json:"avg_trade_pct"`
	AvgPoints      float64 `json:"avg_points"`
	TotalReturnPct float64 `json:"total_return_pct"`
	CAGR           float64 `json:"cagr"`
}

// SignalExplain is the snapshot of the fields that produced a LONG decision.
type SignalExplain struct {
	GapOpen   OptFloat `json:"gap_open"`
	SpyRet    OptFloat `json:"spy_ret"`
	VixRet    OptFloat `json:"vix_ret"`
	VolZ      OptFloat `json:"vol_z"`
	DayOfWeek Opt[int] `json:"dow"`
}

// SignalDecision is the forward-looking decision for the next session.
// Explain is nil unless Signal is LONG.
type SignalDecision struct {
	Signal  SignalKind     `json:"signal"`
	Date    Opt[string]    `json:"date"`
	Explain *SignalExplain `json:"explain"`
}

// BacktestResult is everything one engine run produces.
type BacktestResult struct {
	Trades     []Trade        `json:"trades"`
	Equity     []EquityPoint  `json:"equity_curve"`
	Markers    []Marker       `json:"markers"`
	Metrics    Metrics        `json:"metrics"`
	SignalNext SignalDecision `json:"signal_next"`
}

// SignalAlert is what the alerting side receives for a LONG decision.
type SignalAlert struct {
	Symbol   string         `json:"symbol"`
	Signal   SignalKind     `json:"signal"`
	Date     string         `json:"date"`
	Explain  *SignalExplain `json:"explain,omitempty"`
	Metrics  Metrics        `json:"metrics"`
	IssuedAt int64          `json:"issued_at"`
}
