package models

// Requests for the quant HTTP endpoints. Defined in domain for reuse by handlers and tests.

type BacktestRequest struct {
	Symbol  string   `query:"symbol" json:"symbol" default:"FTSEMIB.MI" validate:"required,max=32"`
	Period  string   `query:"period" json:"period" default:"1y" validate:"oneof=1mo 3mo 6mo 1y 2y 5y 10y ytd max"`
	Limit   int      `query:"limit" json:"limit" default:"1200" validate:"gte=2,lte=20000"`
	CostBps *float64 `query:"cost_bps" json:"cost_bps" validate:"omitempty,gte=0,lte=100"`
}

type SignalRequest struct {
	Symbol  string   `query:"symbol" json:"symbol" default:"FTSEMIB.MI" validate:"required,max=32"`
	Period  string   `query:"period" json:"period" default:"1y" validate:"oneof=1mo 3mo 6mo 1y 2y 5y 10y ytd max"`
	CostBps *float64 `query:"cost_bps" json:"cost_bps" validate:"omitempty,gte=0,lte=100"`
}
