package models

// PriceBar is one daily OHLCV observation as delivered by a market-data provider.
type PriceBar struct {
	Date   string  `json:"date"` // YYYY-MM-DD, exchange calendar day
	Time   int64   `json:"time"` // unix seconds
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// EnrichedBar is a PriceBar with the derived statistics used by the strategy.
type EnrichedBar struct {
	PriceBar

	GapOpen   OptFloat `json:"gap_open"`
	DayOfWeek Opt[int] `json:"day_of_week"` // 0=Monday .. 6=Sunday
	VolMA     OptFloat `json:"vol_ma"`
	VolStd    OptFloat `json:"vol_std"`
	VolZ      OptFloat `json:"vol_z"`
	SpyRet    OptFloat `json:"spy_ret"`
	VixRet    OptFloat `json:"vix_ret"`
}

// Series is a named bar sequence, ascending by date and without duplicates.
type Series struct {
	Symbol string
	Bars   []PriceBar
}
