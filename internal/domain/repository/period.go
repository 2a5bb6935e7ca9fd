package repository

import "strings"

// Period is a lookback range understood by market-data providers.
type Period string

const (
	Period1mo Period = "1mo"
	Period3mo Period = "3mo"
	Period6mo Period = "6mo"
	Period1y  Period = "1y"
	Period2y  Period = "2y"
	Period5y  Period = "5y"
	Period10y Period = "10y"
	PeriodYTD Period = "ytd"
	PeriodMax Period = "max"
)

// IsValidPeriod returns true if p is a supported period.
func IsValidPeriod(p Period) bool {
	switch p {
	case Period1mo, Period3mo, Period6mo, Period1y, Period2y, Period5y, Period10y, PeriodYTD, PeriodMax:
		return true
	default:
		return false
	}
}

func DefaultPeriod() Period { return Period1y }

// NormalizePeriod converts a raw string to a valid period (or the default).
func NormalizePeriod(s string) Period {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if IsValidPeriod(p) {
		return p
	}
	return DefaultPeriod()
}

// ApproxBars is a rough upper bound of trading days in the period, used for store fallback.
func (p Period) ApproxBars() int {
	switch p {
	case Period1mo:
		return 23
	case Period3mo:
		return 66
	case Period6mo:
		return 130
	case Period1y, PeriodYTD:
		return 260
	case Period2y:
		return 520
	case Period5y:
		return 1300
	case Period10y:
		return 2600
	default:
		return 20000
	}
}
