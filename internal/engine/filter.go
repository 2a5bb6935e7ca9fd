package engine

import "QuantSuperior/internal/domain/models"

// Filter is the coarse entry gate applied before the pattern.
type Filter struct {
	minIndexRet float64
	allowed     [7]bool
}

// NewFilter builds a filter rejecting index returns below minIndexRet and weekdays
// outside allowed (Monday=0). Out-of-range weekday values are ignored.
func NewFilter(minIndexRet float64, allowed []int) Filter {
	f := Filter{minIndexRet: minIndexRet}
	for _, d := range allowed {
		if d >= 0 && d < len(f.allowed) {
			f.allowed[d] = true
		}
	}
	return f
}

// Admit reports whether the bar may be considered for entry.
// Undefined fields never reject.
func (f Filter) Admit(b *models.EnrichedBar) bool {
	if v, ok := b.SpyRet.Get(); ok && v < f.minIndexRet {
		return false
	}
	if d, ok := b.DayOfWeek.Get(); ok {
		if d < 0 || d >= len(f.allowed) || !f.allowed[d] {
			return false
		}
	}
	return true
}
