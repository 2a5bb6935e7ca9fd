package engine

import "QuantSuperior/internal/domain/models"

// Verdict is the outcome of one pattern rule.
type Verdict int

const (
	Fail Verdict = iota
	Pass
	NotApplicable
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case NotApplicable:
		return "n/a"
	default:
		return "fail"
	}
}

// Rule evaluates one condition on a bar.
type Rule struct {
	Name string
	Eval func(b *models.EnrichedBar) Verdict
}

// Pattern is an ordered rule list. The first rule must pass outright; afterwards
// any Fail rejects and NotApplicable is neutral.
type Pattern struct {
	Name  string
	Rules []Rule
}

// Match folds the rules left to right.
func (p Pattern) Match(b *models.EnrichedBar) bool {
	for i, r := range p.Rules {
		switch r.Eval(b) {
		case Fail:
			return false
		case NotApplicable:
			if i == 0 {
				return false
			}
		}
	}
	return len(p.Rules) > 0
}

// mandatory fails when the field is undefined.
func mandatory(get func(*models.EnrichedBar) models.OptFloat, ok func(float64) bool) func(*models.EnrichedBar) Verdict {
	return func(b *models.EnrichedBar) Verdict {
		v, defined := get(b).Get()
		if defined && ok(v) {
			return Pass
		}
		return Fail
	}
}

// soft is not applicable when the field is undefined.
func soft(get func(*models.EnrichedBar) models.OptFloat, ok func(float64) bool) func(*models.EnrichedBar) Verdict {
	return func(b *models.EnrichedBar) Verdict {
		v, defined := get(b).Get()
		if !defined {
			return NotApplicable
		}
		if ok(v) {
			return Pass
		}
		return Fail
	}
}

func within(lo, hi float64) func(float64) bool {
	return func(v float64) bool { return v >= lo && v <= hi }
}

// TOP3 is the combined gap, index, volatility and volume pattern.
func TOP3() Pattern {
	return Pattern{
		Name: "TOP3",
		Rules: []Rule{
			{Name: "gap_open", Eval: mandatory(
				func(b *models.EnrichedBar) models.OptFloat { return b.GapOpen },
				func(v float64) bool { return v > 0 && v <= 0.01 },
			)},
			{Name: "spy_ret", Eval: soft(
				func(b *models.EnrichedBar) models.OptFloat { return b.SpyRet },
				within(0, 0.01),
			)},
			{Name: "vix_ret", Eval: soft(
				func(b *models.EnrichedBar) models.OptFloat { return b.VixRet },
				within(-0.10, -0.05),
			)},
			{Name: "vol_z", Eval: soft(
				func(b *models.EnrichedBar) models.OptFloat { return b.VolZ },
				within(-1.5, -0.5),
			)},
		},
	}
}
