package engine

import (
	"math"

	"QuantSuperior/internal/domain/models"
	"QuantSuperior/pkg/util"
)

// finite reports whether x is a usable price.
func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Enrich derives gap, weekday and trailing volume statistics for every bar.
// Companion returns are left undefined; see Merge.
func (e *Engine) Enrich(bars []models.PriceBar) []models.EnrichedBar {
	return Enrich(bars, e.cfg.VolumeWindow)
}

// Enrich is the stateless form of Engine.Enrich.
func Enrich(bars []models.PriceBar, window int) []models.EnrichedBar {
	if window <= 0 {
		window = DefaultVolumeWindow
	}
	out := make([]models.EnrichedBar, len(bars))
	for i, b := range bars {
		eb := models.EnrichedBar{PriceBar: b}

		if i > 0 {
			prev := bars[i-1].Close
			if prev != 0 && finite(prev) && finite(b.Open) {
				eb.GapOpen = models.Some(b.Open/prev - 1)
			}
		}
		if dow, ok := util.WeekdayIndex(b.Date); ok {
			eb.DayOfWeek = models.Some(dow)
		}

		start := i + 1 - window
		if start < 0 {
			start = 0
		}
		mean, std := volumeStats(bars[start : i+1])
		eb.VolMA = models.Some(mean)
		eb.VolStd = models.Some(std)
		if std > 0 {
			eb.VolZ = models.Some((float64(b.Volume) - mean) / std)
		}
		out[i] = eb
	}
	return out
}

// volumeStats returns mean and population standard deviation of the window volumes.
func volumeStats(win []models.PriceBar) (float64, float64) {
	if len(win) == 0 {
		return 0, 0
	}
	n := float64(len(win))
	var sum float64
	for _, b := range win {
		sum += float64(b.Volume)
	}
	mean := sum / n
	var ss float64
	for _, b := range win {
		d := float64(b.Volume) - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / n)
}
