package engine

import (
	"math"
	"testing"

	"QuantSuperior/internal/domain/models"
)

func TestEnrichGapOpen(t *testing.T) {
	bars := Enrich([]models.PriceBar{
		bar("2024-01-01", 1, 100, 100, 10),
		bar("2024-01-02", 2, 101, 0, 10),
		bar("2024-01-03", 3, 50, 60, 10),
	}, 20)
	if bars[0].GapOpen.Valid {
		t.Fatalf("first gap must be undefined")
	}
	if g, ok := bars[1].GapOpen.Get(); !ok || !near(g, 0.01) {
		t.Fatalf("gap[1]=%v,%v", g, ok)
	}
	if bars[2].GapOpen.Valid {
		t.Fatalf("gap after zero close must be undefined")
	}
}

func TestEnrichDayOfWeek(t *testing.T) {
	bars := Enrich([]models.PriceBar{
		bar("2024-01-01", 1, 1, 1, 1),
		bar("2024-01-07", 2, 1, 1, 1),
		bar("garbage", 3, 1, 1, 1),
	}, 20)
	if d, _ := bars[0].DayOfWeek.Get(); d != 0 {
		t.Fatalf("Monday should be 0, got %d", d)
	}
	if d, _ := bars[1].DayOfWeek.Get(); d != 6 {
		t.Fatalf("Sunday should be 6, got %d", d)
	}
	if bars[2].DayOfWeek.Valid {
		t.Fatalf("unparseable date must leave weekday undefined")
	}
}

func TestEnrichVolumeStats(t *testing.T) {
	raw := []models.PriceBar{
		bar("2024-01-01", 1, 1, 1, 10),
		bar("2024-01-02", 2, 1, 1, 10),
		bar("2024-01-03", 3, 1, 1, 40),
	}
	bars := Enrich(raw, 20)

	if v, _ := bars[0].VolStd.Get(); v != 0 {
		t.Fatalf("single-bar std should be 0, got %v", v)
	}
	if bars[0].VolZ.Valid || bars[1].VolZ.Valid {
		t.Fatalf("vol_z must be undefined when std is 0")
	}
	ma, _ := bars[2].VolMA.Get()
	std, _ := bars[2].VolStd.Get()
	z, ok := bars[2].VolZ.Get()
	wantStd := math.Sqrt((100.0 + 100 + 400) / 3)
	if !near(ma, 20) || !near(std, wantStd) || !ok || !near(z, 20/wantStd) {
		t.Fatalf("ma=%v std=%v z=%v", ma, std, z)
	}
}

func TestEnrichWindowTrails(t *testing.T) {
	raw := make([]models.PriceBar, 25)
	for i := range raw {
		raw[i] = bar("2024-01-01", int64(i), 1, 1, int64(i))
	}
	bars := Enrich(raw, 20)
	// window for i=24 covers volumes 5..24
	if ma, _ := bars[24].VolMA.Get(); !near(ma, 14.5) {
		t.Fatalf("expected trailing mean 14.5, got %v", ma)
	}
}

func TestMergeAlignsByPosition(t *testing.T) {
	primary := Enrich([]models.PriceBar{
		bar("2024-01-02", 1, 1, 1, 1),
		bar("2024-01-03", 2, 1, 1, 1),
		bar("2024-01-05", 3, 1, 1, 1),
	}, 20)
	spy := []models.PriceBar{
		{Date: "2024-01-02", Close: 100},
		{Date: "2024-01-03", Close: 101},
		{Date: "2024-01-04", Close: 50},
		{Date: "2024-01-05", Close: 202},
	}
	vix := []models.PriceBar{
		{Date: "2024-01-02", Close: 0},
		{Date: "2024-01-03", Close: 20},
	}
	out := Merge(primary, spy, vix)

	if out[0].SpyRet.Valid || out[0].VixRet.Valid {
		t.Fatalf("position 0 must be undefined")
	}
	if r, _ := out[1].SpyRet.Get(); !near(r, 0.01) {
		t.Fatalf("spy[1]=%v", r)
	}
	// predecessor is the primary's previous row (01-03), not the calendar day before
	if r, _ := out[2].SpyRet.Get(); !near(r, 1.0) {
		t.Fatalf("spy[2]=%v", r)
	}
	if out[1].VixRet.Valid {
		t.Fatalf("zero previous close must give undefined")
	}
	if out[2].VixRet.Valid {
		t.Fatalf("missing companion date must give undefined")
	}
}

func TestMergeEmptyCompanions(t *testing.T) {
	out := Merge(Enrich([]models.PriceBar{bar("2024-01-02", 1, 1, 1, 1), bar("2024-01-03", 2, 1, 1, 1)}, 20), nil, nil)
	for i, b := range out {
		if b.SpyRet.Valid || b.VixRet.Valid {
			t.Fatalf("bar %d: companions must be undefined", i)
		}
	}
	if Merge(nil, nil, nil) != nil {
		t.Fatalf("empty merge should return input")
	}
}

func TestMergeCompanionDuplicateDateKeepsLast(t *testing.T) {
	primary := Enrich([]models.PriceBar{bar("2024-01-02", 1, 1, 1, 1), bar("2024-01-03", 2, 1, 1, 1)}, 20)
	spy := []models.PriceBar{
		{Date: "2024-01-02", Close: 90},
		{Date: "2024-01-02", Close: 100},
		{Date: "2024-01-03", Close: 110},
	}
	out := Merge(primary, spy, nil)
	if r, _ := out[1].SpyRet.Get(); !near(r, 0.1) {
		t.Fatalf("later duplicate should win, spy[1]=%v", r)
	}
}
