package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestWeekdayIndexMondayFirst(t *testing.T) {
	cases := map[string]int{
		"2024-01-01": 0, // Monday
		"2024-01-02": 1,
		"2024-01-04": 3,
		"2024-01-05": 4,
		"2024-01-07": 6, // Sunday
	}
	for d, want := range cases {
		got, ok := WeekdayIndex(d)
		if !ok || got != want {
			t.Fatalf("%s: got %d ok=%v want %d", d, got, ok, want)
		}
	}
	if _, ok := WeekdayIndex("01/02/2024"); ok {
		t.Fatalf("expected malformed date to be rejected")
	}
}

func TestFormatDayAppliesOffset(t *testing.T) {
	// 2024-03-04 23:30 UTC is already 2024-03-05 in Rome (+1h).
	ts := time.Date(2024, 3, 4, 23, 30, 0, 0, time.UTC).Unix()
	if got := FormatDay(ts, 0); got != "2024-03-04" {
		t.Fatalf("utc day %s", got)
	}
	if got := FormatDay(ts, 3600); got != "2024-03-05" {
		t.Fatalf("offset day %s", got)
	}
}

func TestNextDailyRun(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	now := time.Date(2024, 5, 6, 10, 0, 0, 0, loc)
	next := NextDailyRun(now, 17, 30, loc)
	if !next.Equal(time.Date(2024, 5, 6, 17, 30, 0, 0, loc)) {
		t.Fatalf("same-day run expected, got %v", next)
	}
	later := time.Date(2024, 5, 6, 17, 30, 0, 0, loc)
	next = NextDailyRun(later, 17, 30, loc)
	if !next.Equal(time.Date(2024, 5, 7, 17, 30, 0, 0, loc)) {
		t.Fatalf("next-day run expected, got %v", next)
	}
}

func TestRound(t *testing.T) {
	if got := Round(0.123456, 4); got != 0.1235 {
		t.Fatalf("round got %v", got)
	}
	if got := Round(-1.005, 0); got != -1 {
		t.Fatalf("round got %v", got)
	}
}
