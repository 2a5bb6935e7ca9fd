package util

import (
	"strconv"
	"time"
)

// DateLayout is the calendar-day layout used for bar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar day in UTC.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// WeekdayIndex returns the day of week with Monday=0 .. Sunday=6.
func WeekdayIndex(s string) (int, bool) {
	t, ok := ParseDate(s)
	if !ok {
		return 0, false
	}
	return (int(t.Weekday()) + 6) % 7, true
}

// FormatDay formats a unix timestamp as a calendar day after shifting by offset seconds.
func FormatDay(unix int64, offsetSec int64) string {
	return time.Unix(unix+offsetSec, 0).UTC().Format(DateLayout)
}

// ParseTime tries RFC3339, RFC3339Nano, YYYY-MM-DD and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, ok := ParseDate(s); ok {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// NextDailyRun returns the next occurrence of hour:minute in loc strictly after now.
func NextDailyRun(now time.Time, hour, minute int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	target := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !local.Before(target) {
		target = target.AddDate(0, 0, 1)
	}
	return target
}
