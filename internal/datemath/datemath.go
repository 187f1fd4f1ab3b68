// Package datemath holds the calendar-date primitives shared by the
// recurrence, duration and calendar packages. Inputs are wall-clock strings;
// invalid input yields an empty sentinel, never an error.
package datemath

import (
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
)

const (
	// DateLayout is the storage format for calendar dates.
	DateLayout = "2006-01-02"

	// OtherSentinel is the day-count value a picker sends when the user
	// chose a custom end date instead of a preset.
	OtherSentinel = "other"
)

// localLayouts are tried in order for strings without a zone offset.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	DateLayout,
}

// ParseDate parses a YYYY-MM-DD string at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseDateTime accepts RFC 3339 (offset kept as given), a naive
// date-time, or a bare date. Naive values are read as wall clock in loc.
func ParseDateTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders the calendar date of t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysInclusive counts calendar days from start to end, both included.
// End before start is not clamped: one day before yields Some(0) and callers
// must treat values below 1 as an empty range.
func DaysInclusive(startDate, endDate string) mo.Option[int] {
	// UTC midnights are exact multiples of a day apart in Unix seconds.
	start, ok := ParseDate(startDate, time.UTC)
	if !ok {
		return mo.None[int]()
	}
	end, ok := ParseDate(endDate, time.UTC)
	if !ok {
		return mo.None[int]()
	}
	return mo.Some(DaysBetween(start, end) + 1)
}

// DaysBetween counts calendar days from the date of start to the date of
// end, each read in its own location. time.Duration is not used since it
// overflows past roughly 292 years.
func DaysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int((e.Unix() - s.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// EndDateFromDayCount is the picker-facing variant of EndDateFromDays.
// dayCount is the raw form value: a decimal integer, empty, or "other".
func EndDateFromDayCount(startDate, dayCount string) string {
	n, ok := parseDayCount(dayCount)
	if !ok {
		return ""
	}
	return EndDateFromDays(startDate, n)
}

// EndDateFromDays returns the date days-1 calendar days after startDate,
// so a one-day range ends on its start.
func EndDateFromDays(startDate string, days int) string {
	start, ok := ParseDate(startDate, time.UTC)
	if !ok {
		return ""
	}
	return FormatDate(start.AddDate(0, 0, days-1))
}

func parseDayCount(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, OtherSentinel) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Whole-number floats such as "3.0" come from JSON number fields.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, false
		}
		n = int(f)
	}
	return n, true
}
