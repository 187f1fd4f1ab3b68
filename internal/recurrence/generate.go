package recurrence

import (
	"time"

	"eventcal/internal/datemath"
)

// DefaultMaxInstances bounds expansion when neither Count nor a smaller
// Until applies.
const DefaultMaxInstances = 10

// GenerateOccurrences expands d from startDateTime, reading naive times as
// local wall clock. See GenerateOccurrencesIn.
func GenerateOccurrences(d Descriptor, startDateTime string, maxInstances int) []time.Time {
	return GenerateOccurrencesIn(time.Local, d, startDateTime, maxInstances)
}

// GenerateOccurrencesIn parses startDateTime in loc and expands d from it.
// An empty descriptor or an unparseable start yields nil.
func GenerateOccurrencesIn(loc *time.Location, d Descriptor, startDateTime string, maxInstances int) []time.Time {
	if d.IsZero() {
		return nil
	}
	start, ok := datemath.ParseDateTime(startDateTime, loc)
	if !ok {
		return nil
	}
	return Expand(d, start, maxInstances)
}

// Expand lists occurrences of d starting at start, which is always the
// first element. DAILY steps by the interval in days, WEEKLY and BIWEEKLY by
// the interval in weeks; any other frequency yields the start alone.
//
// A positive Count is the limit, otherwise maxInstances (DefaultMaxInstances
// when <= 0). Neither is capped; callers expanding untrusted rules bound
// Count themselves. A valid Until also stops expansion at its midnight, even when
// Count would allow more. An unparseable Until is ignored.
func Expand(d Descriptor, start time.Time, maxInstances int) []time.Time {
	if d.IsZero() {
		return nil
	}

	limit := maxInstances
	if limit <= 0 {
		limit = DefaultMaxInstances
	}
	if d.Count > 0 {
		limit = d.Count
	}

	out := make([]time.Time, 0, limit)
	out = append(out, start)

	step := d.stepDays()
	if step == 0 {
		return out
	}

	until, hasUntil := datemath.ParseDate(d.Until, start.Location())

	// Offsets are taken from start rather than the previous occurrence so
	// month and year rollovers never accumulate drift.
	for i := 1; len(out) < limit; i++ {
		next := start.AddDate(0, 0, i*step)
		if hasUntil && next.After(until) {
			break
		}
		out = append(out, next)
	}
	return out
}
