package recurrence

import (
	"strings"
)

// Frequency is the UI-level repeat keyword. Values other than the
// constants below pass through to the rule string verbatim.
type Frequency string

const (
	Daily   Frequency = "DAILY"
	Weekly  Frequency = "WEEKLY"
	Monthly Frequency = "MONTHLY"
	Yearly  Frequency = "YEARLY"

	// Biweekly is a picker convenience; on the wire it is WEEKLY;INTERVAL=2.
	Biweekly Frequency = "BIWEEKLY"
)

// Descriptor is the small recurrence form a caller edits. Zero values mean
// "not set": Interval <= 1 adds no interval clause, Count <= 0 defers to
// Until, and an empty Until means no cutoff.
type Descriptor struct {
	Frequency Frequency `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	Interval  int       `json:"interval,omitempty" yaml:"interval,omitempty"`
	Count     int       `json:"count,omitempty" yaml:"count,omitempty"`
	// Until is an inclusive YYYY-MM-DD cutoff.
	Until string `json:"until,omitempty" yaml:"until,omitempty"`
}

// IsZero reports whether the descriptor carries no frequency, which every
// operation treats as "no recurrence".
func (d Descriptor) IsZero() bool {
	return strings.TrimSpace(string(d.Frequency)) == ""
}

// EffectiveInterval applies the biweekly override: BIWEEKLY is always 2,
// anything else is Interval floored at 1.
func (d Descriptor) EffectiveInterval() int {
	if d.Frequency == Biweekly {
		return 2
	}
	if d.Interval < 1 {
		return 1
	}
	return d.Interval
}

// stepDays is the distance between occurrences in days, or 0 when the
// frequency does not expand.
func (d Descriptor) stepDays() int {
	switch d.Frequency {
	case Daily:
		return d.EffectiveInterval()
	case Weekly, Biweekly:
		return 7 * d.EffectiveInterval()
	}
	return 0
}
