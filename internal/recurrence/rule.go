package recurrence

import (
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"eventcal/internal/datemath"
)

const (
	keyFreq     = "FREQ"
	keyInterval = "INTERVAL"
	keyCount    = "COUNT"
	keyUntil    = "UNTIL"
)

// BuildRuleString renders d as FREQ=<f>[;INTERVAL=<n>][;COUNT=<n>|;UNTIL=<YYYYMMDD>].
// A descriptor without a frequency yields "". Count wins over Until.
func BuildRuleString(d Descriptor) string {
	if d.IsZero() {
		return ""
	}

	freq := string(d.Frequency)
	interval := d.Interval
	if d.Frequency == Biweekly {
		freq = string(Weekly)
		interval = d.EffectiveInterval()
	}

	parts := []string{keyFreq + "=" + freq}
	if interval > 1 {
		parts = append(parts, keyInterval+"="+strconv.Itoa(interval))
	}

	if d.Count > 0 {
		parts = append(parts, keyCount+"="+strconv.Itoa(d.Count))
	} else if until := FormatUntilDate(d.Until); until != "" {
		parts = append(parts, keyUntil+"="+until)
	}

	return strings.Join(parts, ";")
}

// FormatUntilDate strips hyphens from a YYYY-MM-DD date. Only the shape is
// checked: anything that reduces to exactly eight digits passes, so
// "2024-13-01" becomes "20241301". Other input yields "".
func FormatUntilDate(dateStr string) string {
	digits := strings.ReplaceAll(strings.TrimSpace(dateStr), "-", "")
	if len(digits) != 8 {
		return ""
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return ""
		}
	}
	return digits
}

// ParseRuleString reads a stored rule back into a Descriptor.
// FREQ=WEEKLY;INTERVAL=2 comes back as BIWEEKLY; UNTIL comes back as
// YYYY-MM-DD. Rules rrule-go cannot parse yield false.
func ParseRuleString(rule string) (Descriptor, bool) {
	rule = strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:")
	if rule == "" {
		return Descriptor{}, false
	}
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return Descriptor{}, false
	}

	freq, ok := fromRRuleFreq(opt.Freq)
	if !ok {
		return Descriptor{}, false
	}

	d := Descriptor{Frequency: freq}
	if opt.Interval > 1 {
		d.Interval = opt.Interval
	}
	if freq == Weekly && d.Interval == 2 {
		d.Frequency = Biweekly
		d.Interval = 0
	}
	if opt.Count > 0 {
		d.Count = opt.Count
	} else if !opt.Until.IsZero() {
		d.Until = datemath.FormatDate(opt.Until)
	}
	return d, true
}

// ToROption converts d into rrule-go options anchored at dtstart. Until is
// taken at midnight in dtstart's location, matching GenerateOccurrences.
// Frequencies rrule-go does not know yield false.
func ToROption(d Descriptor, dtstart time.Time) (rrule.ROption, bool) {
	freq, ok := toRRuleFreq(d.Frequency)
	if !ok {
		return rrule.ROption{}, false
	}
	opt := rrule.ROption{
		Freq:     freq,
		Interval: d.EffectiveInterval(),
		Dtstart:  dtstart,
	}
	if d.Count > 0 {
		opt.Count = d.Count
	} else if until, ok := datemath.ParseDate(d.Until, dtstart.Location()); ok {
		opt.Until = until
	}
	return opt, true
}

func toRRuleFreq(f Frequency) (rrule.Frequency, bool) {
	switch f {
	case Daily:
		return rrule.DAILY, true
	case Weekly, Biweekly:
		return rrule.WEEKLY, true
	case Monthly:
		return rrule.MONTHLY, true
	case Yearly:
		return rrule.YEARLY, true
	}
	return 0, false
}

func fromRRuleFreq(f rrule.Frequency) (Frequency, bool) {
	switch f {
	case rrule.DAILY:
		return Daily, true
	case rrule.WEEKLY:
		return Weekly, true
	case rrule.MONTHLY:
		return Monthly, true
	case rrule.YEARLY:
		return Yearly, true
	}
	return "", false
}
