package calendar

import (
	"time"

	"eventcal/internal/datemath"
	"eventcal/internal/model"
	"eventcal/internal/recurrence"
)

// maxRecordInstances bounds expansion of rules read from stored or fetched
// records, whatever their COUNT says.
const maxRecordInstances = 5000

// ExpandConfig controls how a record is expanded into occurrences.
type ExpandConfig struct {
	// DisplayLocation is the timezone occurrences are converted to.
	// If nil, the record's own location is kept.
	DisplayLocation *time.Location

	// MaxInstances bounds expansion when the rule has no COUNT. If zero,
	// recurrence.DefaultMaxInstances is used. Both are capped at
	// maxRecordInstances.
	MaxInstances int
}

// ExpandRecord lists the occurrences of rec. A record without a start yields
// nil; a record without a rule, or with a rule that cannot be read, yields
// its single occurrence.
//
// Every occurrence keeps the record's span. All-day records span whole days,
// at least one.
func ExpandRecord(rec model.EventRecord, cfg ExpandConfig) []model.Occurrence {
	start, ok := rec.Start.Get()
	if !ok {
		return nil
	}
	length := recordSpan(rec, start)

	starts := []time.Time{start}
	if rec.Rule != "" {
		if desc, ok := recurrence.ParseRuleString(rec.Rule); ok {
			if desc.Count > maxRecordInstances {
				desc.Count = maxRecordInstances
			}
			limit := cfg.MaxInstances
			if limit > maxRecordInstances {
				limit = maxRecordInstances
			}
			starts = recurrence.Expand(desc, start, limit)
		}
	}

	out := make([]model.Occurrence, 0, len(starts))
	for _, occStart := range starts {
		out = append(out, makeOccurrence(rec, occStart, length, cfg.DisplayLocation))
	}
	return out
}

// span is an occurrence length: whole calendar days for all-day records,
// a duration otherwise.
type span struct {
	days     int
	duration time.Duration
}

// recordSpan is the occurrence length: at least one day for all-day records,
// otherwise end-start, zero when the end is missing or before the start.
func recordSpan(rec model.EventRecord, start time.Time) span {
	end, hasEnd := rec.End.Get()
	if rec.AllDay {
		days := 1
		if hasEnd {
			if d := datemath.DaysBetween(start, end); d > days {
				days = d
			}
		}
		return span{days: days}
	}
	if !hasEnd || end.Before(start) {
		return span{}
	}
	return span{duration: end.Sub(start)}
}

// makeOccurrence converts one expanded start into a model.Occurrence,
// normalized into displayLoc when given.
func makeOccurrence(rec model.EventRecord, start time.Time, length span, displayLoc *time.Location) model.Occurrence {
	var end time.Time
	if rec.AllDay {
		// All-day: [date 00:00, date+N 00:00) on the occurrence's own calendar.
		start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
		end = start.AddDate(0, 0, length.days)
	} else {
		end = start.Add(length.duration)
	}

	if displayLoc != nil && !rec.AllDay {
		start = start.In(displayLoc)
		end = end.In(displayLoc)
	}

	return model.Occurrence{
		InstanceKey: start.Format(time.RFC3339Nano),
		AllDay:      rec.AllDay,
		Start:       start,
		End:         end,
	}
}
