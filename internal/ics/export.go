package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"eventcal/internal/model"
)

// ExportOptions describes the VCALENDAR wrapper.
type ExportOptions struct {
	Name      string
	ProductID string
	// Now stamps DTSTAMP; zero means time.Now.
	Now time.Time
}

// BuildCalendar serializes records into a VCALENDAR feed. Records without a
// start cannot be placed on a calendar and are skipped; the number skipped
// is returned alongside the feed.
//
// Records are expected as calendar.Normalize produces them: multi-day
// all-day events already carry their exclusive end.
func BuildCalendar(records []model.EventRecord, opts ExportOptions) (string, int) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	if opts.ProductID != "" {
		cal.SetProductId(opts.ProductID)
	}
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	skipped := 0
	for _, rec := range records {
		start, ok := rec.Start.Get()
		if !ok {
			skipped++
			continue
		}

		uid := rec.UID
		if uid == "" {
			uid = uuid.NewString()
		}
		ev := cal.AddEvent(uid)
		ev.SetDtStampTime(now)

		if rec.AllDay {
			ev.SetAllDayStartAt(start)
			ev.SetAllDayEndAt(ExclusiveAllDayEnd(rec, start))
		} else {
			ev.SetStartAt(start)
			if end, ok := rec.End.Get(); ok && !end.Before(start) {
				ev.SetEndAt(end)
			}
		}

		if rec.Title != "" {
			ev.SetSummary(rec.Title)
		}
		if rec.Description != "" {
			ev.SetDescription(rec.Description)
		}
		if rec.Location != "" {
			ev.SetLocation(rec.Location)
		}
		if rec.Rule != "" {
			ev.AddRrule(rec.Rule)
		}
	}

	return cal.Serialize(), skipped
}

// ExclusiveAllDayEnd is the day after the last day of an all-day record.
// A missing end, or one not after start, means a single day.
func ExclusiveAllDayEnd(rec model.EventRecord, start time.Time) time.Time {
	if end, ok := rec.End.Get(); ok && end.After(start) {
		return end
	}
	return start.AddDate(0, 0, 1)
}
