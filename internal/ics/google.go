package ics

import (
	"net/url"
	"time"

	"google.golang.org/api/calendar/v3"

	"eventcal/internal/datemath"
	"eventcal/internal/model"
)

const googleTemplateURL = "https://calendar.google.com/calendar/render"

// GoogleEvent converts rec into a Google Calendar API event. All-day records
// use Date fields with an exclusive end; timed records use RFC 3339
// DateTime. Returns nil when rec has no start.
func GoogleEvent(rec model.EventRecord) *calendar.Event {
	start, ok := rec.Start.Get()
	if !ok {
		return nil
	}

	ev := &calendar.Event{
		Summary:     rec.Title,
		Description: rec.Description,
		Location:    rec.Location,
		ICalUID:     rec.UID,
	}

	if rec.AllDay {
		ev.Start = &calendar.EventDateTime{Date: datemath.FormatDate(start)}
		ev.End = &calendar.EventDateTime{Date: datemath.FormatDate(ExclusiveAllDayEnd(rec, start))}
	} else {
		end := timedEnd(rec, start)
		ev.Start = &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)}
		ev.End = &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)}
	}

	if rec.Rule != "" {
		ev.Recurrence = []string{"RRULE:" + rec.Rule}
	}
	return ev
}

// GoogleLink builds an "add to Google Calendar" template URL for rec, or ""
// when rec has no start.
func GoogleLink(rec model.EventRecord) string {
	start, ok := rec.Start.Get()
	if !ok {
		return ""
	}

	var dates string
	if rec.AllDay {
		dates = start.Format("20060102") + "/" + ExclusiveAllDayEnd(rec, start).Format("20060102")
	} else {
		const layout = "20060102T150405Z"
		dates = start.UTC().Format(layout) + "/" + timedEnd(rec, start).UTC().Format(layout)
	}

	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", rec.Title)
	q.Set("dates", dates)
	if rec.Description != "" {
		q.Set("details", rec.Description)
	}
	if rec.Location != "" {
		q.Set("location", rec.Location)
	}
	if rec.Rule != "" {
		q.Set("recur", "RRULE:"+rec.Rule)
	}
	return googleTemplateURL + "?" + q.Encode()
}

func timedEnd(rec model.EventRecord, start time.Time) time.Time {
	if end, ok := rec.End.Get(); ok && !end.Before(start) {
		return end
	}
	return start
}
