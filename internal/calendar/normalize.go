// Package calendar turns raw event attributes into export-ready records and
// expands recurring records into concrete occurrences.
package calendar

import (
	"time"

	"github.com/samber/mo"

	"eventcal/internal/datemath"
	"eventcal/internal/model"
)

// Attributes are the raw event fields as stored by the editor. Start and
// End are date or date-time strings; empty means absent.
type Attributes struct {
	UID         string `json:"uid,omitempty" yaml:"uid,omitempty"`
	Start       string `json:"start,omitempty" yaml:"start,omitempty"`
	End         string `json:"end,omitempty" yaml:"end,omitempty"`
	AllDay      bool   `json:"allDay,omitempty" yaml:"allDay,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Location    string `json:"location,omitempty" yaml:"location,omitempty"`
	Rule        string `json:"rule,omitempty" yaml:"rule,omitempty"`
}

// Normalize reads naive times as local wall clock. See NormalizeIn.
func Normalize(attrs Attributes) model.EventRecord {
	return NormalizeIn(time.Local, attrs)
}

// NormalizeIn builds the export record for attrs, reading naive times in loc.
//
// Editors store the last day of an all-day range; calendar formats want the
// day after. So when AllDay is set and End is strictly after Start, End is
// moved one calendar day later. Without a Start, End is left as parsed.
func NormalizeIn(loc *time.Location, attrs Attributes) model.EventRecord {
	rec := model.EventRecord{
		UID:         attrs.UID,
		Title:       attrs.Title,
		Description: attrs.Description,
		Location:    attrs.Location,
		AllDay:      attrs.AllDay,
		Start:       parseOptional(attrs.Start, loc),
		End:         parseOptional(attrs.End, loc),
		Rule:        attrs.Rule,
	}

	if !attrs.AllDay {
		return rec
	}
	start, hasStart := rec.Start.Get()
	end, hasEnd := rec.End.Get()
	if hasStart && hasEnd && end.After(start) {
		rec.End = mo.Some(end.AddDate(0, 0, 1))
	}
	return rec
}

func parseOptional(s string, loc *time.Location) mo.Option[time.Time] {
	t, ok := datemath.ParseDateTime(s, loc)
	if !ok {
		return mo.None[time.Time]()
	}
	return mo.Some(t)
}
