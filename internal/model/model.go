package model

import (
	"time"

	"github.com/samber/mo"
)

// EventRecord is one event ready for calendar export. Start and End are
// absent when the source attributes did not carry them. For all-day
// multi-day events End is already the exclusive export end.
type EventRecord struct {
	UID string `json:"uid,omitempty"`

	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`

	AllDay bool `json:"allDay"`

	Start mo.Option[time.Time] `json:"start"`
	End   mo.Option[time.Time] `json:"end"`

	// Rule is the stored recurrence rule string, if the event repeats.
	Rule string `json:"rule,omitempty"`
}

// Occurrence is a single concrete instance of an event after recurrence
// expansion.
type Occurrence struct {
	// InstanceKey identifies one occurrence of a recurring event; it is the
	// occurrence start in RFC 3339.
	InstanceKey string `json:"instanceKey"`

	AllDay bool `json:"allDay"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
