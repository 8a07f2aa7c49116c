package persistence

import (
	"time"

	"github.com/example/temple-engagements/internal/calendar"
	"github.com/example/temple-engagements/internal/participation"
	"github.com/example/temple-engagements/internal/recurrence"
	"github.com/example/temple-engagements/internal/slots"
)

// Engagement represents an announcement, event or meeting held in the store.
type Engagement struct {
	ID         string
	Title      string
	Subject    string
	Content    string
	Type       string
	Status     string
	Date       *time.Time
	Time       *calendar.TimeOfDay
	Recurrence *recurrence.Rule
	Slots      *slots.Management
	RSVP       *participation.RSVP
	Volunteers *participation.Volunteers
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Clone returns a deep copy so callers never share mutable state with the store.
func (e Engagement) Clone() Engagement {
	out := e
	if e.Date != nil {
		d := *e.Date
		out.Date = &d
	}
	if e.Time != nil {
		t := *e.Time
		out.Time = &t
	}
	if e.Recurrence != nil {
		r := e.Recurrence.Clone()
		out.Recurrence = &r
	}
	if e.Slots != nil {
		s := e.Slots.Clone()
		out.Slots = &s
	}
	if e.RSVP != nil {
		r := e.RSVP.Clone()
		out.RSVP = &r
	}
	if e.Volunteers != nil {
		v := e.Volunteers.Clone()
		out.Volunteers = &v
	}
	return out
}
