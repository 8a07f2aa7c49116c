// Package ics renders engagements as an iCalendar feed.
package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/temple-engagements/internal/application"
	"github.com/example/temple-engagements/internal/recurrence"
)

const (
	productID       = "temple-engagements"
	defaultDuration = 60 * time.Minute
	localTimeLayout = "20060102T150405"
)

// Exporter converts engagements into VEVENT components.
type Exporter struct {
	engine *recurrence.Engine
	name   string
	now    func() time.Time
}

// NewExporter builds an exporter that evaluates dates with engine. A nil now
// defaults to time.Now.
func NewExporter(engine *recurrence.Engine, name string, now func() time.Time) *Exporter {
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &Exporter{engine: engine, name: name, now: now}
}

// Calendar builds the feed. Undated engagements have nothing to place on a
// calendar and are skipped.
func (x *Exporter) Calendar(engagements []application.Engagement) *ical.Calendar {
	cal := ical.NewCalendarFor(productID)
	cal.SetMethod(ical.MethodPublish)
	if x.name != "" {
		cal.SetName(x.name)
		cal.SetXWRCalName(x.name)
	}
	if loc := x.engine.Location(); loc != time.UTC {
		cal.SetTimezoneId(loc.String())
	}

	stamp := x.now()
	for _, engagement := range engagements {
		if engagement.Date == nil {
			continue
		}
		x.addEvent(cal, engagement, stamp)
	}
	return cal
}

// Write serializes the feed for engagements to w.
func (x *Exporter) Write(w io.Writer, engagements []application.Engagement) error {
	if err := x.Calendar(engagements).SerializeTo(w); err != nil {
		return fmt.Errorf("ics: serialize calendar: %w", err)
	}
	return nil
}

func (x *Exporter) addEvent(cal *ical.Calendar, engagement application.Engagement, stamp time.Time) {
	event := cal.AddEvent(UID(engagement.ID))
	event.SetDtStampTime(stamp)
	if !engagement.CreatedAt.IsZero() {
		event.SetCreatedTime(engagement.CreatedAt)
	}
	if !engagement.UpdatedAt.IsZero() {
		event.SetModifiedAt(engagement.UpdatedAt)
	}
	event.SetSummary(engagement.Title)
	if engagement.Content != "" {
		event.SetDescription(engagement.Content)
	}
	event.SetStatus(objectStatus(engagement.Status))
	if engagement.Type != "" {
		event.SetProperty(ical.ComponentPropertyCategories, engagement.Type)
	}

	day := x.engine.Day(*engagement.Date)
	if start, ok := engagement.Start(); ok {
		start = start.In(x.engine.Location())
		x.setTimed(event, start, start.Add(eventDuration(engagement)))
	} else {
		event.SetAllDayStartAt(day)
		event.SetAllDayEndAt(day.AddDate(0, 0, 1))
	}

	if engagement.Recurrence != nil && engagement.Recurrence.Recurs() {
		if rule, ok := x.rrule(day, *engagement.Recurrence); ok {
			event.AddRrule(rule)
		}
	}
}

func (x *Exporter) setTimed(event *ical.VEvent, start, end time.Time) {
	loc := x.engine.Location()
	if loc == time.UTC {
		event.SetStartAt(start)
		event.SetEndAt(end)
		return
	}
	event.SetProperty(ical.ComponentPropertyDtStart, start.Format(localTimeLayout), ical.WithTZID(loc.String()))
	event.SetProperty(ical.ComponentPropertyDtEnd, end.Format(localTimeLayout), ical.WithTZID(loc.String()))
}

// rrule widens UNTIL to the last second of the final day so that timed
// occurrences on the end date stay inside the feed.
func (x *Exporter) rrule(day time.Time, rule recurrence.Rule) (string, bool) {
	r, err := x.engine.RRule(day, rule)
	if err != nil {
		return "", false
	}
	opt := r.OrigOptions
	opt.Dtstart = time.Time{}
	if !opt.Until.IsZero() {
		opt.Until = opt.Until.AddDate(0, 0, 1).Add(-time.Second)
	}
	return opt.RRuleString(), true
}

// UID returns the stable iCalendar identifier for an engagement.
func UID(engagementID string) string {
	return engagementID + "@" + productID
}

func eventDuration(engagement application.Engagement) time.Duration {
	if s := engagement.Slots; s != nil && s.Enabled && s.TotalSlots > 0 && s.SlotDuration > 0 {
		return time.Duration(s.TotalSlots) * s.SlotDuration
	}
	return defaultDuration
}

func objectStatus(status string) ical.ObjectStatus {
	switch status {
	case application.StatusDraft:
		return ical.ObjectStatusTentative
	case application.StatusFailed:
		return ical.ObjectStatusCancelled
	default:
		return ical.ObjectStatusConfirmed
	}
}
