package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/temple-engagements/internal/application"
	"github.com/example/temple-engagements/internal/calendar"
	"github.com/example/temple-engagements/internal/participation"
	"github.com/example/temple-engagements/internal/persistence"
	"github.com/example/temple-engagements/internal/recurrence"
	"github.com/example/temple-engagements/internal/slots"
)

var engagementCounter uint64

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDay returns midnight UTC of the reference time's calendar day.
func ReferenceDay() time.Time {
	return calendar.StartOfDay(referenceTime, time.UTC)
}

// --------------------------- Engagement fixtures ---------------------------

// EngagementFixture represents a deterministic engagement record that can be
// materialised for application or persistence tests.
type EngagementFixture struct {
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

// EngagementOption configures the generated engagement fixture.
type EngagementOption func(*EngagementFixture)

// NewEngagementFixture returns a scheduled event on a distinct day at 10:00
// with optional overrides.
func NewEngagementFixture(opts ...EngagementOption) EngagementFixture {
	idx := atomic.AddUint64(&engagementCounter, 1)
	id := fmt.Sprintf("engagement-%03d", idx)
	date := ReferenceDay().AddDate(0, 0, int(idx))
	at := calendar.NewTimeOfDay(10, 0)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := EngagementFixture{
		ID:        id,
		Title:     fmt.Sprintf("Engagement %03d", idx),
		Type:      application.TypeEvent,
		Status:    application.StatusScheduled,
		Date:      &date,
		Time:      &at,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEngagementID overrides the generated engagement ID.
func WithEngagementID(id string) EngagementOption {
	return func(f *EngagementFixture) {
		f.ID = id
	}
}

// WithEngagementTitle overrides the generated title.
func WithEngagementTitle(title string) EngagementOption {
	return func(f *EngagementFixture) {
		f.Title = title
	}
}

// WithEngagementType sets the engagement type.
func WithEngagementType(kind string) EngagementOption {
	return func(f *EngagementFixture) {
		f.Type = kind
	}
}

// WithEngagementStatus sets the engagement status.
func WithEngagementStatus(status string) EngagementOption {
	return func(f *EngagementFixture) {
		f.Status = status
	}
}

// WithEngagementSchedule sets the date and time of day.
func WithEngagementSchedule(date time.Time, hour, minute int) EngagementOption {
	return func(f *EngagementFixture) {
		d := calendar.StartOfDay(date, time.UTC)
		at := calendar.NewTimeOfDay(hour, minute)
		f.Date = &d
		f.Time = &at
	}
}

// WithoutEngagementSchedule clears the date and time.
func WithoutEngagementSchedule() EngagementOption {
	return func(f *EngagementFixture) {
		f.Date = nil
		f.Time = nil
	}
}

// WithEngagementRecurrence attaches a recurrence rule.
func WithEngagementRecurrence(rule recurrence.Rule) EngagementOption {
	return func(f *EngagementFixture) {
		cloned := rule.Clone()
		f.Recurrence = &cloned
	}
}

// WithEngagementSlots attaches slot management.
func WithEngagementSlots(m slots.Management) EngagementOption {
	return func(f *EngagementFixture) {
		cloned := m.Clone()
		cloned.RecomputeStats()
		f.Slots = &cloned
	}
}

// WithEngagementRSVP attaches RSVP tracking for total recipients.
func WithEngagementRSVP(totalRecipients int) EngagementOption {
	return func(f *EngagementFixture) {
		rsvp := participation.RSVP{TotalRecipients: totalRecipients}
		rsvp.Recompute()
		f.RSVP = &rsvp
	}
}

// WithEngagementVolunteers attaches volunteer roles.
func WithEngagementVolunteers(autoApprove bool, roles ...participation.Role) EngagementOption {
	return func(f *EngagementFixture) {
		f.Volunteers = &participation.Volunteers{
			Roles:       append([]participation.Role(nil), roles...),
			AutoApprove: autoApprove,
		}
	}
}

// WithEngagementTimestamps sets both created and updated timestamps on the fixture.
func WithEngagementTimestamps(created, updated time.Time) EngagementOption {
	return func(f *EngagementFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.Engagement value.
func (f EngagementFixture) Application() application.Engagement {
	return application.Engagement{
		ID:         f.ID,
		Title:      f.Title,
		Subject:    f.Subject,
		Content:    f.Content,
		Type:       f.Type,
		Status:     f.Status,
		Date:       f.Date,
		Time:       f.Time,
		Recurrence: f.Recurrence,
		Slots:      f.Slots,
		RSVP:       f.RSVP,
		Volunteers: f.Volunteers,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}.Clone()
}

// Persistence returns the fixture as a persistence.Engagement value.
func (f EngagementFixture) Persistence() persistence.Engagement {
	return persistence.Engagement{
		ID:         f.ID,
		Title:      f.Title,
		Subject:    f.Subject,
		Content:    f.Content,
		Type:       f.Type,
		Status:     f.Status,
		Date:       f.Date,
		Time:       f.Time,
		Recurrence: f.Recurrence,
		Slots:      f.Slots,
		RSVP:       f.RSVP,
		Volunteers: f.Volunteers,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}.Clone()
}

// Input returns the fixture as an application.EngagementInput.
func (f EngagementFixture) Input() application.EngagementInput {
	cloned := f.Application()
	input := application.EngagementInput{
		Title:      cloned.Title,
		Subject:    cloned.Subject,
		Content:    cloned.Content,
		Type:       cloned.Type,
		Status:     cloned.Status,
		Date:       cloned.Date,
		Time:       cloned.Time,
		Recurrence: cloned.Recurrence,
	}
	if m := cloned.Slots; m != nil {
		input.Slots = &application.SlotSettings{
			Enabled:         m.Enabled,
			TotalSlots:      m.TotalSlots,
			SlotDuration:    m.SlotDuration,
			StartTime:       m.StartTime,
			EndTime:         m.EndTime,
			BookingDeadline: m.BookingDeadline,
			AllowWaitlist:   m.AllowWaitlist,
		}
	}
	if r := cloned.RSVP; r != nil {
		input.RSVP = &application.RSVPSettings{TotalRecipients: r.TotalRecipients}
	}
	if v := cloned.Volunteers; v != nil {
		input.Volunteers = &application.VolunteerSettings{
			Roles:                  v.Roles,
			AutoApprove:            v.AutoApprove,
			RequireApplicationForm: v.RequireApplicationForm,
			ApplicationDeadline:    v.ApplicationDeadline,
		}
	}
	return input
}

// NewSlotManagement returns enabled slot management starting at 09:00.
func NewSlotManagement(totalSlots int, slotDuration time.Duration, allowWaitlist bool) slots.Management {
	start := calendar.NewTimeOfDay(9, 0)
	m := slots.Management{
		Enabled:       true,
		TotalSlots:    totalSlots,
		SlotDuration:  slotDuration,
		StartTime:     start,
		EndTime:       start.Add(slotDuration * time.Duration(totalSlots)),
		AllowWaitlist: allowWaitlist,
	}
	m.RecomputeStats()
	return m
}
