package application

import (
	"time"

	"github.com/example/temple-engagements/internal/calendar"
	"github.com/example/temple-engagements/internal/participation"
	"github.com/example/temple-engagements/internal/recurrence"
	"github.com/example/temple-engagements/internal/scheduler"
	"github.com/example/temple-engagements/internal/slots"
)

// Engagement types.
const (
	TypeAnnouncement = scheduler.TypeAnnouncement
	TypeEvent        = scheduler.TypeEvent
	TypeMeeting      = scheduler.TypeMeeting
)

// Engagement statuses. Drafts never take part in conflict checks.
const (
	StatusDraft     = scheduler.StatusDraft
	StatusScheduled = scheduler.StatusScheduled
	StatusSending   = scheduler.StatusSending
	StatusSent      = scheduler.StatusSent
	StatusFailed    = scheduler.StatusFailed
)

// Engagement is an announcement, event or meeting with its optional sub-records.
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

// Clone returns a deep copy of the engagement.
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

// Start returns the engagement's start instant when both date and time are set.
func (e Engagement) Start() (time.Time, bool) {
	return toSchedulerSchedule(e).Start()
}

// SlotSettings configures slot-based booking for an engagement.
type SlotSettings struct {
	Enabled         bool
	TotalSlots      int
	SlotDuration    time.Duration
	StartTime       calendar.TimeOfDay
	EndTime         calendar.TimeOfDay
	BookingDeadline *time.Time
	AllowWaitlist   bool
}

// RSVPSettings configures response tracking.
type RSVPSettings struct {
	TotalRecipients int
}

// VolunteerSettings configures volunteer roles and the auto-approval policy.
type VolunteerSettings struct {
	Roles                  []participation.Role
	AutoApprove            bool
	RequireApplicationForm bool
	ApplicationDeadline    *time.Time
}

// EngagementInput captures caller provided engagement fields. A nil settings
// pointer leaves the corresponding sub-record untouched on update.
type EngagementInput struct {
	Title      string
	Subject    string
	Content    string
	Type       string
	Status     string
	Date       *time.Time
	Time       *calendar.TimeOfDay
	Recurrence *recurrence.Rule
	Slots      *SlotSettings
	RSVP       *RSVPSettings
	Volunteers *VolunteerSettings
}

// ListEngagementsParams narrows engagement listings.
type ListEngagementsParams struct {
	Types    []string
	Statuses []string
	From     *time.Time
	To       *time.Time
}

// ScheduleConflictParams describes a single-shot proposal. Duration defaults to
// sixty minutes.
type ScheduleConflictParams struct {
	Date      time.Time
	Time      calendar.TimeOfDay
	Duration  time.Duration
	ExcludeID string
}

// RecurrenceConflictParams describes a recurring proposal.
type RecurrenceConflictParams struct {
	Date      time.Time
	Time      calendar.TimeOfDay
	Rule      recurrence.Rule
	ExcludeID string
}

// BookSlotParams identifies the user and slot being booked.
type BookSlotParams struct {
	EngagementID string
	UserID       string
	SlotNumber   int
	Notes        string
}

// CancelSlotBookingResult reports what a cancellation changed. Changed is false
// when the booking was unknown or already cancelled.
type CancelSlotBookingResult struct {
	Changed   bool
	Cancelled *slots.Booking
	Promoted  *slots.Booking
	Stats     slots.Stats
}

// SlotExceptionInput captures caller provided exception fields.
type SlotExceptionInput struct {
	SlotNumbers []int
	Type        slots.ExceptionType
	Title       string
	Description string
	Active      bool
	Recurring   bool
}

// RSVPInput is a user's response to an engagement.
type RSVPInput struct {
	EngagementID string
	UserID       string
	Status       participation.ResponseStatus
	Note         string
}

// VolunteerRequestInput is a user's application for a volunteer role.
type VolunteerRequestInput struct {
	EngagementID string
	UserID       string
	RoleID       string
	Message      string
}

// VolunteerReviewInput is a reviewer's decision on a pending request.
type VolunteerReviewInput struct {
	EngagementID string
	RequestID    string
	Decision     participation.RequestStatus
	Reviewer     string
	Note         string
}

// Occurrence is one dated instance of an engagement on a calendar day.
type Occurrence struct {
	Engagement Engagement
	Date       time.Time
	Start      *time.Time
	Recurring  bool
}
