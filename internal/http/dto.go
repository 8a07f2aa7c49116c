package http

import (
	"time"

	"github.com/example/temple-engagements/internal/application"
	"github.com/example/temple-engagements/internal/calendar"
	"github.com/example/temple-engagements/internal/participation"
	"github.com/example/temple-engagements/internal/recurrence"
	"github.com/example/temple-engagements/internal/scheduler"
	"github.com/example/temple-engagements/internal/slots"
)

type engagementDTO struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	Subject    string             `json:"subject,omitempty"`
	Content    string             `json:"content,omitempty"`
	Type       string             `json:"type"`
	Status     string             `json:"status"`
	Date       string             `json:"date,omitempty"`
	Time       string             `json:"time,omitempty"`
	Recurrence *recurrenceDTO     `json:"recurrence,omitempty"`
	Slots      *slotManagementDTO `json:"slots,omitempty"`
	RSVP       *rsvpDTO           `json:"rsvp,omitempty"`
	Volunteers *volunteersDTO     `json:"volunteers,omitempty"`
	CreatedAt  string             `json:"created_at"`
	UpdatedAt  string             `json:"updated_at"`
}

func toEngagementDTO(e application.Engagement) engagementDTO {
	dto := engagementDTO{
		ID:        e.ID,
		Title:     e.Title,
		Subject:   e.Subject,
		Content:   e.Content,
		Type:      e.Type,
		Status:    e.Status,
		CreatedAt: formatTimestamp(e.CreatedAt),
		UpdatedAt: formatTimestamp(e.UpdatedAt),
	}
	if e.Date != nil {
		dto.Date = calendar.FormatDate(*e.Date)
	}
	if e.Time != nil {
		dto.Time = e.Time.String()
	}
	if e.Recurrence != nil {
		r := toRecurrenceDTO(*e.Recurrence)
		dto.Recurrence = &r
	}
	if e.Slots != nil {
		s := toSlotManagementDTO(*e.Slots)
		dto.Slots = &s
	}
	if e.RSVP != nil {
		r := toRSVPDTO(*e.RSVP)
		dto.RSVP = &r
	}
	if e.Volunteers != nil {
		v := toVolunteersDTO(*e.Volunteers)
		dto.Volunteers = &v
	}
	return dto
}

func toEngagementDTOs(engagements []application.Engagement) []engagementDTO {
	out := make([]engagementDTO, 0, len(engagements))
	for _, e := range engagements {
		out = append(out, toEngagementDTO(e))
	}
	return out
}

type recurrenceDTO struct {
	Pattern      string   `json:"pattern" validate:"required"`
	SelectedDays []string `json:"selected_days,omitempty"`
	Interval     int      `json:"interval,omitempty" validate:"min=0"`
	EndDate      string   `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func toRecurrenceDTO(r recurrence.Rule) recurrenceDTO {
	dto := recurrenceDTO{
		Pattern:      string(r.Pattern),
		SelectedDays: append([]string(nil), r.SelectedDays...),
		Interval:     r.Interval,
	}
	if r.EndDate != nil {
		dto.EndDate = calendar.FormatDate(*r.EndDate)
	}
	return dto
}

func (r recurrenceDTO) toRule(loc *time.Location) recurrence.Rule {
	rule := recurrence.Rule{
		Pattern:      recurrence.Pattern(r.Pattern),
		SelectedDays: append([]string(nil), r.SelectedDays...),
		Interval:     r.Interval,
	}
	if end, ok := parseDate(r.EndDate, loc); ok {
		rule.EndDate = &end
	}
	return rule
}

type slotManagementDTO struct {
	Enabled             bool           `json:"enabled"`
	TotalSlots          int            `json:"total_slots"`
	SlotDurationMinutes int            `json:"slot_duration_minutes"`
	StartTime           string         `json:"start_time"`
	EndTime             string         `json:"end_time"`
	BookingDeadline     string         `json:"booking_deadline,omitempty"`
	AllowWaitlist       bool           `json:"allow_waitlist"`
	Exceptions          []exceptionDTO `json:"exceptions"`
	Bookings            []bookingDTO   `json:"bookings"`
	Stats               slotStatsDTO   `json:"stats"`
}

func toSlotManagementDTO(m slots.Management) slotManagementDTO {
	dto := slotManagementDTO{
		Enabled:             m.Enabled,
		TotalSlots:          m.TotalSlots,
		SlotDurationMinutes: int(m.SlotDuration / time.Minute),
		StartTime:           m.StartTime.String(),
		EndTime:             m.EndTime.String(),
		BookingDeadline:     formatTimestampPtr(m.BookingDeadline),
		AllowWaitlist:       m.AllowWaitlist,
		Exceptions:          make([]exceptionDTO, 0, len(m.Exceptions)),
		Bookings:            make([]bookingDTO, 0, len(m.Bookings)),
		Stats:               toSlotStatsDTO(m.Stats),
	}
	for _, ex := range m.Exceptions {
		dto.Exceptions = append(dto.Exceptions, toExceptionDTO(ex))
	}
	for _, b := range m.Bookings {
		dto.Bookings = append(dto.Bookings, toBookingDTO(b))
	}
	return dto
}

type slotStatsDTO struct {
	TotalSlots     int `json:"total_slots"`
	BookedSlots    int `json:"booked_slots"`
	AvailableSlots int `json:"available_slots"`
	WaitlistCount  int `json:"waitlist_count"`
}

func toSlotStatsDTO(s slots.Stats) slotStatsDTO {
	return slotStatsDTO{
		TotalSlots:     s.TotalSlots,
		BookedSlots:    s.BookedSlots,
		AvailableSlots: s.AvailableSlots,
		WaitlistCount:  s.WaitlistCount,
	}
}

type bookingDTO struct {
	ID               string `json:"id"`
	UserID           string `json:"user_id"`
	SlotNumber       int    `json:"slot_number"`
	Status           string `json:"status"`
	WaitlistPosition int    `json:"waitlist_position,omitempty"`
	BookedAt         string `json:"booked_at"`
	PromotedAt       string `json:"promoted_at,omitempty"`
	CancelledAt      string `json:"cancelled_at,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

func toBookingDTO(b slots.Booking) bookingDTO {
	return bookingDTO{
		ID:               b.ID,
		UserID:           b.UserID,
		SlotNumber:       b.SlotNumber,
		Status:           string(b.Status),
		WaitlistPosition: b.WaitlistPosition,
		BookedAt:         formatTimestamp(b.BookedAt),
		PromotedAt:       formatTimestampPtr(b.PromotedAt),
		CancelledAt:      formatTimestampPtr(b.CancelledAt),
		Notes:            b.Notes,
	}
}

func toBookingDTOs(bookings []slots.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingDTO(b))
	}
	return out
}

type exceptionDTO struct {
	ID          string `json:"id"`
	SlotNumbers []int  `json:"slot_numbers"`
	Type        string `json:"type"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
	Recurring   bool   `json:"recurring"`
}

func toExceptionDTO(ex slots.Exception) exceptionDTO {
	return exceptionDTO{
		ID:          ex.ID,
		SlotNumbers: append([]int{}, ex.SlotNumbers...),
		Type:        string(ex.Type),
		Title:       ex.Title,
		Description: ex.Description,
		Active:      ex.Active,
		Recurring:   ex.Recurring,
	}
}

type slotViewDTO struct {
	SlotNumber    int               `json:"slot_number"`
	StartTime     string            `json:"start_time"`
	EndTime       string            `json:"end_time"`
	Available     bool              `json:"available"`
	Booked        bool              `json:"booked"`
	WaitlistCount int               `json:"waitlist_count"`
	Exception     *exceptionInfoDTO `json:"exception,omitempty"`
}

type exceptionInfoDTO struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

func toSlotViewDTOs(views []slots.SlotView) []slotViewDTO {
	out := make([]slotViewDTO, 0, len(views))
	for _, v := range views {
		dto := slotViewDTO{
			SlotNumber:    v.Number,
			StartTime:     v.Start.String(),
			EndTime:       v.End.String(),
			Available:     v.Available,
			Booked:        v.Booked,
			WaitlistCount: v.WaitlistCount,
		}
		if v.Exception != nil {
			dto.Exception = &exceptionInfoDTO{
				ID:          v.Exception.ID,
				Type:        string(v.Exception.Type),
				Title:       v.Exception.Title,
				Description: v.Exception.Description,
			}
		}
		out = append(out, dto)
	}
	return out
}

type bookResultDTO struct {
	Success    bool        `json:"success"`
	Waitlisted bool        `json:"waitlisted"`
	Position   int         `json:"position,omitempty"`
	Booking    *bookingDTO `json:"booking,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}

func toBookResultDTO(result slots.BookResult) bookResultDTO {
	dto := bookResultDTO{
		Success:    result.Success,
		Waitlisted: result.Waitlisted,
		Position:   result.Position,
		Reason:     string(result.Reason),
	}
	if result.Success {
		b := toBookingDTO(result.Booking)
		dto.Booking = &b
	}
	return dto
}

type cancelResultDTO struct {
	Changed   bool         `json:"changed"`
	Cancelled *bookingDTO  `json:"cancelled,omitempty"`
	Promoted  *bookingDTO  `json:"promoted,omitempty"`
	Stats     slotStatsDTO `json:"stats"`
}

func toCancelResultDTO(result application.CancelSlotBookingResult) cancelResultDTO {
	dto := cancelResultDTO{Changed: result.Changed, Stats: toSlotStatsDTO(result.Stats)}
	if result.Cancelled != nil {
		b := toBookingDTO(*result.Cancelled)
		dto.Cancelled = &b
	}
	if result.Promoted != nil {
		b := toBookingDTO(*result.Promoted)
		dto.Promoted = &b
	}
	return dto
}

type rsvpDTO struct {
	TotalRecipients int               `json:"total_recipients"`
	Responses       []rsvpResponseDTO `json:"responses"`
	Stats           rsvpStatsDTO      `json:"stats"`
}

type rsvpResponseDTO struct {
	UserID      string `json:"user_id"`
	Status      string `json:"status"`
	Note        string `json:"note,omitempty"`
	RespondedAt string `json:"responded_at"`
}

type rsvpStatsDTO struct {
	Attending    int `json:"attending"`
	NotAttending int `json:"not_attending"`
	Maybe        int `json:"maybe"`
	Pending      int `json:"pending"`
}

func toRSVPDTO(r participation.RSVP) rsvpDTO {
	dto := rsvpDTO{
		TotalRecipients: r.TotalRecipients,
		Responses:       make([]rsvpResponseDTO, 0, len(r.Responses)),
		Stats:           toRSVPStatsDTO(r.Stats),
	}
	for _, resp := range r.Responses {
		dto.Responses = append(dto.Responses, rsvpResponseDTO{
			UserID:      resp.UserID,
			Status:      string(resp.Status),
			Note:        resp.Note,
			RespondedAt: formatTimestamp(resp.RespondedAt),
		})
	}
	return dto
}

func toRSVPStatsDTO(s participation.RSVPStats) rsvpStatsDTO {
	return rsvpStatsDTO{
		Attending:    s.Attending,
		NotAttending: s.NotAttending,
		Maybe:        s.Maybe,
		Pending:      s.Pending,
	}
}

type volunteersDTO struct {
	Roles                  []roleDTO             `json:"roles"`
	Requests               []volunteerRequestDTO `json:"requests"`
	AutoApprove            bool                  `json:"auto_approve"`
	RequireApplicationForm bool                  `json:"require_application_form"`
	ApplicationDeadline    string                `json:"application_deadline,omitempty"`
}

type roleDTO struct {
	ID             string `json:"id" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description,omitempty"`
	SpotsAvailable int    `json:"spots_available" validate:"min=0"`
	SpotsFilled    int    `json:"spots_filled"`
}

type volunteerRequestDTO struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	RoleID      string `json:"role_id"`
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	SubmittedAt string `json:"submitted_at"`
	ReviewedAt  string `json:"reviewed_at,omitempty"`
	ReviewedBy  string `json:"reviewed_by,omitempty"`
	ReviewNote  string `json:"review_note,omitempty"`
}

func toVolunteersDTO(v participation.Volunteers) volunteersDTO {
	dto := volunteersDTO{
		Roles:                  make([]roleDTO, 0, len(v.Roles)),
		Requests:               make([]volunteerRequestDTO, 0, len(v.Requests)),
		AutoApprove:            v.AutoApprove,
		RequireApplicationForm: v.RequireApplicationForm,
		ApplicationDeadline:    formatTimestampPtr(v.ApplicationDeadline),
	}
	for _, role := range v.Roles {
		dto.Roles = append(dto.Roles, roleDTO{
			ID:             role.ID,
			Name:           role.Name,
			Description:    role.Description,
			SpotsAvailable: role.SpotsAvailable,
			SpotsFilled:    role.SpotsFilled,
		})
	}
	for _, req := range v.Requests {
		dto.Requests = append(dto.Requests, toVolunteerRequestDTO(req))
	}
	return dto
}

func toVolunteerRequestDTO(req participation.Request) volunteerRequestDTO {
	return volunteerRequestDTO{
		ID:          req.ID,
		UserID:      req.UserID,
		RoleID:      req.RoleID,
		Status:      string(req.Status),
		Message:     req.Message,
		SubmittedAt: formatTimestamp(req.SubmittedAt),
		ReviewedAt:  formatTimestampPtr(req.ReviewedAt),
		ReviewedBy:  req.ReviewedBy,
		ReviewNote:  req.ReviewNote,
	}
}

type conflictDTO struct {
	EngagementID  string   `json:"engagement_id"`
	Title         string   `json:"title"`
	Type          string   `json:"type"`
	Severity      string   `json:"severity"`
	Message       string   `json:"message"`
	Start         string   `json:"start"`
	AffectedDates []string `json:"affected_dates,omitempty"`
}

type conflictSummaryDTO struct {
	HasConflicts bool   `json:"has_conflicts"`
	Severity     string `json:"severity"`
	Message      string `json:"message"`
	Counts       struct {
		Total  int `json:"total"`
		High   int `json:"high"`
		Medium int `json:"medium"`
		Low    int `json:"low"`
	} `json:"counts"`
}

type conflictsResponse struct {
	Conflicts []conflictDTO      `json:"conflicts"`
	Summary   conflictSummaryDTO `json:"summary"`
}

func toConflictsResponse(conflicts []scheduler.Conflict, summary scheduler.Summary) conflictsResponse {
	resp := conflictsResponse{Conflicts: make([]conflictDTO, 0, len(conflicts))}
	for _, c := range conflicts {
		resp.Conflicts = append(resp.Conflicts, conflictDTO{
			EngagementID:  c.EngagementID,
			Title:         c.Title,
			Type:          string(c.Type),
			Severity:      string(c.Severity),
			Message:       c.Message,
			Start:         formatTimestamp(c.Start),
			AffectedDates: append([]string(nil), c.AffectedDates...),
		})
	}
	resp.Summary.HasConflicts = summary.HasConflicts
	resp.Summary.Severity = string(summary.Severity)
	resp.Summary.Message = summary.Message
	resp.Summary.Counts.Total = summary.Counts.Total
	resp.Summary.Counts.High = summary.Counts.High
	resp.Summary.Counts.Medium = summary.Counts.Medium
	resp.Summary.Counts.Low = summary.Counts.Low
	return resp
}

type occurrenceDTO struct {
	Date       string        `json:"date"`
	Start      string        `json:"start,omitempty"`
	Recurring  bool          `json:"recurring"`
	Engagement engagementDTO `json:"engagement"`
}

func toOccurrenceDTOs(occurrences []application.Occurrence) []occurrenceDTO {
	out := make([]occurrenceDTO, 0, len(occurrences))
	for _, o := range occurrences {
		out = append(out, occurrenceDTO{
			Date:       calendar.FormatDate(o.Date),
			Start:      formatTimestampPtr(o.Start),
			Recurring:  o.Recurring,
			Engagement: toEngagementDTO(o.Engagement),
		})
	}
	return out
}

// EventPayload converts a domain event payload into the JSON shape the REST
// API uses, so websocket consoles and HTTP clients share one vocabulary.
func EventPayload(event application.Event) any {
	switch payload := event.Payload.(type) {
	case application.Engagement:
		return toEngagementDTO(payload)
	case slots.Booking:
		return toBookingDTO(payload)
	case slots.Exception:
		return toExceptionDTO(payload)
	case participation.RSVPStats:
		return toRSVPStatsDTO(payload)
	case participation.Request:
		return toVolunteerRequestDTO(payload)
	default:
		return payload
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimestampPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTimestamp(*t)
}
