package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/example/temple-engagements/internal/application"
	"github.com/example/temple-engagements/internal/calendar"
	"github.com/example/temple-engagements/internal/participation"
	"github.com/example/temple-engagements/internal/slots"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = time.RFC3339
)

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeRequest reads a JSON body into dst and runs struct validation. Format
// problems come back as *application.ValidationError so they render like
// service-side validation failures.
func decodeRequest(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyRequestBody
		}
		return errBadRequestBody
	}
	return validateRequest(dst)
}

func validateRequest(dst any) error {
	err := requestValidator.Struct(dst)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	vErr := &application.ValidationError{FieldErrors: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		vErr.FieldErrors[fieldPath(fe)] = validationMessage(fe)
	}
	return vErr
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return fmt.Sprintf("must use the format %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return "is invalid"
	}
}

func parseDate(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	t, err := calendar.ParseDate(value, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseClock(value string) (*calendar.TimeOfDay, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, false
	}
	t, err := calendar.ParseTimeOfDay(value)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func parseTimestamp(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	ts, err := time.Parse(timestampLayout, value)
	if err != nil {
		return nil
	}
	return &ts
}

type engagementRequest struct {
	Title      string                `json:"title"`
	Subject    string                `json:"subject"`
	Content    string                `json:"content"`
	Type       string                `json:"type"`
	Status     string                `json:"status"`
	Date       string                `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time       string                `json:"time" validate:"omitempty,datetime=15:04"`
	Recurrence *recurrenceDTO        `json:"recurrence"`
	Slots      *slotSettingsRequest  `json:"slots"`
	RSVP       *rsvpSettingsRequest  `json:"rsvp"`
	Volunteers *volunteerSettingsDTO `json:"volunteers"`
}

type slotSettingsRequest struct {
	Enabled             bool   `json:"enabled"`
	TotalSlots          int    `json:"total_slots" validate:"min=0"`
	SlotDurationMinutes int    `json:"slot_duration_minutes" validate:"min=0"`
	StartTime           string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime             string `json:"end_time" validate:"omitempty,datetime=15:04"`
	BookingDeadline     string `json:"booking_deadline" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	AllowWaitlist       bool   `json:"allow_waitlist"`
}

type rsvpSettingsRequest struct {
	TotalRecipients int `json:"total_recipients" validate:"min=0"`
}

type volunteerSettingsDTO struct {
	Roles                  []roleDTO `json:"roles" validate:"dive"`
	AutoApprove            bool      `json:"auto_approve"`
	RequireApplicationForm bool      `json:"require_application_form"`
	ApplicationDeadline    string    `json:"application_deadline" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

func (r engagementRequest) toInput(loc *time.Location) application.EngagementInput {
	input := application.EngagementInput{
		Title:   strings.TrimSpace(r.Title),
		Subject: strings.TrimSpace(r.Subject),
		Content: r.Content,
		Type:    r.Type,
		Status:  r.Status,
	}
	if date, ok := parseDate(r.Date, loc); ok {
		input.Date = &date
	}
	if clock, ok := parseClock(r.Time); ok {
		input.Time = clock
	}
	if r.Recurrence != nil {
		rule := r.Recurrence.toRule(loc)
		input.Recurrence = &rule
	}
	if s := r.Slots; s != nil {
		settings := application.SlotSettings{
			Enabled:         s.Enabled,
			TotalSlots:      s.TotalSlots,
			SlotDuration:    time.Duration(s.SlotDurationMinutes) * time.Minute,
			BookingDeadline: parseTimestamp(s.BookingDeadline),
			AllowWaitlist:   s.AllowWaitlist,
		}
		if start, ok := parseClock(s.StartTime); ok {
			settings.StartTime = *start
		}
		if end, ok := parseClock(s.EndTime); ok {
			settings.EndTime = *end
		}
		input.Slots = &settings
	}
	if r.RSVP != nil {
		input.RSVP = &application.RSVPSettings{TotalRecipients: r.RSVP.TotalRecipients}
	}
	if v := r.Volunteers; v != nil {
		settings := application.VolunteerSettings{
			AutoApprove:            v.AutoApprove,
			RequireApplicationForm: v.RequireApplicationForm,
			ApplicationDeadline:    parseTimestamp(v.ApplicationDeadline),
		}
		for _, role := range v.Roles {
			settings.Roles = append(settings.Roles, participation.Role{
				ID:             strings.TrimSpace(role.ID),
				Name:           strings.TrimSpace(role.Name),
				Description:    role.Description,
				SpotsAvailable: role.SpotsAvailable,
			})
		}
		input.Volunteers = &settings
	}
	return input
}

type bookingRequest struct {
	UserID     string `json:"user_id" validate:"required"`
	SlotNumber int    `json:"slot_number"`
	Notes      string `json:"notes"`
}

type slotExceptionRequest struct {
	SlotNumbers []int  `json:"slot_numbers" validate:"required,min=1"`
	Type        string `json:"type" validate:"omitempty,oneof=break buffer reserved maintenance other"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Active      *bool  `json:"active"`
	Recurring   bool   `json:"recurring"`
}

func (r slotExceptionRequest) toInput() application.SlotExceptionInput {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	kind := slots.ExceptionType(r.Type)
	if kind == "" {
		kind = slots.ExceptionOther
	}
	return application.SlotExceptionInput{
		SlotNumbers: append([]int(nil), r.SlotNumbers...),
		Type:        kind,
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Active:      active,
		Recurring:   r.Recurring,
	}
}

type rsvpRequest struct {
	Status string `json:"status" validate:"required,oneof=attending not_attending maybe"`
	Note   string `json:"note"`
}

type volunteerRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	RoleID  string `json:"role_id" validate:"required"`
	Message string `json:"message"`
}

type volunteerReviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
	Reviewer string `json:"reviewer" validate:"required"`
	Note     string `json:"note"`
}

type expandRequest struct {
	Date       string        `json:"date" validate:"required,datetime=2006-01-02"`
	Recurrence recurrenceDTO `json:"recurrence"`
}

type scheduleConflictRequest struct {
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string `json:"time" validate:"required,datetime=15:04"`
	DurationMinutes int    `json:"duration_minutes" validate:"min=0"`
	ExcludeID       string `json:"exclude_id"`
}

type recurrenceConflictRequest struct {
	Date       string        `json:"date" validate:"required,datetime=2006-01-02"`
	Time       string        `json:"time" validate:"required,datetime=15:04"`
	Recurrence recurrenceDTO `json:"recurrence"`
	ExcludeID  string        `json:"exclude_id"`
}

func derefClock(c *calendar.TimeOfDay) calendar.TimeOfDay {
	if c == nil {
		return calendar.TimeOfDay{}
	}
	return *c
}
