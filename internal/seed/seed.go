// Package seed loads the mock engagements the admin console starts with.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/example/temple-engagements/internal/application"
	"github.com/example/temple-engagements/internal/calendar"
	"github.com/example/temple-engagements/internal/participation"
	"github.com/example/temple-engagements/internal/recurrence"
	"github.com/example/temple-engagements/internal/slots"
)

// File is the top-level document of a seed file.
type File struct {
	Engagements []Engagement `yaml:"engagements" validate:"dive"`
}

// Engagement describes one engagement and the participation recorded against it.
type Engagement struct {
	Title      string      `yaml:"title" validate:"required"`
	Subject    string      `yaml:"subject,omitempty"`
	Content    string      `yaml:"content,omitempty"`
	Type       string      `yaml:"type" validate:"required,oneof=announcement event meeting"`
	Status     string      `yaml:"status,omitempty" validate:"omitempty,oneof=draft scheduled sending sent failed"`
	Date       string      `yaml:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Time       string      `yaml:"time,omitempty" validate:"omitempty,datetime=15:04"`
	Recurrence *Recurrence `yaml:"recurrence,omitempty"`
	Slots      *Slots      `yaml:"slots,omitempty"`
	RSVP       *RSVP       `yaml:"rsvp,omitempty"`
	Volunteers *Volunteers `yaml:"volunteers,omitempty"`
}

type Recurrence struct {
	Pattern      string   `yaml:"pattern" validate:"required,oneof=none daily weekly bi-weekly monthly yearly custom"`
	SelectedDays []string `yaml:"selectedDays,omitempty"`
	Interval     int      `yaml:"interval,omitempty" validate:"min=0"`
	EndDate      string   `yaml:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type Slots struct {
	TotalSlots      int       `yaml:"totalSlots" validate:"min=1"`
	DurationMinutes int       `yaml:"durationMinutes" validate:"min=1"`
	StartTime       string    `yaml:"startTime" validate:"required,datetime=15:04"`
	EndTime         string    `yaml:"endTime,omitempty" validate:"omitempty,datetime=15:04"`
	AllowWaitlist   bool      `yaml:"allowWaitlist,omitempty"`
	Bookings        []Booking `yaml:"bookings,omitempty" validate:"dive"`
}

type Booking struct {
	UserID     string `yaml:"userID" validate:"required"`
	SlotNumber int    `yaml:"slot" validate:"min=1"`
	Notes      string `yaml:"notes,omitempty"`
}

type RSVP struct {
	TotalRecipients int        `yaml:"totalRecipients" validate:"min=0"`
	Responses       []Response `yaml:"responses,omitempty" validate:"dive"`
}

type Response struct {
	UserID string `yaml:"userID" validate:"required"`
	Status string `yaml:"status" validate:"required,oneof=attending not_attending maybe"`
	Note   string `yaml:"note,omitempty"`
}

type Volunteers struct {
	AutoApprove bool      `yaml:"autoApprove,omitempty"`
	Roles       []Role    `yaml:"roles" validate:"required,min=1,dive"`
	Requests    []Request `yaml:"requests,omitempty" validate:"dive"`
}

type Role struct {
	ID          string `yaml:"id" validate:"required"`
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description,omitempty"`
	Spots       int    `yaml:"spots" validate:"min=0"`
}

// Request is a volunteer application. A non-empty Decision reviews it right
// after submission.
type Request struct {
	UserID   string `yaml:"userID" validate:"required"`
	RoleID   string `yaml:"roleID" validate:"required"`
	Message  string `yaml:"message,omitempty"`
	Decision string `yaml:"decision,omitempty" validate:"omitempty,oneof=approved rejected"`
	Reviewer string `yaml:"reviewer,omitempty" validate:"required_with=Decision"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadFile reads and validates the seed file at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a seed document.
func Parse(data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("seed: parse: %w", err)
	}
	if err := validate.Struct(&file); err != nil {
		return nil, fmt.Errorf("seed: validation failed: %w", err)
	}
	return &file, nil
}

// Service is the subset of the engagement service the loader drives.
type Service interface {
	CreateEngagement(ctx context.Context, input application.EngagementInput) (application.Engagement, error)
	BookSlot(ctx context.Context, params application.BookSlotParams) (slots.BookResult, error)
	UpdateRSVP(ctx context.Context, input application.RSVPInput) (participation.RSVP, error)
	SubmitVolunteerRequest(ctx context.Context, input application.VolunteerRequestInput) (participation.Request, error)
	ReviewVolunteerRequest(ctx context.Context, input application.VolunteerReviewInput) (participation.Request, error)
}

// Summary counts what Apply created.
type Summary struct {
	Engagements int
	Bookings    int
	Responses   int
	Requests    int
}

// Loader feeds a seed file through the engagement service so seeded data obeys
// the same rules as console edits.
type Loader struct {
	service  Service
	location *time.Location
	logger   *slog.Logger
}

// NewLoader constructs a Loader interpreting dates in loc.
func NewLoader(service Service, loc *time.Location, logger *slog.Logger) *Loader {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{service: service, location: loc, logger: logger.With("component", "seed")}
}

// Apply creates every engagement in file, then replays its bookings, RSVP
// responses and volunteer requests. Rejected bookings are logged and skipped.
func (l *Loader) Apply(ctx context.Context, file *File) (summary Summary, err error) {
	if file == nil {
		return summary, errors.New("seed: nil file")
	}
	defer func() {
		if err != nil {
			l.logger.ErrorContext(ctx, "seed failed", "error", err, "error_kind", application.ErrorKind(err))
			return
		}
		l.logger.InfoContext(ctx, "seed applied",
			"engagements", summary.Engagements,
			"bookings", summary.Bookings,
			"responses", summary.Responses,
			"volunteer_requests", summary.Requests,
		)
	}()

	for i, entry := range file.Engagements {
		created, createErr := l.service.CreateEngagement(ctx, l.toInput(entry))
		if createErr != nil {
			err = fmt.Errorf("seed: engagement[%d] %q: %w", i, entry.Title, createErr)
			return
		}
		summary.Engagements++

		if entry.Slots != nil {
			for _, booking := range entry.Slots.Bookings {
				result, bookErr := l.service.BookSlot(ctx, application.BookSlotParams{
					EngagementID: created.ID,
					UserID:       booking.UserID,
					SlotNumber:   booking.SlotNumber,
					Notes:        booking.Notes,
				})
				if bookErr != nil {
					err = fmt.Errorf("seed: engagement[%d] booking for %s: %w", i, booking.UserID, bookErr)
					return
				}
				if !result.Success {
					l.logger.WarnContext(ctx, "seed booking rejected", "engagement_id", created.ID, "user_id", booking.UserID, "reason", string(result.Reason))
					continue
				}
				summary.Bookings++
			}
		}

		if entry.RSVP != nil {
			for _, response := range entry.RSVP.Responses {
				if _, rsvpErr := l.service.UpdateRSVP(ctx, application.RSVPInput{
					EngagementID: created.ID,
					UserID:       response.UserID,
					Status:       participation.ResponseStatus(response.Status),
					Note:         response.Note,
				}); rsvpErr != nil {
					err = fmt.Errorf("seed: engagement[%d] rsvp for %s: %w", i, response.UserID, rsvpErr)
					return
				}
				summary.Responses++
			}
		}

		if entry.Volunteers != nil {
			for _, req := range entry.Volunteers.Requests {
				if err = l.applyRequest(ctx, created.ID, req); err != nil {
					err = fmt.Errorf("seed: engagement[%d] volunteer request for %s: %w", i, req.UserID, err)
					return
				}
				summary.Requests++
			}
		}
	}
	return summary, nil
}

func (l *Loader) applyRequest(ctx context.Context, engagementID string, req Request) error {
	submitted, err := l.service.SubmitVolunteerRequest(ctx, application.VolunteerRequestInput{
		EngagementID: engagementID,
		UserID:       req.UserID,
		RoleID:       req.RoleID,
		Message:      req.Message,
	})
	if err != nil {
		return err
	}
	if req.Decision == "" || submitted.Status != participation.RequestPending {
		return nil
	}
	_, err = l.service.ReviewVolunteerRequest(ctx, application.VolunteerReviewInput{
		EngagementID: engagementID,
		RequestID:    submitted.ID,
		Decision:     participation.RequestStatus(req.Decision),
		Reviewer:     req.Reviewer,
	})
	return err
}

func (l *Loader) toInput(entry Engagement) application.EngagementInput {
	input := application.EngagementInput{
		Title:   entry.Title,
		Subject: entry.Subject,
		Content: entry.Content,
		Type:    entry.Type,
		Status:  entry.Status,
	}
	if date, err := calendar.ParseDate(entry.Date, l.location); err == nil {
		input.Date = &date
	}
	if clock, err := calendar.ParseTimeOfDay(entry.Time); err == nil {
		input.Time = &clock
	}
	if r := entry.Recurrence; r != nil {
		rule := recurrence.Rule{
			Pattern:      recurrence.Pattern(strings.ToLower(r.Pattern)),
			SelectedDays: append([]string(nil), r.SelectedDays...),
			Interval:     r.Interval,
		}
		if end, err := calendar.ParseDate(r.EndDate, l.location); err == nil {
			rule.EndDate = &end
		}
		input.Recurrence = &rule
	}
	if s := entry.Slots; s != nil {
		settings := application.SlotSettings{
			Enabled:       true,
			TotalSlots:    s.TotalSlots,
			SlotDuration:  time.Duration(s.DurationMinutes) * time.Minute,
			AllowWaitlist: s.AllowWaitlist,
		}
		if start, err := calendar.ParseTimeOfDay(s.StartTime); err == nil {
			settings.StartTime = start
		}
		if end, err := calendar.ParseTimeOfDay(s.EndTime); err == nil {
			settings.EndTime = end
		} else {
			settings.EndTime = settings.StartTime.Add(settings.SlotDuration * time.Duration(s.TotalSlots))
		}
		input.Slots = &settings
	}
	if r := entry.RSVP; r != nil {
		input.RSVP = &application.RSVPSettings{TotalRecipients: r.TotalRecipients}
	}
	if v := entry.Volunteers; v != nil {
		settings := application.VolunteerSettings{AutoApprove: v.AutoApprove}
		for _, role := range v.Roles {
			settings.Roles = append(settings.Roles, participation.Role{
				ID:             role.ID,
				Name:           role.Name,
				Description:    role.Description,
				SpotsAvailable: role.Spots,
			})
		}
		input.Volunteers = &settings
	}
	return input
}
