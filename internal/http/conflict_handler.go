package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/temple-engagements/internal/application"
	"github.com/example/temple-engagements/internal/calendar"
	"github.com/example/temple-engagements/internal/recurrence"
	"github.com/example/temple-engagements/internal/scheduler"
)

type conflictService interface {
	ExpandRecurrence(base time.Time, rule recurrence.Rule) []time.Time
	CheckScheduleConflicts(ctx context.Context, params application.ScheduleConflictParams) ([]scheduler.Conflict, error)
	CheckRecurrenceConflicts(ctx context.Context, params application.RecurrenceConflictParams) ([]scheduler.Conflict, error)
	ConflictSummary(conflicts []scheduler.Conflict) scheduler.Summary
}

// ConflictHandler serves recurrence previews and conflict checks for the
// engagement editor.
type ConflictHandler struct {
	service   conflictService
	location  *time.Location
	responder responder
}

func NewConflictHandler(service conflictService, loc *time.Location, logger *slog.Logger) *ConflictHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ConflictHandler{service: service, location: loc, responder: newResponder(logger)}
}

func (h *ConflictHandler) Expand(w http.ResponseWriter, r *http.Request) {
	var req expandRequest
	if err := decodeRequest(r, &req); err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}

	base, _ := parseDate(req.Date, h.location)
	dates := h.service.ExpandRecurrence(base, req.Recurrence.toRule(h.location))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, calendar.FormatDate(d))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, expandResponse{Dates: out})
}

func (h *ConflictHandler) CheckSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleConflictRequest
	if err := decodeRequest(r, &req); err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}

	date, _ := parseDate(req.Date, h.location)
	clock, _ := parseClock(req.Time)
	conflicts, err := h.service.CheckScheduleConflicts(r.Context(), application.ScheduleConflictParams{
		Date:      date,
		Time:      derefClock(clock),
		Duration:  time.Duration(req.DurationMinutes) * time.Minute,
		ExcludeID: req.ExcludeID,
	})
	if err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toConflictsResponse(conflicts, h.service.ConflictSummary(conflicts)))
}

func (h *ConflictHandler) CheckRecurrence(w http.ResponseWriter, r *http.Request) {
	var req recurrenceConflictRequest
	if err := decodeRequest(r, &req); err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}

	date, _ := parseDate(req.Date, h.location)
	clock, _ := parseClock(req.Time)
	conflicts, err := h.service.CheckRecurrenceConflicts(r.Context(), application.RecurrenceConflictParams{
		Date:      date,
		Time:      derefClock(clock),
		Rule:      req.Recurrence.toRule(h.location),
		ExcludeID: req.ExcludeID,
	})
	if err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toConflictsResponse(conflicts, h.service.ConflictSummary(conflicts)))
}

type expandResponse struct {
	Dates []string `json:"dates"`
}
