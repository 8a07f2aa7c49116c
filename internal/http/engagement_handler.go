package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/temple-engagements/internal/application"
	"github.com/example/temple-engagements/internal/calendar"
	"github.com/example/temple-engagements/internal/logging"
)

type engagementService interface {
	CreateEngagement(ctx context.Context, input application.EngagementInput) (application.Engagement, error)
	UpdateEngagement(ctx context.Context, id string, input application.EngagementInput) (application.Engagement, error)
	GetEngagement(ctx context.Context, id string) (application.Engagement, error)
	ListEngagements(ctx context.Context, params application.ListEngagementsParams) ([]application.Engagement, error)
	DeleteEngagement(ctx context.Context, id string) error
	EngagementsOn(ctx context.Context, date time.Time) ([]application.Occurrence, error)
}

// CalendarFeed renders engagements as an iCalendar document.
type CalendarFeed interface {
	Write(w io.Writer, engagements []application.Engagement) error
}

type EngagementHandler struct {
	service   engagementService
	feed      CalendarFeed
	location  *time.Location
	logger    *slog.Logger
	responder responder
}

func NewEngagementHandler(service engagementService, feed CalendarFeed, loc *time.Location, logger *slog.Logger) *EngagementHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &EngagementHandler{
		service:   service,
		feed:      feed,
		location:  loc,
		logger:    logging.OrDefault(logger),
		responder: newResponder(logger),
	}
}

func (h *EngagementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req engagementRequest
	if err := decodeRequest(r, &req); err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}

	engagement, err := h.service.CreateEngagement(r.Context(), req.toInput(h.location))
	if err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}

	w.Header().Set("Location", "/api/engagements/"+url.PathEscape(engagement.ID))
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEngagementDTO(engagement))
}

func (h *EngagementHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := pathValue(r, "id")
	var req engagementRequest
	if err := decodeRequest(r, &req); err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}

	engagement, err := h.service.UpdateEngagement(r.Context(), id, req.toInput(h.location))
	if err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEngagementDTO(engagement))
}

func (h *EngagementHandler) Get(w http.ResponseWriter, r *http.Request) {
	engagement, err := h.service.GetEngagement(r.Context(), pathValue(r, "id"))
	if err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEngagementDTO(engagement))
}

func (h *EngagementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteEngagement(r.Context(), pathValue(r, "id")); err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *EngagementHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := buildListParams(r.URL.Query(), h.location)
	if err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}

	engagements, err := h.service.ListEngagements(r.Context(), params)
	if err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEngagementsResponse{Engagements: toEngagementDTOs(engagements)})
}

// Day lists the occurrences on ?date=, defaulting to today in the handler's location.
func (h *EngagementHandler) Day(w http.ResponseWriter, r *http.Request) {
	day := calendar.StartOfDay(time.Now(), h.location)
	if value := strings.TrimSpace(r.URL.Query().Get("date")); value != "" {
		parsed, ok := parseDate(value, h.location)
		if !ok {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
			return
		}
		day = parsed
	}

	occurrences, err := h.service.EngagementsOn(r.Context(), day)
	if err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, dayResponse{
		Date:        calendar.FormatDate(day),
		Occurrences: toOccurrenceDTOs(occurrences),
	})
}

// Feed serves the scheduled engagements as text/calendar.
func (h *EngagementHandler) Feed(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	engagements, err := h.service.ListEngagements(r.Context(), application.ListEngagementsParams{
		Statuses: []string{application.StatusScheduled, application.StatusSending, application.StatusSent},
	})
	if err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="engagements.ics"`)
	if err := h.feed.Write(w, engagements); err != nil {
		logging.Scoped(r.Context(), h.logger, "handler", "EngagementHandler", "Feed").ErrorContext(r.Context(), "failed to write calendar feed", "error", err)
	}
}

type listEngagementsResponse struct {
	Engagements []engagementDTO `json:"engagements"`
}

type dayResponse struct {
	Date        string          `json:"date"`
	Occurrences []occurrenceDTO `json:"occurrences"`
}

// buildListParams maps ?type=, ?status= (comma separated) and ?from=/?to= dates.
func buildListParams(values url.Values, loc *time.Location) (application.ListEngagementsParams, error) {
	params := application.ListEngagementsParams{
		Types:    parseCSV(values.Get("type")),
		Statuses: parseCSV(values.Get("status")),
	}

	vErr := &application.ValidationError{FieldErrors: map[string]string{}}
	if from := strings.TrimSpace(values.Get("from")); from != "" {
		if ts, ok := parseDate(from, loc); ok {
			params.From = &ts
		} else {
			vErr.FieldErrors["from"] = errInvalidDate.Error()
		}
	}
	if to := strings.TrimSpace(values.Get("to")); to != "" {
		if ts, ok := parseDate(to, loc); ok {
			params.To = &ts
		} else {
			vErr.FieldErrors["to"] = errInvalidDate.Error()
		}
	}
	if vErr.HasErrors() {
		return params, vErr
	}
	return params, nil
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.ToLower(strings.TrimSpace(part)); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
