package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/temple-engagements/internal/application"
	"github.com/example/temple-engagements/internal/participation"
)

type participationService interface {
	UpdateRSVP(ctx context.Context, input application.RSVPInput) (participation.RSVP, error)
	SubmitVolunteerRequest(ctx context.Context, input application.VolunteerRequestInput) (participation.Request, error)
	ReviewVolunteerRequest(ctx context.Context, input application.VolunteerReviewInput) (participation.Request, error)
}

type ParticipationHandler struct {
	service   participationService
	responder responder
}

func NewParticipationHandler(service participationService, logger *slog.Logger) *ParticipationHandler {
	return &ParticipationHandler{service: service, responder: newResponder(logger)}
}

func (h *ParticipationHandler) UpdateRSVP(w http.ResponseWriter, r *http.Request) {
	var req rsvpRequest
	if err := decodeRequest(r, &req); err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}

	rsvp, err := h.service.UpdateRSVP(r.Context(), application.RSVPInput{
		EngagementID: pathValue(r, "id"),
		UserID:       pathValue(r, "userID"),
		Status:       participation.ResponseStatus(req.Status),
		Note:         req.Note,
	})
	if err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRSVPDTO(rsvp))
}

func (h *ParticipationHandler) SubmitVolunteerRequest(w http.ResponseWriter, r *http.Request) {
	var req volunteerRequest
	if err := decodeRequest(r, &req); err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}

	request, err := h.service.SubmitVolunteerRequest(r.Context(), application.VolunteerRequestInput{
		EngagementID: pathValue(r, "id"),
		UserID:       req.UserID,
		RoleID:       req.RoleID,
		Message:      req.Message,
	})
	if err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toVolunteerRequestDTO(request))
}

func (h *ParticipationHandler) ReviewVolunteerRequest(w http.ResponseWriter, r *http.Request) {
	var req volunteerReviewRequest
	if err := decodeRequest(r, &req); err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}

	request, err := h.service.ReviewVolunteerRequest(r.Context(), application.VolunteerReviewInput{
		EngagementID: pathValue(r, "id"),
		RequestID:    pathValue(r, "requestID"),
		Decision:     participation.RequestStatus(req.Decision),
		Reviewer:     req.Reviewer,
		Note:         req.Note,
	})
	if err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toVolunteerRequestDTO(request))
}
