package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/temple-engagements/internal/application"
	"github.com/example/temple-engagements/internal/slots"
)

type slotService interface {
	BookSlot(ctx context.Context, params application.BookSlotParams) (slots.BookResult, error)
	CancelSlotBooking(ctx context.Context, engagementID, bookingID string) (application.CancelSlotBookingResult, error)
	ProcessWaitlist(ctx context.Context, engagementID string) ([]slots.Booking, error)
	AvailableSlots(ctx context.Context, engagementID string) ([]slots.SlotView, error)
	AddSlotException(ctx context.Context, engagementID string, input application.SlotExceptionInput) (slots.Exception, error)
	UpdateSlotException(ctx context.Context, engagementID, exceptionID string, input application.SlotExceptionInput) (slots.Exception, error)
	DeleteSlotException(ctx context.Context, engagementID, exceptionID string) error
}

type SlotHandler struct {
	service   slotService
	responder responder
}

func NewSlotHandler(service slotService, logger *slog.Logger) *SlotHandler {
	return &SlotHandler{service: service, responder: newResponder(logger)}
}

func (h *SlotHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.AvailableSlots(r.Context(), pathValue(r, "id"))
	if err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, slotListResponse{Slots: toSlotViewDTOs(views)})
}

// Book answers 201 for a confirmed or waitlisted booking and 409 with the
// rejection reason otherwise.
func (h *SlotHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := decodeRequest(r, &req); err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}

	result, err := h.service.BookSlot(r.Context(), application.BookSlotParams{
		EngagementID: pathValue(r, "id"),
		UserID:       req.UserID,
		SlotNumber:   req.SlotNumber,
		Notes:        req.Notes,
	})
	if err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}

	status := http.StatusCreated
	if !result.Success {
		status = http.StatusConflict
	}
	h.responder.writeJSON(r.Context(), w, status, toBookResultDTO(result))
}

func (h *SlotHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.CancelSlotBooking(r.Context(), pathValue(r, "id"), pathValue(r, "bookingID"))
	if err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toCancelResultDTO(result))
}

func (h *SlotHandler) ProcessWaitlist(w http.ResponseWriter, r *http.Request) {
	promoted, err := h.service.ProcessWaitlist(r.Context(), pathValue(r, "id"))
	if err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, waitlistResponse{Promoted: toBookingDTOs(promoted)})
}

func (h *SlotHandler) CreateException(w http.ResponseWriter, r *http.Request) {
	var req slotExceptionRequest
	if err := decodeRequest(r, &req); err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}

	exception, err := h.service.AddSlotException(r.Context(), pathValue(r, "id"), req.toInput())
	if err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toExceptionDTO(exception))
}

func (h *SlotHandler) UpdateException(w http.ResponseWriter, r *http.Request) {
	var req slotExceptionRequest
	if err := decodeRequest(r, &req); err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}

	exception, err := h.service.UpdateSlotException(r.Context(), pathValue(r, "id"), pathValue(r, "exceptionID"), req.toInput())
	if err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toExceptionDTO(exception))
}

func (h *SlotHandler) DeleteException(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSlotException(r.Context(), pathValue(r, "id"), pathValue(r, "exceptionID")); err != nil {
		h.responder.handleError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type slotListResponse struct {
	Slots []slotViewDTO `json:"slots"`
}

type waitlistResponse struct {
	Promoted []bookingDTO `json:"promoted"`
}
