package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/temple-engagements/internal/slots"
)

// BookSlot claims a slot for a user. Rejections are reported through
// BookResult.Success rather than an error; errors mean the engagement could not
// be loaded or stored.
func (s *EngagementService) BookSlot(ctx context.Context, params BookSlotParams) (result slots.BookResult, err error) {
	if s == nil {
		err = fmt.Errorf("EngagementService is nil")
		return
	}

	logger := s.loggerWith(ctx, "BookSlot",
		"engagement_id", params.EngagementID,
		"user_id", params.UserID,
		"slot_number", params.SlotNumber,
	)
	defer func() {
		switch {
		case err != nil:
			logger.ErrorContext(ctx, "failed to book slot", "error", err, "error_kind", ErrorKind(err))
		case !result.Success:
			logger.InfoContext(ctx, "slot booking rejected", "reason", string(result.Reason))
		default:
			logger.InfoContext(ctx, "slot booked", "booking_id", result.Booking.ID, "waitlisted", result.Waitlisted, "position", result.Position)
		}
	}()

	if params.UserID == "" {
		err = fieldError("user_id", "user id is required")
		return
	}

	_, err = s.mutate(ctx, params.EngagementID, func(e *Engagement) error {
		if e.Slots == nil {
			result = slots.BookResult{Reason: slots.ReasonDisabled}
			return errUnchanged
		}
		result = e.Slots.Book(slots.BookingRequest{
			ID:         s.idGenerator(),
			UserID:     params.UserID,
			SlotNumber: params.SlotNumber,
			Notes:      params.Notes,
		}, s.now())
		if !result.Success {
			return errUnchanged
		}
		return nil
	})
	if err != nil {
		result = slots.BookResult{}
		return
	}

	if result.Success {
		kind := EventBookingConfirmed
		if result.Waitlisted {
			kind = EventBookingWaitlisted
		}
		s.publish(ctx, kind, params.EngagementID, result.Booking)
	}
	return
}

// CancelSlotBooking cancels a booking and promotes the next waitlisted booking
// for the same slot when a confirmed booking is released. Unknown or already
// cancelled bookings leave the engagement untouched.
func (s *EngagementService) CancelSlotBooking(ctx context.Context, engagementID, bookingID string) (result CancelSlotBookingResult, err error) {
	if s == nil {
		err = fmt.Errorf("EngagementService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CancelSlotBooking",
		"engagement_id", engagementID,
		"booking_id", bookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel slot booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		if !result.Changed {
			logger.InfoContext(ctx, "slot booking cancellation was a no-op")
			return
		}
		attrs := []any{}
		if result.Promoted != nil {
			attrs = append(attrs, "promoted_booking_id", result.Promoted.ID)
		}
		logger.InfoContext(ctx, "slot booking cancelled", attrs...)
	}()

	updated, err := s.mutate(ctx, engagementID, func(e *Engagement) error {
		if e.Slots == nil {
			return errUnchanged
		}
		outcome, changed := e.Slots.Cancel(bookingID, s.now())
		if !changed {
			return errUnchanged
		}
		cancelled := outcome.Cancelled
		result = CancelSlotBookingResult{Changed: true, Cancelled: &cancelled, Promoted: outcome.Promoted}
		return nil
	})
	if err != nil {
		result = CancelSlotBookingResult{}
		return
	}
	if updated.Slots != nil {
		result.Stats = updated.Slots.Stats
	}

	if result.Changed {
		s.publish(ctx, EventBookingCancelled, engagementID, *result.Cancelled)
		if result.Promoted != nil {
			s.publish(ctx, EventBookingPromoted, engagementID, *result.Promoted)
		}
	}
	return
}

// ProcessWaitlist promotes the earliest waitlisted booking of every slot left
// without a confirmed booking. Running it again without intervening changes
// promotes nothing.
func (s *EngagementService) ProcessWaitlist(ctx context.Context, engagementID string) (promoted []slots.Booking, err error) {
	if s == nil {
		err = fmt.Errorf("EngagementService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ProcessWaitlist", "engagement_id", engagementID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to process waitlist", "error", err, "error_kind", ErrorKind(err))
			return
		}
		if len(promoted) > 0 {
			logger.InfoContext(ctx, "waitlist processed", "promoted", len(promoted))
		}
	}()

	promoted = []slots.Booking{}
	_, err = s.mutate(ctx, engagementID, func(e *Engagement) error {
		if e.Slots == nil {
			return errUnchanged
		}
		if out := e.Slots.ProcessWaitlist(s.now()); len(out) > 0 {
			promoted = out
			return nil
		}
		return errUnchanged
	})
	if err != nil {
		promoted = nil
		return
	}
	for _, booking := range promoted {
		s.publish(ctx, EventBookingPromoted, engagementID, booking)
	}
	return
}

// AvailableSlots lists every slot of the engagement with its window and
// availability. Engagements without slot management have no slots.
func (s *EngagementService) AvailableSlots(ctx context.Context, engagementID string) ([]slots.SlotView, error) {
	engagement, err := s.GetEngagement(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if engagement.Slots == nil {
		return []slots.SlotView{}, nil
	}
	return engagement.Slots.Available(), nil
}

// AddSlotException blocks the given slot numbers.
func (s *EngagementService) AddSlotException(ctx context.Context, engagementID string, input SlotExceptionInput) (exception slots.Exception, err error) {
	if s == nil {
		err = fmt.Errorf("EngagementService is nil")
		return
	}

	logger := s.loggerWith(ctx, "AddSlotException", "engagement_id", engagementID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add slot exception", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "slot exception added", "exception_id", exception.ID)
	}()

	if vErr := validateSlotException(input); vErr.HasErrors() {
		err = vErr
		return
	}

	_, err = s.mutate(ctx, engagementID, func(e *Engagement) error {
		if e.Slots == nil {
			return ErrFeatureDisabled
		}
		added, addErr := e.Slots.AddException(toSlotException(s.idGenerator(), input))
		if addErr != nil {
			return mapSlotError(addErr)
		}
		exception = added
		return nil
	})
	if err != nil {
		exception = slots.Exception{}
		return
	}
	s.publish(ctx, EventSlotsUpdated, engagementID, exception)
	return
}

// UpdateSlotException replaces an existing exception.
func (s *EngagementService) UpdateSlotException(ctx context.Context, engagementID, exceptionID string, input SlotExceptionInput) (exception slots.Exception, err error) {
	if s == nil {
		err = fmt.Errorf("EngagementService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSlotException", "engagement_id", engagementID, "exception_id", exceptionID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update slot exception", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "slot exception updated")
	}()

	if vErr := validateSlotException(input); vErr.HasErrors() {
		err = vErr
		return
	}

	_, err = s.mutate(ctx, engagementID, func(e *Engagement) error {
		if e.Slots == nil {
			return ErrFeatureDisabled
		}
		updated, updateErr := e.Slots.UpdateException(toSlotException(exceptionID, input))
		if updateErr != nil {
			return mapSlotError(updateErr)
		}
		exception = updated
		return nil
	})
	if err != nil {
		exception = slots.Exception{}
		return
	}
	s.publish(ctx, EventSlotsUpdated, engagementID, exception)
	return
}

// DeleteSlotException removes an exception.
func (s *EngagementService) DeleteSlotException(ctx context.Context, engagementID, exceptionID string) (err error) {
	if s == nil {
		return fmt.Errorf("EngagementService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteSlotException", "engagement_id", engagementID, "exception_id", exceptionID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete slot exception", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "slot exception deleted")
	}()

	_, err = s.mutate(ctx, engagementID, func(e *Engagement) error {
		if e.Slots == nil {
			return ErrFeatureDisabled
		}
		return mapSlotError(e.Slots.DeleteException(exceptionID))
	})
	if err != nil {
		return
	}
	s.publish(ctx, EventSlotsUpdated, engagementID, map[string]string{"deleted_exception_id": exceptionID})
	return
}

func validateSlotException(input SlotExceptionInput) *ValidationError {
	vErr := &ValidationError{}
	if len(input.SlotNumbers) == 0 {
		vErr.add("slot_numbers", "at least one slot number is required")
	}
	switch input.Type {
	case slots.ExceptionBreak, slots.ExceptionBuffer, slots.ExceptionReserved, slots.ExceptionMaintenance, slots.ExceptionOther:
	default:
		vErr.add("type", "type must be one of break, buffer, reserved, maintenance or other")
	}
	return vErr
}

func toSlotException(id string, input SlotExceptionInput) slots.Exception {
	return slots.Exception{
		ID:          id,
		SlotNumbers: append([]int(nil), input.SlotNumbers...),
		Type:        input.Type,
		Title:       input.Title,
		Description: input.Description,
		Active:      input.Active,
		Recurring:   input.Recurring,
	}
}

func mapSlotError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, slots.ErrExceptionNotFound):
		return ErrNotFound
	case errors.Is(err, slots.ErrInvalidException):
		return fieldError("slot_numbers", err.Error())
	}
	return err
}
