package slots

import (
	"time"
)

// Reason explains why a booking attempt was rejected.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonDisabled       Reason = "disabled"
	ReasonDuplicate      Reason = "duplicate"
	ReasonDeadlinePassed Reason = "deadline_passed"
	ReasonInvalidSlot    Reason = "invalid_slot"
	ReasonSlotFull       Reason = "slot_full"
)

// BookingRequest is a user's attempt to claim a slot.
type BookingRequest struct {
	ID         string
	UserID     string
	SlotNumber int
	Notes      string
}

// BookResult reports the outcome of Book. Success is false for every rejection;
// Reason is diagnostic only.
type BookResult struct {
	Success    bool
	Waitlisted bool
	Position   int
	Booking    Booking
	Reason     Reason
}

// Book claims req.SlotNumber for req.UserID.
//
// Preconditions are checked in order and the first failure rejects the request:
// slot booking must be enabled, the user must not hold an active booking, and
// the booking deadline must not have passed. A slot without a confirmed booking
// is confirmed immediately. Otherwise the request joins the waitlist when
// allowed, at a position one past the engagement-wide waitlist length.
func (m *Management) Book(req BookingRequest, now time.Time) BookResult {
	if !m.Enabled {
		return BookResult{Reason: ReasonDisabled}
	}
	if _, ok := m.ActiveBookingFor(req.UserID); ok {
		return BookResult{Reason: ReasonDuplicate}
	}
	if m.BookingDeadline != nil && now.After(*m.BookingDeadline) {
		return BookResult{Reason: ReasonDeadlinePassed}
	}
	if req.SlotNumber < 1 || req.SlotNumber > m.TotalSlots {
		return BookResult{Reason: ReasonInvalidSlot}
	}

	booking := Booking{
		ID:         req.ID,
		UserID:     req.UserID,
		SlotNumber: req.SlotNumber,
		BookedAt:   now,
		Notes:      req.Notes,
	}

	result := BookResult{Success: true}
	if !m.hasConfirmed(req.SlotNumber) {
		booking.Status = StatusConfirmed
	} else {
		if !m.AllowWaitlist {
			return BookResult{Reason: ReasonSlotFull}
		}
		booking.Status = StatusWaitlisted
		booking.WaitlistPosition = m.waitlistedCount() + 1
		result.Waitlisted = true
		result.Position = booking.WaitlistPosition
	}

	m.Bookings = append(m.Bookings, booking)
	m.RecomputeStats()
	result.Booking = booking
	return result
}

// CancelResult reports the effect of Cancel.
type CancelResult struct {
	Cancelled Booking
	Promoted  *Booking
}

// Cancel marks the booking cancelled. It reports false, leaving state untouched,
// when the booking is unknown or already cancelled.
//
// Cancelling a confirmed booking promotes the earliest waitlisted booking for the
// same slot. Cancelling a waitlisted booking closes the gap in that slot's queue.
func (m *Management) Cancel(bookingID string, now time.Time) (CancelResult, bool) {
	index := -1
	for i, b := range m.Bookings {
		if b.ID == bookingID {
			index = i
			break
		}
	}
	if index < 0 || m.Bookings[index].Status == StatusCancelled {
		return CancelResult{}, false
	}

	target := &m.Bookings[index]
	previous := target.Status
	target.Status = StatusCancelled
	target.WaitlistPosition = 0
	target.CancelledAt = cloneTime(&now)

	result := CancelResult{Cancelled: *target}
	switch previous {
	case StatusConfirmed:
		if promoted, ok := m.promoteNext(target.SlotNumber, now); ok {
			result.Promoted = &promoted
		}
	case StatusWaitlisted:
		m.renumber(m.slotWaitlist(target.SlotNumber))
	}

	m.RecomputeStats()
	return result, true
}

// ProcessWaitlist promotes, for every slot lacking a confirmed booking, the
// earliest waitlisted booking. It is idempotent.
func (m *Management) ProcessWaitlist(now time.Time) []Booking {
	var promoted []Booking
	for slot := 1; slot <= m.TotalSlots; slot++ {
		if m.hasConfirmed(slot) {
			continue
		}
		if b, ok := m.promoteNext(slot, now); ok {
			promoted = append(promoted, b)
		}
	}
	m.RecomputeStats()
	return promoted
}
