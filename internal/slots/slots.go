// Package slots implements per-engagement slot booking with a FIFO waitlist and
// slot exceptions.
//
// A Management value is not safe for concurrent use. Callers serialize access,
// typically by mutating it inside a store transaction.
package slots

import (
	"errors"
	"sort"
	"time"

	"github.com/example/temple-engagements/internal/calendar"
)

// BookingStatus tracks a booking through its lifecycle.
type BookingStatus string

const (
	StatusConfirmed  BookingStatus = "confirmed"
	StatusWaitlisted BookingStatus = "waitlisted"
	StatusCancelled  BookingStatus = "cancelled"
)

// Booking ties a user to a slot number.
type Booking struct {
	ID         string
	UserID     string
	SlotNumber int
	Status     BookingStatus
	// WaitlistPosition is 1-based; zero means the booking is not waitlisted.
	WaitlistPosition int
	BookedAt         time.Time
	PromotedAt       *time.Time
	CancelledAt      *time.Time
	Notes            string
}

// Active reports whether the booking still holds or awaits a slot.
func (b Booking) Active() bool {
	return b.Status == StatusConfirmed || b.Status == StatusWaitlisted
}

// ExceptionType classifies why slots are blocked.
type ExceptionType string

const (
	ExceptionBreak       ExceptionType = "break"
	ExceptionBuffer      ExceptionType = "buffer"
	ExceptionReserved    ExceptionType = "reserved"
	ExceptionMaintenance ExceptionType = "maintenance"
	ExceptionOther       ExceptionType = "other"
)

// Exception marks slot numbers as unavailable while Active.
type Exception struct {
	ID          string
	SlotNumbers []int
	Type        ExceptionType
	Title       string
	Description string
	Active      bool
	Recurring   bool
}

// Covers reports whether the exception is active and includes slot.
func (e Exception) Covers(slot int) bool {
	if !e.Active {
		return false
	}
	for _, n := range e.SlotNumbers {
		if n == slot {
			return true
		}
	}
	return false
}

// Stats summarizes booking occupancy.
type Stats struct {
	TotalSlots     int
	BookedSlots    int
	AvailableSlots int
	WaitlistCount  int
}

// Management is the slot configuration and booking ledger of one engagement.
type Management struct {
	Enabled         bool
	TotalSlots      int
	SlotDuration    time.Duration
	StartTime       calendar.TimeOfDay
	EndTime         calendar.TimeOfDay
	BookingDeadline *time.Time
	AllowWaitlist   bool
	Exceptions      []Exception
	Bookings        []Booking
	Stats           Stats
}

var (
	// ErrExceptionNotFound indicates no exception with the requested ID exists.
	ErrExceptionNotFound = errors.New("slots: exception not found")
	// ErrInvalidException indicates an exception referencing no valid slot.
	ErrInvalidException = errors.New("slots: exception must cover slot numbers within range")
)

// Clone returns a deep copy of m.
func (m Management) Clone() Management {
	out := m
	if m.BookingDeadline != nil {
		deadline := *m.BookingDeadline
		out.BookingDeadline = &deadline
	}
	if m.Exceptions != nil {
		out.Exceptions = make([]Exception, len(m.Exceptions))
		for i, ex := range m.Exceptions {
			ex.SlotNumbers = append([]int(nil), ex.SlotNumbers...)
			out.Exceptions[i] = ex
		}
	}
	if m.Bookings != nil {
		out.Bookings = make([]Booking, len(m.Bookings))
		for i, b := range m.Bookings {
			b.PromotedAt = cloneTime(b.PromotedAt)
			b.CancelledAt = cloneTime(b.CancelledAt)
			out.Bookings[i] = b
		}
	}
	return out
}

// RecomputeStats refreshes Stats from the booking ledger.
func (m *Management) RecomputeStats() {
	stats := Stats{TotalSlots: m.TotalSlots}
	for _, b := range m.Bookings {
		switch b.Status {
		case StatusConfirmed:
			stats.BookedSlots++
		case StatusWaitlisted:
			stats.WaitlistCount++
		}
	}
	stats.AvailableSlots = stats.TotalSlots - stats.BookedSlots
	m.Stats = stats
}

// Booking returns the booking with id.
func (m *Management) Booking(id string) (Booking, bool) {
	for _, b := range m.Bookings {
		if b.ID == id {
			return b, true
		}
	}
	return Booking{}, false
}

// ActiveBookingFor returns the user's confirmed or waitlisted booking, if any.
func (m *Management) ActiveBookingFor(userID string) (Booking, bool) {
	for _, b := range m.Bookings {
		if b.UserID == userID && b.Active() {
			return b, true
		}
	}
	return Booking{}, false
}

func (m *Management) hasConfirmed(slot int) bool {
	for _, b := range m.Bookings {
		if b.SlotNumber == slot && b.Status == StatusConfirmed {
			return true
		}
	}
	return false
}

func (m *Management) waitlistedCount() int {
	count := 0
	for _, b := range m.Bookings {
		if b.Status == StatusWaitlisted {
			count++
		}
	}
	return count
}

// slotWaitlist returns indexes of the slot's waitlisted bookings ordered by
// BookedAt, ties broken by ledger order.
func (m *Management) slotWaitlist(slot int) []int {
	var idx []int
	for i, b := range m.Bookings {
		if b.SlotNumber == slot && b.Status == StatusWaitlisted {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return m.Bookings[idx[a]].BookedAt.Before(m.Bookings[idx[b]].BookedAt)
	})
	return idx
}

// promoteNext confirms the earliest waitlisted booking for slot and renumbers the
// remainder from 1.
func (m *Management) promoteNext(slot int, now time.Time) (Booking, bool) {
	queue := m.slotWaitlist(slot)
	if len(queue) == 0 {
		return Booking{}, false
	}
	promoted := &m.Bookings[queue[0]]
	promoted.Status = StatusConfirmed
	promoted.WaitlistPosition = 0
	promoted.PromotedAt = cloneTime(&now)
	m.renumber(queue[1:])
	return *promoted, true
}

func (m *Management) renumber(queue []int) {
	for pos, i := range queue {
		m.Bookings[i].WaitlistPosition = pos + 1
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
