package slots

import (
	"fmt"
	"time"

	"github.com/example/temple-engagements/internal/calendar"
)

// ExceptionInfo is the exception metadata attached to a blocked slot.
type ExceptionInfo struct {
	ID          string
	Type        ExceptionType
	Title       string
	Description string
}

// SlotView describes one slot for display.
type SlotView struct {
	Number        int
	Start         calendar.TimeOfDay
	End           calendar.TimeOfDay
	Available     bool
	Booked        bool
	WaitlistCount int
	Exception     *ExceptionInfo
}

// Available lists slots 1..TotalSlots with their windows. Slot n starts at
// StartTime + (n-1)*SlotDuration. A slot is available when it has no confirmed
// booking and no active exception covers it.
func (m *Management) Available() []SlotView {
	if m.TotalSlots <= 0 {
		return []SlotView{}
	}
	views := make([]SlotView, 0, m.TotalSlots)
	for n := 1; n <= m.TotalSlots; n++ {
		start := m.StartTime.Add(m.SlotDuration * time.Duration(n-1))
		view := SlotView{
			Number: n,
			Start:  start,
			End:    start.Add(m.SlotDuration),
			Booked: m.hasConfirmed(n),
		}
		for _, b := range m.Bookings {
			if b.SlotNumber == n && b.Status == StatusWaitlisted {
				view.WaitlistCount++
			}
		}
		if ex, ok := m.activeException(n); ok {
			view.Exception = &ExceptionInfo{ID: ex.ID, Type: ex.Type, Title: ex.Title, Description: ex.Description}
		}
		view.Available = !view.Booked && view.Exception == nil
		views = append(views, view)
	}
	return views
}

func (m *Management) activeException(slot int) (Exception, bool) {
	for _, ex := range m.Exceptions {
		if ex.Covers(slot) {
			return ex, true
		}
	}
	return Exception{}, false
}

// AddException appends ex after checking its slot numbers.
func (m *Management) AddException(ex Exception) (Exception, error) {
	if err := m.checkException(ex); err != nil {
		return Exception{}, err
	}
	ex.SlotNumbers = append([]int(nil), ex.SlotNumbers...)
	m.Exceptions = append(m.Exceptions, ex)
	return ex, nil
}

// UpdateException replaces the exception with the same ID.
func (m *Management) UpdateException(ex Exception) (Exception, error) {
	for i := range m.Exceptions {
		if m.Exceptions[i].ID != ex.ID {
			continue
		}
		if err := m.checkException(ex); err != nil {
			return Exception{}, err
		}
		ex.SlotNumbers = append([]int(nil), ex.SlotNumbers...)
		m.Exceptions[i] = ex
		return ex, nil
	}
	return Exception{}, ErrExceptionNotFound
}

// DeleteException removes the exception with id.
func (m *Management) DeleteException(id string) error {
	for i := range m.Exceptions {
		if m.Exceptions[i].ID == id {
			m.Exceptions = append(m.Exceptions[:i], m.Exceptions[i+1:]...)
			return nil
		}
	}
	return ErrExceptionNotFound
}

func (m *Management) checkException(ex Exception) error {
	if len(ex.SlotNumbers) == 0 {
		return ErrInvalidException
	}
	for _, n := range ex.SlotNumbers {
		if n < 1 || n > m.TotalSlots {
			return fmt.Errorf("%w: slot %d", ErrInvalidException, n)
		}
	}
	return nil
}
