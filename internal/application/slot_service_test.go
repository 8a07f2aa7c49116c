package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/temple-engagements/internal/slots"
)

func slotInput(total int, allowWaitlist bool) EngagementInput {
	input := eventInput("Private consultations", day(2024, 12, 10), tod(9, 0))
	input.Slots = &SlotSettings{
		Enabled:       true,
		TotalSlots:    total,
		SlotDuration:  15 * time.Minute,
		StartTime:     *tod(9, 0),
		EndTime:       *tod(12, 0),
		AllowWaitlist: allowWaitlist,
	}
	return input
}

func TestEngagementService_BookSlot(t *testing.T) {
	t.Parallel()

	t.Run("promotes the earliest waitlisted booking on cancellation", func(t *testing.T) {
		t.Parallel()

		publisher := &recordingPublisher{}
		svc, clock := newTestService(newMemoryRepo(), WithEventPublisher(publisher))
		ctx := context.Background()
		engagement := seedEngagement(t, svc, slotInput(2, true))

		var bookings []slots.BookResult
		for _, user := range []string{"user-a", "user-b", "user-c"} {
			result, err := svc.BookSlot(ctx, BookSlotParams{EngagementID: engagement.ID, UserID: user, SlotNumber: 1})
			if err != nil {
				t.Fatalf("BookSlot returned error: %v", err)
			}
			if !result.Success {
				t.Fatalf("expected booking for %s to succeed, got %#v", user, result)
			}
			bookings = append(bookings, result)
			clock.Advance(time.Minute)
		}
		if bookings[0].Waitlisted || !bookings[1].Waitlisted || bookings[2].Position != 2 {
			t.Fatalf("unexpected booking outcomes: %#v", bookings)
		}

		cancelled, err := svc.CancelSlotBooking(ctx, engagement.ID, bookings[0].Booking.ID)
		if err != nil {
			t.Fatalf("CancelSlotBooking returned error: %v", err)
		}
		if !cancelled.Changed || cancelled.Promoted == nil || cancelled.Promoted.UserID != "user-b" {
			t.Fatalf("expected user-b promoted, got %#v", cancelled)
		}
		if cancelled.Stats.BookedSlots != 1 || cancelled.Stats.WaitlistCount != 1 {
			t.Fatalf("unexpected stats after cancellation: %#v", cancelled.Stats)
		}

		stored, err := svc.GetEngagement(ctx, engagement.ID)
		if err != nil {
			t.Fatalf("GetEngagement returned error: %v", err)
		}
		for _, b := range stored.Slots.Bookings {
			switch b.UserID {
			case "user-b":
				if b.Status != slots.StatusConfirmed || b.WaitlistPosition != 0 {
					t.Fatalf("expected user-b confirmed without position, got %#v", b)
				}
			case "user-c":
				if b.Status != slots.StatusWaitlisted || b.WaitlistPosition != 1 {
					t.Fatalf("expected user-c first in line, got %#v", b)
				}
			}
		}

		want := []EventKind{
			EventEngagementCreated,
			EventBookingConfirmed,
			EventBookingWaitlisted,
			EventBookingWaitlisted,
			EventBookingCancelled,
			EventBookingPromoted,
		}
		got := publisher.kinds()
		if len(got) != len(want) {
			t.Fatalf("expected events %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected events %v, got %v", want, got)
			}
		}
	})

	t.Run("rejects a second active booking without mutating state", func(t *testing.T) {
		t.Parallel()

		repo := newMemoryRepo()
		svc, _ := newTestService(repo)
		ctx := context.Background()
		engagement := seedEngagement(t, svc, slotInput(3, true))

		if _, err := svc.BookSlot(ctx, BookSlotParams{EngagementID: engagement.ID, UserID: "user-a", SlotNumber: 1}); err != nil {
			t.Fatalf("BookSlot returned error: %v", err)
		}
		before := repo.mutations

		result, err := svc.BookSlot(ctx, BookSlotParams{EngagementID: engagement.ID, UserID: "user-a", SlotNumber: 2})
		if err != nil {
			t.Fatalf("BookSlot returned error: %v", err)
		}
		if result.Success || result.Reason != slots.ReasonDuplicate {
			t.Fatalf("expected duplicate rejection, got %#v", result)
		}
		if repo.mutations != before {
			t.Fatalf("expected no committed mutation, got %d commits", repo.mutations-before)
		}
	})

	t.Run("rejects after the booking deadline", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(newMemoryRepo())
		input := slotInput(3, true)
		input.Slots.BookingDeadline = timePtr(serviceStart.Add(-time.Minute))
		engagement := seedEngagement(t, svc, input)

		result, err := svc.BookSlot(context.Background(), BookSlotParams{EngagementID: engagement.ID, UserID: "user-a", SlotNumber: 1})
		if err != nil {
			t.Fatalf("BookSlot returned error: %v", err)
		}
		if result.Success || result.Reason != slots.ReasonDeadlinePassed {
			t.Fatalf("expected deadline rejection, got %#v", result)
		}
	})

	t.Run("reports disabled when the engagement has no slots", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(newMemoryRepo())
		engagement := seedEngagement(t, svc, eventInput("Talk", day(2024, 12, 10), tod(9, 0)))

		result, err := svc.BookSlot(context.Background(), BookSlotParams{EngagementID: engagement.ID, UserID: "user-a", SlotNumber: 1})
		if err != nil {
			t.Fatalf("BookSlot returned error: %v", err)
		}
		if result.Success || result.Reason != slots.ReasonDisabled {
			t.Fatalf("expected disabled rejection, got %#v", result)
		}
	})

	t.Run("returns ErrNotFound for unknown engagement", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(newMemoryRepo())
		_, err := svc.BookSlot(context.Background(), BookSlotParams{EngagementID: "missing", UserID: "user-a", SlotNumber: 1})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("requires a user", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(newMemoryRepo())
		_, err := svc.BookSlot(context.Background(), BookSlotParams{EngagementID: "any", SlotNumber: 1})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestEngagementService_CancelSlotBooking_Unknown(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	svc, _ := newTestService(repo)
	engagement := seedEngagement(t, svc, slotInput(2, false))
	before := repo.mutations

	result, err := svc.CancelSlotBooking(context.Background(), engagement.ID, "missing-booking")
	if err != nil {
		t.Fatalf("CancelSlotBooking returned error: %v", err)
	}
	if result.Changed {
		t.Fatalf("expected no-op cancellation, got %#v", result)
	}
	if repo.mutations != before {
		t.Fatalf("expected no committed mutation")
	}
}

func TestEngagementService_ProcessWaitlist(t *testing.T) {
	t.Parallel()

	bookedAt := serviceStart.Add(-time.Hour)
	repo := newMemoryRepo(Engagement{
		ID:     "eng-1",
		Title:  "Consultations",
		Type:   TypeMeeting,
		Status: StatusScheduled,
		Slots: &slots.Management{
			Enabled:       true,
			TotalSlots:    2,
			SlotDuration:  30 * time.Minute,
			AllowWaitlist: true,
			Bookings: []slots.Booking{
				{ID: "b-1", UserID: "user-a", SlotNumber: 1, Status: slots.StatusWaitlisted, WaitlistPosition: 1, BookedAt: bookedAt},
				{ID: "b-2", UserID: "user-b", SlotNumber: 1, Status: slots.StatusWaitlisted, WaitlistPosition: 2, BookedAt: bookedAt.Add(time.Minute)},
			},
		},
	})
	svc, _ := newTestService(repo)
	ctx := context.Background()

	promoted, err := svc.ProcessWaitlist(ctx, "eng-1")
	if err != nil {
		t.Fatalf("ProcessWaitlist returned error: %v", err)
	}
	if len(promoted) != 1 || promoted[0].ID != "b-1" {
		t.Fatalf("expected b-1 promoted, got %#v", promoted)
	}
	first, err := svc.GetEngagement(ctx, "eng-1")
	if err != nil {
		t.Fatalf("GetEngagement returned error: %v", err)
	}

	again, err := svc.ProcessWaitlist(ctx, "eng-1")
	if err != nil {
		t.Fatalf("ProcessWaitlist returned error: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected second run to promote nothing, got %#v", again)
	}
	second, err := svc.GetEngagement(ctx, "eng-1")
	if err != nil {
		t.Fatalf("GetEngagement returned error: %v", err)
	}
	if first.Slots.Stats != second.Slots.Stats {
		t.Fatalf("expected identical stats, got %#v and %#v", first.Slots.Stats, second.Slots.Stats)
	}
}

func TestEngagementService_SlotExceptions(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(newMemoryRepo())
	ctx := context.Background()
	engagement := seedEngagement(t, svc, slotInput(4, false))

	added, err := svc.AddSlotException(ctx, engagement.ID, SlotExceptionInput{
		SlotNumbers: []int{2},
		Type:        slots.ExceptionBreak,
		Title:       "Tea break",
		Active:      true,
	})
	if err != nil {
		t.Fatalf("AddSlotException returned error: %v", err)
	}

	views, err := svc.AvailableSlots(ctx, engagement.ID)
	if err != nil {
		t.Fatalf("AvailableSlots returned error: %v", err)
	}
	if len(views) != 4 {
		t.Fatalf("expected four slots, got %d", len(views))
	}
	if views[1].Available || views[1].Exception == nil || views[1].Exception.Title != "Tea break" {
		t.Fatalf("expected slot 2 blocked by break, got %#v", views[1])
	}
	if views[1].Start.String() != "09:15" || views[1].End.String() != "09:30" {
		t.Fatalf("unexpected slot 2 window %s-%s", views[1].Start, views[1].End)
	}

	if _, err := svc.UpdateSlotException(ctx, engagement.ID, added.ID, SlotExceptionInput{
		SlotNumbers: []int{2},
		Type:        slots.ExceptionBreak,
		Title:       "Tea break",
		Active:      false,
	}); err != nil {
		t.Fatalf("UpdateSlotException returned error: %v", err)
	}
	views, err = svc.AvailableSlots(ctx, engagement.ID)
	if err != nil {
		t.Fatalf("AvailableSlots returned error: %v", err)
	}
	if !views[1].Available {
		t.Fatalf("expected inactive exception to free slot 2")
	}

	if _, err := svc.AddSlotException(ctx, engagement.ID, SlotExceptionInput{SlotNumbers: []int{9}, Type: slots.ExceptionReserved}); err == nil {
		t.Fatalf("expected error for out-of-range slot")
	} else {
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	}

	if err := svc.DeleteSlotException(ctx, engagement.ID, added.ID); err != nil {
		t.Fatalf("DeleteSlotException returned error: %v", err)
	}
	if err := svc.DeleteSlotException(ctx, engagement.ID, added.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	plain := seedEngagement(t, svc, eventInput("Talk", day(2024, 12, 11), tod(9, 0)))
	if _, err := svc.AddSlotException(ctx, plain.ID, SlotExceptionInput{SlotNumbers: []int{1}, Type: slots.ExceptionOther}); !errors.Is(err, ErrFeatureDisabled) {
		t.Fatalf("expected ErrFeatureDisabled, got %v", err)
	}
}

func TestEngagementService_SlotExceptionsOnNilService(t *testing.T) {
	t.Parallel()

	var svc *EngagementService
	ctx := context.Background()
	input := SlotExceptionInput{SlotNumbers: []int{1}, Type: slots.ExceptionBreak, Active: true}

	if _, err := svc.AddSlotException(ctx, "eng-1", input); err == nil {
		t.Fatalf("expected AddSlotException on a nil service to fail")
	}
	if _, err := svc.UpdateSlotException(ctx, "eng-1", "ex-1", input); err == nil {
		t.Fatalf("expected UpdateSlotException on a nil service to fail")
	}
	if err := svc.DeleteSlotException(ctx, "eng-1", "ex-1"); err == nil {
		t.Fatalf("expected DeleteSlotException on a nil service to fail")
	}
}
