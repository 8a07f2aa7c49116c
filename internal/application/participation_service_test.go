package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/temple-engagements/internal/participation"
)

func TestEngagementService_UpdateRSVP(t *testing.T) {
	t.Parallel()

	t.Run("upserts responses and recomputes pending", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(newMemoryRepo())
		ctx := context.Background()
		input := eventInput("Open house", day(2024, 12, 14), tod(13, 0))
		input.RSVP = &RSVPSettings{TotalRecipients: 3}
		engagement := seedEngagement(t, svc, input)

		steps := []RSVPInput{
			{EngagementID: engagement.ID, UserID: "user-a", Status: participation.ResponseAttending},
			{EngagementID: engagement.ID, UserID: "user-b", Status: participation.ResponseMaybe},
			{EngagementID: engagement.ID, UserID: "user-b", Status: participation.ResponseNotAttending},
		}
		var rsvp participation.RSVP
		for _, step := range steps {
			var err error
			rsvp, err = svc.UpdateRSVP(ctx, step)
			if err != nil {
				t.Fatalf("UpdateRSVP returned error: %v", err)
			}
		}

		want := participation.RSVPStats{Attending: 1, NotAttending: 1, Maybe: 0, Pending: 1}
		if rsvp.Stats != want {
			t.Fatalf("expected stats %#v, got %#v", want, rsvp.Stats)
		}
	})

	t.Run("starts tracking on engagements without rsvp", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(newMemoryRepo())
		engagement := seedEngagement(t, svc, eventInput("Walk-in", day(2024, 12, 14), nil))

		rsvp, err := svc.UpdateRSVP(context.Background(), RSVPInput{EngagementID: engagement.ID, UserID: "user-a", Status: participation.ResponseAttending})
		if err != nil {
			t.Fatalf("UpdateRSVP returned error: %v", err)
		}
		if rsvp.Stats.Attending != 1 || rsvp.Stats.Pending != 0 {
			t.Fatalf("expected clamped pending count, got %#v", rsvp.Stats)
		}
	})

	t.Run("rejects unknown statuses", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(newMemoryRepo())
		_, err := svc.UpdateRSVP(context.Background(), RSVPInput{EngagementID: "any", UserID: "user-a", Status: "perhaps"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["status"]; !ok {
			t.Fatalf("expected status field error, got %#v", vErr.FieldErrors)
		}
	})
}

func volunteerInput(autoApprove bool, deadline *time.Time) EngagementInput {
	input := eventInput("Festival", day(2024, 12, 24), tod(8, 0))
	input.Volunteers = &VolunteerSettings{
		Roles:               []participation.Role{{ID: "usher", Name: "Usher", SpotsAvailable: 1}},
		AutoApprove:         autoApprove,
		ApplicationDeadline: deadline,
	}
	return input
}

func TestEngagementService_VolunteerRequests(t *testing.T) {
	t.Parallel()

	t.Run("auto-approves up to the available spots", func(t *testing.T) {
		t.Parallel()

		svc, clock := newTestService(newMemoryRepo())
		ctx := context.Background()
		engagement := seedEngagement(t, svc, volunteerInput(true, nil))

		first, err := svc.SubmitVolunteerRequest(ctx, VolunteerRequestInput{EngagementID: engagement.ID, UserID: "user-a", RoleID: "usher"})
		if err != nil {
			t.Fatalf("SubmitVolunteerRequest returned error: %v", err)
		}
		clock.Advance(time.Minute)
		second, err := svc.SubmitVolunteerRequest(ctx, VolunteerRequestInput{EngagementID: engagement.ID, UserID: "user-b", RoleID: "usher"})
		if err != nil {
			t.Fatalf("SubmitVolunteerRequest returned error: %v", err)
		}

		if first.Status != participation.RequestApproved || first.ReviewedBy != "auto" {
			t.Fatalf("expected first request auto-approved, got %#v", first)
		}
		if second.Status != participation.RequestPending {
			t.Fatalf("expected second request pending, got %#v", second)
		}

		stored, err := svc.GetEngagement(ctx, engagement.ID)
		if err != nil {
			t.Fatalf("GetEngagement returned error: %v", err)
		}
		if stored.Volunteers.Roles[0].SpotsFilled != 1 {
			t.Fatalf("expected one spot filled, got %d", stored.Volunteers.Roles[0].SpotsFilled)
		}

		_, err = svc.ReviewVolunteerRequest(ctx, VolunteerReviewInput{EngagementID: engagement.ID, RequestID: second.ID, Decision: participation.RequestApproved, Reviewer: "admin"})
		if !errors.Is(err, ErrRoleFull) {
			t.Fatalf("expected ErrRoleFull, got %v", err)
		}

		rejected, err := svc.ReviewVolunteerRequest(ctx, VolunteerReviewInput{EngagementID: engagement.ID, RequestID: second.ID, Decision: participation.RequestRejected, Reviewer: "admin", Note: "full"})
		if err != nil {
			t.Fatalf("ReviewVolunteerRequest returned error: %v", err)
		}
		if rejected.Status != participation.RequestRejected || rejected.ReviewedBy != "admin" {
			t.Fatalf("unexpected rejected request: %#v", rejected)
		}

		_, err = svc.ReviewVolunteerRequest(ctx, VolunteerReviewInput{EngagementID: engagement.ID, RequestID: second.ID, Decision: participation.RequestApproved, Reviewer: "admin"})
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("suppresses auto-approval after the deadline", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(newMemoryRepo())
		engagement := seedEngagement(t, svc, volunteerInput(true, timePtr(serviceStart.Add(-time.Hour))))

		request, err := svc.SubmitVolunteerRequest(context.Background(), VolunteerRequestInput{EngagementID: engagement.ID, UserID: "user-a", RoleID: "usher"})
		if err != nil {
			t.Fatalf("SubmitVolunteerRequest returned error: %v", err)
		}
		if request.Status != participation.RequestPending {
			t.Fatalf("expected pending request after deadline, got %#v", request)
		}
	})

	t.Run("maps domain errors", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(newMemoryRepo())
		ctx := context.Background()
		engagement := seedEngagement(t, svc, volunteerInput(false, nil))

		if _, err := svc.SubmitVolunteerRequest(ctx, VolunteerRequestInput{EngagementID: engagement.ID, UserID: "user-a", RoleID: "usher"}); err != nil {
			t.Fatalf("SubmitVolunteerRequest returned error: %v", err)
		}
		if _, err := svc.SubmitVolunteerRequest(ctx, VolunteerRequestInput{EngagementID: engagement.ID, UserID: "user-a", RoleID: "usher"}); !errors.Is(err, ErrDuplicateRequest) {
			t.Fatalf("expected ErrDuplicateRequest, got %v", err)
		}

		_, err := svc.SubmitVolunteerRequest(ctx, VolunteerRequestInput{EngagementID: engagement.ID, UserID: "user-b", RoleID: "cook"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError for unknown role, got %v", err)
		}

		if _, err := svc.ReviewVolunteerRequest(ctx, VolunteerReviewInput{EngagementID: engagement.ID, RequestID: "missing", Decision: participation.RequestApproved}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		plain := seedEngagement(t, svc, eventInput("Talk", day(2024, 12, 11), tod(9, 0)))
		if _, err := svc.SubmitVolunteerRequest(ctx, VolunteerRequestInput{EngagementID: plain.ID, UserID: "user-a", RoleID: "usher"}); !errors.Is(err, ErrFeatureDisabled) {
			t.Fatalf("expected ErrFeatureDisabled, got %v", err)
		}
	})
}
