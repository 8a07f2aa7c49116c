package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/temple-engagements/internal/participation"
)

// UpdateRSVP records or replaces a user's response and returns the refreshed
// tallies. Engagements without RSVP tracking start one with no recipients.
func (s *EngagementService) UpdateRSVP(ctx context.Context, input RSVPInput) (rsvp participation.RSVP, err error) {
	if s == nil {
		err = fmt.Errorf("EngagementService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRSVP",
		"engagement_id", input.EngagementID,
		"user_id", input.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update rsvp", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "rsvp updated", "status", string(input.Status), "pending", rsvp.Stats.Pending)
	}()

	vErr := &ValidationError{}
	if input.UserID == "" {
		vErr.add("user_id", "user id is required")
	}
	if !input.Status.Valid() {
		vErr.add("status", "status must be one of attending, not_attending or maybe")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated, err := s.mutate(ctx, input.EngagementID, func(e *Engagement) error {
		if e.RSVP == nil {
			e.RSVP = &participation.RSVP{}
		}
		e.RSVP.Upsert(participation.Response{
			UserID:      input.UserID,
			Status:      input.Status,
			Note:        input.Note,
			RespondedAt: s.now(),
		})
		return nil
	})
	if err != nil {
		return
	}
	rsvp = updated.RSVP.Clone()
	s.publish(ctx, EventRSVPUpdated, input.EngagementID, rsvp.Stats)
	return
}

// SubmitVolunteerRequest files a pending request for a role. When the
// engagement auto-approves and its deadline has not passed, the request may
// come back already approved.
func (s *EngagementService) SubmitVolunteerRequest(ctx context.Context, input VolunteerRequestInput) (request participation.Request, err error) {
	if s == nil {
		err = fmt.Errorf("EngagementService is nil")
		return
	}

	logger := s.loggerWith(ctx, "SubmitVolunteerRequest",
		"engagement_id", input.EngagementID,
		"user_id", input.UserID,
		"role_id", input.RoleID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to submit volunteer request", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "volunteer request submitted", "request_id", request.ID, "status", string(request.Status))
	}()

	vErr := &ValidationError{}
	if input.UserID == "" {
		vErr.add("user_id", "user id is required")
	}
	if input.RoleID == "" {
		vErr.add("role_id", "role id is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	_, err = s.mutate(ctx, input.EngagementID, func(e *Engagement) error {
		if e.Volunteers == nil {
			return ErrFeatureDisabled
		}
		submitted, submitErr := e.Volunteers.Submit(participation.Request{
			ID:      s.idGenerator(),
			UserID:  input.UserID,
			RoleID:  input.RoleID,
			Message: input.Message,
		}, s.now())
		if submitErr != nil {
			return mapParticipationError(submitErr)
		}
		request = submitted
		return nil
	})
	if err != nil {
		request = participation.Request{}
		return
	}
	s.publish(ctx, EventVolunteerUpdated, input.EngagementID, request)
	return
}

// ReviewVolunteerRequest approves or rejects a pending request.
func (s *EngagementService) ReviewVolunteerRequest(ctx context.Context, input VolunteerReviewInput) (request participation.Request, err error) {
	if s == nil {
		err = fmt.Errorf("EngagementService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ReviewVolunteerRequest",
		"engagement_id", input.EngagementID,
		"request_id", input.RequestID,
		"decision", string(input.Decision),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to review volunteer request", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "volunteer request reviewed")
	}()

	_, err = s.mutate(ctx, input.EngagementID, func(e *Engagement) error {
		if e.Volunteers == nil {
			return ErrFeatureDisabled
		}
		reviewed, reviewErr := e.Volunteers.Review(input.RequestID, input.Decision, input.Reviewer, input.Note, s.now())
		if reviewErr != nil {
			return mapParticipationError(reviewErr)
		}
		request = reviewed
		return nil
	})
	if err != nil {
		request = participation.Request{}
		return
	}
	s.publish(ctx, EventVolunteerReviewed, input.EngagementID, request)
	return
}

func mapParticipationError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, participation.ErrRoleNotFound):
		return fieldError("role_id", "unknown volunteer role")
	case errors.Is(err, participation.ErrInvalidDecision):
		return fieldError("decision", "decision must be approved or rejected")
	case errors.Is(err, participation.ErrRequestNotFound):
		return ErrNotFound
	case errors.Is(err, participation.ErrDuplicateRequest):
		return ErrDuplicateRequest
	case errors.Is(err, participation.ErrInvalidTransition):
		return ErrInvalidTransition
	case errors.Is(err, participation.ErrRoleFull):
		return ErrRoleFull
	}
	return err
}
