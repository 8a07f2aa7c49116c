package application

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/example/temple-engagements/internal/participation"
)

const maxTitleLength = 200

func normalizeEngagementInput(input EngagementInput) EngagementInput {
	input.Title = strings.TrimSpace(input.Title)
	input.Subject = strings.TrimSpace(input.Subject)
	input.Type = strings.ToLower(strings.TrimSpace(input.Type))
	input.Status = strings.ToLower(strings.TrimSpace(input.Status))
	if input.Status == "" {
		input.Status = StatusDraft
	}
	return input
}

func validateEngagementInput(input EngagementInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Title == "" {
		vErr.add("title", "title is required")
	} else if utf8.RuneCountInString(input.Title) > maxTitleLength {
		vErr.add("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}

	switch input.Type {
	case TypeAnnouncement, TypeEvent, TypeMeeting:
	default:
		vErr.add("type", "type must be one of announcement, event or meeting")
	}

	switch input.Status {
	case StatusDraft, StatusScheduled, StatusSending, StatusSent, StatusFailed:
	default:
		vErr.add("status", "status must be one of draft, scheduled, sending, sent or failed")
	}

	if input.Time != nil && input.Date == nil {
		vErr.add("time", "time requires a date")
	}

	if rule := input.Recurrence; rule != nil && rule.Recurs() {
		if input.Date == nil {
			vErr.add("recurrence", "recurrence requires a date")
		} else if err := rule.Validate(*input.Date); err != nil {
			vErr.add("recurrence", err.Error())
		}
	}

	if settings := input.Slots; settings != nil && settings.Enabled {
		if settings.TotalSlots <= 0 {
			vErr.add("slots.total_slots", "total slots must be positive")
		}
		if settings.SlotDuration <= 0 {
			vErr.add("slots.slot_duration", "slot duration must be positive")
		}
	}

	if settings := input.RSVP; settings != nil && settings.TotalRecipients < 0 {
		vErr.add("rsvp.total_recipients", "total recipients must not be negative")
	}

	if settings := input.Volunteers; settings != nil {
		vErr.merge(validateRoles(settings.Roles))
	}

	return vErr
}

func validateRoles(roles []participation.Role) *ValidationError {
	vErr := &ValidationError{}
	seen := make(map[string]struct{}, len(roles))
	for i, role := range roles {
		field := fmt.Sprintf("volunteers.roles[%d]", i)
		id := strings.TrimSpace(role.ID)
		if id == "" {
			vErr.add(field+".id", "role id is required")
		} else if _, dup := seen[id]; dup {
			vErr.add(field+".id", "role id must be unique")
		}
		seen[id] = struct{}{}
		if strings.TrimSpace(role.Name) == "" {
			vErr.add(field+".name", "role name is required")
		}
		if role.SpotsAvailable < 0 {
			vErr.add(field+".spots_available", "spots available must not be negative")
		}
	}
	return vErr
}
