package application

import (
	"context"
	"time"
)

// EventKind names a domain event emitted after a successful mutation.
type EventKind string

const (
	EventEngagementCreated EventKind = "engagement.created"
	EventEngagementUpdated EventKind = "engagement.updated"
	EventEngagementDeleted EventKind = "engagement.deleted"
	EventBookingConfirmed  EventKind = "booking.confirmed"
	EventBookingWaitlisted EventKind = "booking.waitlisted"
	EventBookingCancelled  EventKind = "booking.cancelled"
	EventBookingPromoted   EventKind = "booking.promoted"
	EventSlotsUpdated      EventKind = "slots.updated"
	EventRSVPUpdated       EventKind = "rsvp.updated"
	EventVolunteerUpdated  EventKind = "volunteer.updated"
	EventVolunteerReviewed EventKind = "volunteer.reviewed"
)

// Event describes a committed change to an engagement.
type Event struct {
	Kind         EventKind
	EngagementID string
	OccurredAt   time.Time
	Payload      any
}

// EventPublisher receives domain events. Implementations must not block.
type EventPublisher interface {
	Publish(ctx context.Context, event Event)
}

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, Event) {}
