package persistence

import (
	"context"
	"time"
)

// EngagementFilter narrows engagement queries. Date bounds are inclusive and
// exclude engagements without a date.
type EngagementFilter struct {
	Types    []string
	Statuses []string
	From     *time.Time
	To       *time.Time
}

// EngagementRepository stores engagements together with their slot, RSVP and
// volunteer sub-records.
type EngagementRepository interface {
	CreateEngagement(ctx context.Context, engagement Engagement) error
	UpdateEngagement(ctx context.Context, engagement Engagement) error
	GetEngagement(ctx context.Context, id string) (Engagement, error)
	ListEngagements(ctx context.Context, filter EngagementFilter) ([]Engagement, error)
	DeleteEngagement(ctx context.Context, id string) error
	// MutateEngagement applies fn to a copy of the stored engagement while holding
	// the store's write lock and commits the copy only when fn returns nil.
	MutateEngagement(ctx context.Context, id string, fn func(*Engagement) error) (Engagement, error)
}
