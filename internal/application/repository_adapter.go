package application

import (
	"context"

	"github.com/example/temple-engagements/internal/persistence"
)

// PersistenceRepository adapts a persistence.EngagementRepository to the
// service's EngagementRepository.
type PersistenceRepository struct {
	repo persistence.EngagementRepository
}

// NewPersistenceRepository wraps repo.
func NewPersistenceRepository(repo persistence.EngagementRepository) *PersistenceRepository {
	return &PersistenceRepository{repo: repo}
}

func (a *PersistenceRepository) CreateEngagement(ctx context.Context, engagement Engagement) (Engagement, error) {
	model := toPersistenceEngagement(engagement)
	if err := a.repo.CreateEngagement(ctx, model); err != nil {
		return Engagement{}, err
	}
	return toApplicationEngagement(model), nil
}

func (a *PersistenceRepository) GetEngagement(ctx context.Context, id string) (Engagement, error) {
	model, err := a.repo.GetEngagement(ctx, id)
	if err != nil {
		return Engagement{}, err
	}
	return toApplicationEngagement(model), nil
}

func (a *PersistenceRepository) UpdateEngagement(ctx context.Context, engagement Engagement) (Engagement, error) {
	model := toPersistenceEngagement(engagement)
	if err := a.repo.UpdateEngagement(ctx, model); err != nil {
		return Engagement{}, err
	}
	return toApplicationEngagement(model), nil
}

func (a *PersistenceRepository) DeleteEngagement(ctx context.Context, id string) error {
	return a.repo.DeleteEngagement(ctx, id)
}

func (a *PersistenceRepository) ListEngagements(ctx context.Context, filter EngagementRepositoryFilter) ([]Engagement, error) {
	models, err := a.repo.ListEngagements(ctx, persistence.EngagementFilter{
		Types:    filter.Types,
		Statuses: filter.Statuses,
		From:     filter.From,
		To:       filter.To,
	})
	if err != nil {
		return nil, err
	}
	engagements := make([]Engagement, 0, len(models))
	for _, model := range models {
		engagements = append(engagements, toApplicationEngagement(model))
	}
	return engagements, nil
}

func (a *PersistenceRepository) MutateEngagement(ctx context.Context, id string, fn func(*Engagement) error) (Engagement, error) {
	model, err := a.repo.MutateEngagement(ctx, id, func(stored *persistence.Engagement) error {
		working := toApplicationEngagement(*stored)
		if err := fn(&working); err != nil {
			return err
		}
		*stored = toPersistenceEngagement(working)
		return nil
	})
	if err != nil {
		return Engagement{}, err
	}
	return toApplicationEngagement(model), nil
}

func toApplicationEngagement(model persistence.Engagement) Engagement {
	return Engagement{
		ID:         model.ID,
		Title:      model.Title,
		Subject:    model.Subject,
		Content:    model.Content,
		Type:       model.Type,
		Status:     model.Status,
		Date:       model.Date,
		Time:       model.Time,
		Recurrence: model.Recurrence,
		Slots:      model.Slots,
		RSVP:       model.RSVP,
		Volunteers: model.Volunteers,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}.Clone()
}

func toPersistenceEngagement(engagement Engagement) persistence.Engagement {
	return persistence.Engagement{
		ID:         engagement.ID,
		Title:      engagement.Title,
		Subject:    engagement.Subject,
		Content:    engagement.Content,
		Type:       engagement.Type,
		Status:     engagement.Status,
		Date:       engagement.Date,
		Time:       engagement.Time,
		Recurrence: engagement.Recurrence,
		Slots:      engagement.Slots,
		RSVP:       engagement.RSVP,
		Volunteers: engagement.Volunteers,
		CreatedAt:  engagement.CreatedAt,
		UpdatedAt:  engagement.UpdatedAt,
	}.Clone()
}
