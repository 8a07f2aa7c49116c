// Package memory provides the process-local engagement store. State lives only
// as long as the process.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/example/temple-engagements/internal/persistence"
)

// Storage is an in-memory engagement repository guarded by a single lock, so
// every mutation is serialized.
type Storage struct {
	mu          sync.RWMutex
	engagements map[string]persistence.Engagement
}

// Open returns an empty Storage.
func Open() *Storage {
	return &Storage{engagements: make(map[string]persistence.Engagement)}
}

// Close releases resources held by the storage. No-op for the in-memory implementation.
func (s *Storage) Close() error {
	return nil
}

// CreateEngagement stores a new engagement.
func (s *Storage) CreateEngagement(ctx context.Context, engagement persistence.Engagement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.engagements[engagement.ID]; ok {
		return fmt.Errorf("memory: engagement %s: %w", engagement.ID, persistence.ErrDuplicate)
	}
	s.engagements[engagement.ID] = engagement.Clone()
	return nil
}

// UpdateEngagement replaces an existing engagement.
func (s *Storage) UpdateEngagement(ctx context.Context, engagement persistence.Engagement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.engagements[engagement.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.engagements[engagement.ID] = engagement.Clone()
	return nil
}

// GetEngagement retrieves an engagement by ID.
func (s *Storage) GetEngagement(ctx context.Context, id string) (persistence.Engagement, error) {
	if err := ctx.Err(); err != nil {
		return persistence.Engagement{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	engagement, ok := s.engagements[id]
	if !ok {
		return persistence.Engagement{}, persistence.ErrNotFound
	}
	return engagement.Clone(), nil
}

// ListEngagements returns engagements matching filter, dated ones first in date
// order, then by creation time and ID.
func (s *Storage) ListEngagements(ctx context.Context, filter persistence.EngagementFilter) ([]persistence.Engagement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	engagements := make([]persistence.Engagement, 0, len(s.engagements))
	for _, engagement := range s.engagements {
		if !matchesFilter(engagement, filter) {
			continue
		}
		engagements = append(engagements, engagement.Clone())
	}

	sort.Slice(engagements, func(i, j int) bool {
		a, b := engagements[i], engagements[j]
		switch {
		case a.Date != nil && b.Date == nil:
			return true
		case a.Date == nil && b.Date != nil:
			return false
		case a.Date != nil && b.Date != nil && !a.Date.Equal(*b.Date):
			return a.Date.Before(*b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	return engagements, nil
}

// DeleteEngagement removes an engagement by ID.
func (s *Storage) DeleteEngagement(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.engagements[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.engagements, id)
	return nil
}

// MutateEngagement runs fn against a copy of the engagement under the write lock
// and stores the copy when fn succeeds.
func (s *Storage) MutateEngagement(ctx context.Context, id string, fn func(*persistence.Engagement) error) (persistence.Engagement, error) {
	if err := ctx.Err(); err != nil {
		return persistence.Engagement{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.engagements[id]
	if !ok {
		return persistence.Engagement{}, persistence.ErrNotFound
	}
	working := current.Clone()
	if err := fn(&working); err != nil {
		return persistence.Engagement{}, err
	}
	working.ID = id
	s.engagements[id] = working.Clone()
	return working, nil
}

func matchesFilter(engagement persistence.Engagement, filter persistence.EngagementFilter) bool {
	if len(filter.Types) > 0 && !containsString(filter.Types, engagement.Type) {
		return false
	}
	if len(filter.Statuses) > 0 && !containsString(filter.Statuses, engagement.Status) {
		return false
	}
	if filter.From != nil || filter.To != nil {
		if engagement.Date == nil {
			return false
		}
		if filter.From != nil && engagement.Date.Before(*filter.From) {
			return false
		}
		if filter.To != nil && engagement.Date.After(*filter.To) {
			return false
		}
	}
	return true
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
