package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// memoryRepo is an in-package EngagementRepository mirroring the store's
// clone-on-read and commit-on-success behavior.
type memoryRepo struct {
	mu          sync.Mutex
	engagements map[string]Engagement
	order       []string
	listErr     error
	mutations   int
}

func newMemoryRepo(seed ...Engagement) *memoryRepo {
	repo := &memoryRepo{engagements: make(map[string]Engagement)}
	for _, e := range seed {
		repo.engagements[e.ID] = e.Clone()
		repo.order = append(repo.order, e.ID)
	}
	return repo
}

func (r *memoryRepo) CreateEngagement(ctx context.Context, engagement Engagement) (Engagement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.engagements[engagement.ID]; ok {
		return Engagement{}, ErrAlreadyExists
	}
	r.engagements[engagement.ID] = engagement.Clone()
	r.order = append(r.order, engagement.ID)
	return engagement.Clone(), nil
}

func (r *memoryRepo) GetEngagement(ctx context.Context, id string) (Engagement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.engagements[id]
	if !ok {
		return Engagement{}, ErrNotFound
	}
	return e.Clone(), nil
}

func (r *memoryRepo) UpdateEngagement(ctx context.Context, engagement Engagement) (Engagement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.engagements[engagement.ID]; !ok {
		return Engagement{}, ErrNotFound
	}
	r.engagements[engagement.ID] = engagement.Clone()
	return engagement.Clone(), nil
}

func (r *memoryRepo) DeleteEngagement(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.engagements[id]; !ok {
		return ErrNotFound
	}
	delete(r.engagements, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memoryRepo) ListEngagements(ctx context.Context, filter EngagementRepositoryFilter) ([]Engagement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]Engagement, 0, len(r.order))
	for _, id := range r.order {
		e := r.engagements[id]
		if len(filter.Types) > 0 && !contains(filter.Types, e.Type) {
			continue
		}
		out = append(out, e.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryRepo) MutateEngagement(ctx context.Context, id string, fn func(*Engagement) error) (Engagement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.engagements[id]
	if !ok {
		return Engagement{}, ErrNotFound
	}
	working := e.Clone()
	if err := fn(&working); err != nil {
		return Engagement{}, err
	}
	r.engagements[id] = working.Clone()
	r.mutations++
	return working, nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event Event) {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
}

func (p *recordingPublisher) kinds() []EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventKind, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}

type testClock struct {
	mu      sync.Mutex
	current time.Time
}

func newTestClock(start time.Time) *testClock {
	return &testClock{current: start}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
