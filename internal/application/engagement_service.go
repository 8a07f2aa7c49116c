package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/temple-engagements/internal/calendar"
	"github.com/example/temple-engagements/internal/logging"
	"github.com/example/temple-engagements/internal/participation"
	"github.com/example/temple-engagements/internal/persistence"
	"github.com/example/temple-engagements/internal/recurrence"
	"github.com/example/temple-engagements/internal/scheduler"
	"github.com/example/temple-engagements/internal/slots"
)

// EngagementRepository captures the persistence interactions needed by the service.
type EngagementRepository interface {
	CreateEngagement(ctx context.Context, engagement Engagement) (Engagement, error)
	GetEngagement(ctx context.Context, id string) (Engagement, error)
	UpdateEngagement(ctx context.Context, engagement Engagement) (Engagement, error)
	DeleteEngagement(ctx context.Context, id string) error
	ListEngagements(ctx context.Context, filter EngagementRepositoryFilter) ([]Engagement, error)
	// MutateEngagement applies fn under the store's write lock and commits the
	// result only when fn returns nil.
	MutateEngagement(ctx context.Context, id string, fn func(*Engagement) error) (Engagement, error)
}

// EngagementRepositoryFilter narrows queries issued to the engagement repository.
type EngagementRepositoryFilter struct {
	Types    []string
	Statuses []string
	From     *time.Time
	To       *time.Time
}

// EngagementServiceOption configures optional collaborators.
type EngagementServiceOption func(*EngagementService)

// WithEventPublisher routes committed changes to publisher.
func WithEventPublisher(publisher EventPublisher) EngagementServiceOption {
	return func(s *EngagementService) {
		if publisher != nil {
			s.publisher = publisher
		}
	}
}

// WithConflictCacheTTL overrides how long conflict results are reused.
func WithConflictCacheTTL(ttl time.Duration) EngagementServiceOption {
	return func(s *EngagementService) {
		s.cacheTTL = ttl
	}
}

// EngagementService is the single entry point for reading and mutating
// engagements. Every mutation runs inside MutateEngagement so bookings, RSVP
// and volunteer changes are serialized by the store.
type EngagementService struct {
	engagements EngagementRepository
	engine      *recurrence.Engine
	detector    *scheduler.Detector
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
	publisher   EventPublisher
	cacheTTL    time.Duration
	cache       *conflictCache
}

// NewEngagementService wires dependencies for engagement operations.
func NewEngagementService(engagements EngagementRepository, engine *recurrence.Engine, idGenerator func() string, now func() time.Time, opts ...EngagementServiceOption) *EngagementService {
	return NewEngagementServiceWithLogger(engagements, engine, idGenerator, now, nil, opts...)
}

// NewEngagementServiceWithLogger constructs an engagement service with a specified logger.
func NewEngagementServiceWithLogger(engagements EngagementRepository, engine *recurrence.Engine, idGenerator func() string, now func() time.Time, logger *slog.Logger, opts ...EngagementServiceOption) *EngagementService {
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	svc := &EngagementService{
		engagements: engagements,
		engine:      engine,
		detector:    scheduler.NewDetector(engine),
		idGenerator: idGenerator,
		now:         now,
		logger:      logging.OrDefault(logger),
		publisher:   discardPublisher{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.cache = newConflictCache(svc.cacheTTL, 0, now)
	return svc
}

// Engine exposes the recurrence engine the service evaluates dates with.
func (s *EngagementService) Engine() *recurrence.Engine {
	return s.engine
}

func (s *EngagementService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return logging.Scoped(ctx, s.logger, "service", "EngagementService", operation, attrs...)
}

// CreateEngagement validates input and stores a new engagement.
func (s *EngagementService) CreateEngagement(ctx context.Context, input EngagementInput) (engagement Engagement, err error) {
	if s == nil {
		err = fmt.Errorf("EngagementService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateEngagement", "engagement_type", input.Type)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create engagement", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("engagement_id", engagement.ID).InfoContext(ctx, "engagement created")
	}()

	input = normalizeEngagementInput(input)
	if vErr := validateEngagementInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	candidate := Engagement{
		ID:        s.idGenerator(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.applyInput(&candidate, input)

	if s.engagements == nil {
		engagement = candidate
		return
	}

	persisted, repoErr := s.engagements.CreateEngagement(ctx, candidate)
	if repoErr != nil {
		err = mapEngagementRepoError(repoErr)
		return
	}

	engagement = persisted
	s.cache.Invalidate()
	s.publish(ctx, EventEngagementCreated, engagement.ID, engagement)
	return
}

// UpdateEngagement replaces the engagement's fields. Sub-record settings left
// nil in input keep their current configuration, bookings and responses.
func (s *EngagementService) UpdateEngagement(ctx context.Context, id string, input EngagementInput) (engagement Engagement, err error) {
	if s == nil {
		err = fmt.Errorf("EngagementService is nil")
		return
	}
	if s.engagements == nil {
		err = fmt.Errorf("engagement repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateEngagement", "engagement_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update engagement", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "engagement updated")
	}()

	input = normalizeEngagementInput(input)
	if vErr := validateEngagementInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	engagement, err = s.mutate(ctx, id, func(current *Engagement) error {
		s.applyInput(current, input)
		return nil
	})
	if err != nil {
		return
	}
	s.publish(ctx, EventEngagementUpdated, engagement.ID, engagement)
	return
}

// GetEngagement retrieves a single engagement.
func (s *EngagementService) GetEngagement(ctx context.Context, id string) (Engagement, error) {
	if s == nil {
		return Engagement{}, fmt.Errorf("EngagementService is nil")
	}
	if s.engagements == nil {
		return Engagement{}, ErrNotFound
	}
	engagement, err := s.engagements.GetEngagement(ctx, id)
	if err != nil {
		return Engagement{}, mapEngagementRepoError(err)
	}
	return engagement, nil
}

// ListEngagements returns engagements ordered by date, undated ones last.
func (s *EngagementService) ListEngagements(ctx context.Context, params ListEngagementsParams) (engagements []Engagement, err error) {
	if s == nil {
		err = fmt.Errorf("EngagementService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListEngagements")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list engagements", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "engagements listed", "count", len(engagements))
	}()

	if params.From != nil && params.To != nil && params.To.Before(*params.From) {
		err = fieldError("to", "to must not precede from")
		return
	}

	engagements, err = s.list(ctx, EngagementRepositoryFilter{
		Types:    params.Types,
		Statuses: params.Statuses,
		From:     params.From,
		To:       params.To,
	})
	return
}

// DeleteEngagement removes an engagement and everything attached to it.
func (s *EngagementService) DeleteEngagement(ctx context.Context, id string) (err error) {
	if s == nil {
		return fmt.Errorf("EngagementService is nil")
	}
	if s.engagements == nil {
		return fmt.Errorf("engagement repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteEngagement", "engagement_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete engagement", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "engagement deleted")
	}()

	if err = s.engagements.DeleteEngagement(ctx, id); err != nil {
		err = mapEngagementRepoError(err)
		return
	}
	s.cache.Invalidate()
	s.publish(ctx, EventEngagementDeleted, id, nil)
	return nil
}

// EngagementsOn returns every engagement taking place on date, either on its
// own date or through its recurrence rule. Results follow list order.
func (s *EngagementService) EngagementsOn(ctx context.Context, date time.Time) (occurrences []Occurrence, err error) {
	if s == nil {
		err = fmt.Errorf("EngagementService is nil")
		return
	}

	logger := s.loggerWith(ctx, "EngagementsOn", "date", calendar.FormatDate(date))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build day view", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	engagements, err := s.list(ctx, EngagementRepositoryFilter{})
	if err != nil {
		return nil, err
	}

	day := s.engine.Day(date)
	occurrences = make([]Occurrence, 0)
	for _, engagement := range engagements {
		if engagement.Date == nil {
			continue
		}
		if !s.engine.OccursOn(*engagement.Date, engagement.Recurrence, day) {
			continue
		}
		occurrence := Occurrence{
			Engagement: engagement,
			Date:       day,
			Recurring:  !calendar.SameDay(s.engine.Day(*engagement.Date), day),
		}
		if engagement.Time != nil {
			start := engagement.Time.On(day)
			occurrence.Start = &start
		}
		occurrences = append(occurrences, occurrence)
	}
	return occurrences, nil
}

func (s *EngagementService) list(ctx context.Context, filter EngagementRepositoryFilter) ([]Engagement, error) {
	if s.engagements == nil {
		return []Engagement{}, nil
	}
	engagements, err := s.engagements.ListEngagements(ctx, filter)
	if err != nil {
		return nil, mapEngagementRepoError(err)
	}
	if engagements == nil {
		engagements = []Engagement{}
	}
	return engagements, nil
}

// errUnchanged aborts a mutation without committing and without reporting failure.
var errUnchanged = errors.New("application: unchanged")

// mutate runs fn inside the repository's write lock. fn may return errUnchanged
// to discard its work; mutate then reports the stored engagement unchanged.
func (s *EngagementService) mutate(ctx context.Context, id string, fn func(*Engagement) error) (Engagement, error) {
	if s.engagements == nil {
		return Engagement{}, fmt.Errorf("engagement repository not configured")
	}
	unchanged := false
	updated, err := s.engagements.MutateEngagement(ctx, id, func(current *Engagement) error {
		if err := fn(current); err != nil {
			return err
		}
		current.UpdatedAt = s.now()
		return nil
	})
	if errors.Is(err, errUnchanged) {
		unchanged = true
		updated, err = s.engagements.GetEngagement(ctx, id)
	}
	if err != nil {
		return Engagement{}, mapEngagementRepoError(err)
	}
	if !unchanged {
		s.cache.Invalidate()
	}
	return updated, nil
}

func (s *EngagementService) applyInput(e *Engagement, input EngagementInput) {
	e.Title = input.Title
	e.Subject = input.Subject
	e.Content = input.Content
	e.Type = input.Type
	e.Status = input.Status

	e.Date = nil
	if input.Date != nil {
		day := s.engine.Day(*input.Date)
		e.Date = &day
	}
	e.Time = nil
	if input.Time != nil {
		t := *input.Time
		e.Time = &t
	}
	e.Recurrence = nil
	if input.Recurrence != nil {
		rule := input.Recurrence.Clone()
		if rule.EndDate != nil {
			end := s.engine.Day(*rule.EndDate)
			rule.EndDate = &end
		}
		e.Recurrence = &rule
	}

	if settings := input.Slots; settings != nil {
		if e.Slots == nil {
			e.Slots = &slots.Management{}
		}
		e.Slots.Enabled = settings.Enabled
		e.Slots.TotalSlots = settings.TotalSlots
		e.Slots.SlotDuration = settings.SlotDuration
		e.Slots.StartTime = settings.StartTime
		e.Slots.EndTime = settings.EndTime
		e.Slots.BookingDeadline = cloneTimePtr(settings.BookingDeadline)
		e.Slots.AllowWaitlist = settings.AllowWaitlist
		e.Slots.RecomputeStats()
	}

	if settings := input.RSVP; settings != nil {
		if e.RSVP == nil {
			e.RSVP = &participation.RSVP{}
		}
		e.RSVP.TotalRecipients = settings.TotalRecipients
		e.RSVP.Recompute()
	}

	if settings := input.Volunteers; settings != nil {
		if e.Volunteers == nil {
			e.Volunteers = &participation.Volunteers{}
		}
		e.Volunteers.Roles = append([]participation.Role(nil), settings.Roles...)
		e.Volunteers.AutoApprove = settings.AutoApprove
		e.Volunteers.RequireApplicationForm = settings.RequireApplicationForm
		e.Volunteers.ApplicationDeadline = cloneTimePtr(settings.ApplicationDeadline)
		e.Volunteers.RecountRoles()
	}
}

func (s *EngagementService) publish(ctx context.Context, kind EventKind, engagementID string, payload any) {
	s.publisher.Publish(ctx, Event{
		Kind:         kind,
		EngagementID: engagementID,
		OccurredAt:   s.now(),
		Payload:      payload,
	})
}

func toSchedulerSchedule(engagement Engagement) scheduler.Schedule {
	return scheduler.Schedule{
		ID:     engagement.ID,
		Title:  engagement.Title,
		Type:   engagement.Type,
		Status: engagement.Status,
		Date:   engagement.Date,
		Time:   engagement.Time,
	}
}

func mapEngagementRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
