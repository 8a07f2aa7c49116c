// Package waitlist runs the periodic waitlist sweep over slot-managed engagements.
package waitlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/temple-engagements/internal/application"
	"github.com/example/temple-engagements/internal/slots"
)

// Service is the subset of the engagement service the sweeper drives.
type Service interface {
	ListEngagements(ctx context.Context, params application.ListEngagementsParams) ([]application.Engagement, error)
	ProcessWaitlist(ctx context.Context, engagementID string) ([]slots.Booking, error)
}

// Sweeper promotes waitlisted bookings into free slots on a cron schedule.
type Sweeper struct {
	service Service
	spec    string
	cron    *cron.Cron
	logger  *slog.Logger

	mu      sync.Mutex
	started bool
}

// NewSweeper validates spec (standard five-field cron syntax or a descriptor
// such as "@every 5m") and returns a stopped sweeper.
func NewSweeper(service Service, spec string, loc *time.Location, logger *slog.Logger) (*Sweeper, error) {
	if service == nil {
		return nil, errors.New("waitlist: service is required")
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("waitlist: invalid schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "waitlist_sweeper")

	return &Sweeper{
		service: service,
		spec:    spec,
		logger:  logger,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger{logger: logger}),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger: logger})),
		),
	}, nil
}

// Start schedules the sweep and stops it when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("waitlist: sweeper already started")
	}

	if _, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			s.logger.ErrorContext(ctx, "waitlist sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("waitlist: schedule sweep: %w", err)
	}
	s.cron.Start()
	s.started = true
	s.logger.InfoContext(ctx, "waitlist sweeper started", "schedule", s.spec)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("waitlist sweeper stopped")
}

// Sweep processes the waitlist of every slot-enabled engagement once and
// returns the number of promoted bookings. A failing engagement does not stop
// the sweep; its error is joined into the result.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	engagements, err := s.service.ListEngagements(ctx, application.ListEngagementsParams{})
	if err != nil {
		return 0, fmt.Errorf("waitlist: list engagements: %w", err)
	}

	var (
		promoted int
		errs     []error
	)
	for _, engagement := range engagements {
		if engagement.Slots == nil || !engagement.Slots.Enabled || engagement.Slots.Stats.WaitlistCount == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		out, err := s.service.ProcessWaitlist(ctx, engagement.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("waitlist: engagement %s: %w", engagement.ID, err))
			continue
		}
		promoted += len(out)
	}

	if promoted > 0 {
		s.logger.InfoContext(ctx, "waitlist sweep promoted bookings", "promoted", promoted)
	}
	return promoted, errors.Join(errs...)
}

// cronLogger routes cron's own diagnostics through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
