package application

import (
	"context"
	"fmt"
	"time"

	"github.com/example/temple-engagements/internal/calendar"
	"github.com/example/temple-engagements/internal/recurrence"
	"github.com/example/temple-engagements/internal/scheduler"
)

// ExpandRecurrence lists the dates rule produces from base. Incomplete rules
// yield an empty result rather than an error.
func (s *EngagementService) ExpandRecurrence(base time.Time, rule recurrence.Rule) []time.Time {
	dates := s.engine.Expand(base, rule)
	if dates == nil {
		return []time.Time{}
	}
	return dates
}

// CheckScheduleConflicts compares a single-shot proposal against every
// scheduled event and meeting.
func (s *EngagementService) CheckScheduleConflicts(ctx context.Context, params ScheduleConflictParams) (conflicts []scheduler.Conflict, err error) {
	if s == nil {
		err = fmt.Errorf("EngagementService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CheckScheduleConflicts",
		"date", calendar.FormatDate(params.Date),
		"time", params.Time.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to check schedule conflicts", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "schedule conflicts checked", "conflicts", len(conflicts))
	}()

	if params.Duration < 0 {
		err = fieldError("duration", "duration must not be negative")
		return
	}

	key := scheduleConflictKey(params)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	generation := s.cache.Generation()
	existing, err := s.schedulerSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	start := params.Time.On(s.engine.Day(params.Date))
	conflicts = s.detector.CheckSchedule(existing, scheduler.Proposal{
		Start:     start,
		Duration:  params.Duration,
		ExcludeID: params.ExcludeID,
	})
	s.cache.Store(key, generation, conflicts)
	return conflicts, nil
}

// CheckRecurrenceConflicts expands the proposed rule and reports engagements
// starting exactly at one of its occurrences.
func (s *EngagementService) CheckRecurrenceConflicts(ctx context.Context, params RecurrenceConflictParams) (conflicts []scheduler.Conflict, err error) {
	if s == nil {
		err = fmt.Errorf("EngagementService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CheckRecurrenceConflicts",
		"date", calendar.FormatDate(params.Date),
		"time", params.Time.String(),
		"pattern", string(params.Rule.Pattern),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to check recurrence conflicts", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "recurrence conflicts checked", "conflicts", len(conflicts))
	}()

	if !params.Rule.Recurs() {
		return []scheduler.Conflict{}, nil
	}

	key := recurrenceConflictKey(params)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	generation := s.cache.Generation()
	existing, err := s.schedulerSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	conflicts = s.detector.CheckRecurrence(existing, scheduler.RecurringProposal{
		Date:      s.engine.Day(params.Date),
		Time:      params.Time,
		Rule:      params.Rule,
		ExcludeID: params.ExcludeID,
	})
	s.cache.Store(key, generation, conflicts)
	return conflicts, nil
}

// ConflictSummary aggregates a conflict list.
func (s *EngagementService) ConflictSummary(conflicts []scheduler.Conflict) scheduler.Summary {
	return scheduler.Summarize(conflicts)
}

func (s *EngagementService) schedulerSnapshot(ctx context.Context) ([]scheduler.Schedule, error) {
	engagements, err := s.list(ctx, EngagementRepositoryFilter{})
	if err != nil {
		return nil, err
	}
	existing := make([]scheduler.Schedule, 0, len(engagements))
	for _, engagement := range engagements {
		existing = append(existing, toSchedulerSchedule(engagement))
	}
	return existing, nil
}
