package scheduler

import (
	"fmt"
	"time"

	"github.com/example/temple-engagements/internal/calendar"
	"github.com/example/temple-engagements/internal/recurrence"
)

// Engagement types and statuses that decide conflict candidacy.
const (
	TypeAnnouncement = "announcement"
	TypeEvent        = "event"
	TypeMeeting      = "meeting"

	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusSending   = "sending"
	StatusSent      = "sent"
	StatusFailed    = "failed"
)

const (
	// DefaultCandidateDuration is the window every existing engagement is assumed to occupy.
	DefaultCandidateDuration = 60 * time.Minute
	// DefaultAdjacencyWindow bounds the start-to-start distance reported as adjacent.
	DefaultAdjacencyWindow = 30 * time.Minute
	// DefaultProposalDuration applies when a proposal omits its duration.
	DefaultProposalDuration = 60 * time.Minute
)

// Schedule is the snapshot of an existing engagement the detector compares against.
// Date and Time are nil when the engagement is unscheduled.
type Schedule struct {
	ID     string
	Title  string
	Type   string
	Status string
	Date   *time.Time
	Time   *calendar.TimeOfDay
}

// Start combines the schedule's date and time, reporting false when either is absent.
func (s Schedule) Start() (time.Time, bool) {
	if s.Date == nil || s.Time == nil {
		return time.Time{}, false
	}
	return s.Time.On(*s.Date), true
}

// ConflictType describes the type of conflict detected between engagements.
type ConflictType string

const (
	// ConflictTypeExact indicates both engagements start at the same instant.
	ConflictTypeExact ConflictType = "exact"
	// ConflictTypeOverlap indicates the time windows intersect.
	ConflictTypeOverlap ConflictType = "overlap"
	// ConflictTypeAdjacent indicates the starts are within the adjacency window.
	ConflictTypeAdjacent ConflictType = "adjacent"
	// ConflictTypeRecurrence indicates an occurrence of a recurring proposal lands
	// exactly on an existing engagement.
	ConflictTypeRecurrence ConflictType = "recurrence"
)

// Severity ranks how disruptive a conflict is.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Conflict details a relationship between a proposal and an existing engagement.
type Conflict struct {
	EngagementID  string
	Title         string
	Type          ConflictType
	Severity      Severity
	Message       string
	Start         time.Time
	AffectedDates []string
}

// Proposal is a single-shot date and time under consideration.
type Proposal struct {
	Start     time.Time
	Duration  time.Duration
	ExcludeID string
}

// RecurringProposal is a date, time and recurrence rule under consideration.
type RecurringProposal struct {
	Date      time.Time
	Time      calendar.TimeOfDay
	Rule      recurrence.Rule
	ExcludeID string
}

// Detector classifies conflicts between proposals and existing engagements.
type Detector struct {
	engine            *recurrence.Engine
	candidateDuration time.Duration
	adjacencyWindow   time.Duration
}

// NewDetector constructs a detector using engine to expand recurring proposals.
func NewDetector(engine *recurrence.Engine) *Detector {
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}
	return &Detector{
		engine:            engine,
		candidateDuration: DefaultCandidateDuration,
		adjacencyWindow:   DefaultAdjacencyWindow,
	}
}

// Candidate reports whether s participates in conflict checks: events and
// meetings that are not drafts and have both a date and a time.
func Candidate(s Schedule, excludeID string) bool {
	if excludeID != "" && s.ID == excludeID {
		return false
	}
	if s.Type != TypeEvent && s.Type != TypeMeeting {
		return false
	}
	if s.Status == StatusDraft {
		return false
	}
	_, ok := s.Start()
	return ok
}

// CheckSchedule reports at most one conflict per candidate, in input order, using
// exact, then overlap, then adjacency precedence.
func (d *Detector) CheckSchedule(existing []Schedule, proposal Proposal) []Conflict {
	duration := proposal.Duration
	if duration <= 0 {
		duration = DefaultProposalDuration
	}
	proposedEnd := proposal.Start.Add(duration)

	conflicts := make([]Conflict, 0)
	for _, candidate := range existing {
		if !Candidate(candidate, proposal.ExcludeID) {
			continue
		}
		start, _ := candidate.Start()
		end := start.Add(d.candidateDuration)

		conflict := Conflict{EngagementID: candidate.ID, Title: candidate.Title, Start: start}
		switch {
		case proposal.Start.Equal(start):
			conflict.Type = ConflictTypeExact
			conflict.Severity = SeverityHigh
			conflict.Message = fmt.Sprintf("%q is already scheduled at %s", candidate.Title, start.Format("2006-01-02 15:04"))
		case proposal.Start.Before(end) && start.Before(proposedEnd):
			conflict.Type = ConflictTypeOverlap
			conflict.Severity = SeverityHigh
			conflict.Message = fmt.Sprintf("overlaps with %q (%s to %s)", candidate.Title, start.Format("15:04"), end.Format("15:04"))
		case absDuration(proposal.Start.Sub(start)) <= d.adjacencyWindow:
			conflict.Type = ConflictTypeAdjacent
			conflict.Severity = SeverityMedium
			conflict.Message = fmt.Sprintf("starts within %d minutes of %q", int(d.adjacencyWindow/time.Minute), candidate.Title)
		default:
			continue
		}
		conflicts = append(conflicts, conflict)
	}
	return conflicts
}

// CheckRecurrence expands the proposal and reports candidates that start exactly
// at an occurrence. Matches against the same candidate merge into one conflict
// whose AffectedDates lists every clashing date in ascending order.
//
// Only exact matches are reported for recurring proposals.
func (d *Detector) CheckRecurrence(existing []Schedule, proposal RecurringProposal) []Conflict {
	conflicts := make([]Conflict, 0)
	if !proposal.Rule.Recurs() {
		return conflicts
	}

	candidates := make([]Schedule, 0, len(existing))
	for _, candidate := range existing {
		if Candidate(candidate, proposal.ExcludeID) {
			candidates = append(candidates, candidate)
		}
	}
	if len(candidates) == 0 {
		return conflicts
	}

	index := make(map[string]int)
	for _, occurrence := range d.engine.Expand(proposal.Date, proposal.Rule) {
		at := proposal.Time.On(occurrence)
		for _, candidate := range candidates {
			start, _ := candidate.Start()
			if !start.Equal(at) {
				continue
			}
			day := calendar.FormatDate(occurrence)
			if i, ok := index[candidate.ID]; ok {
				conflicts[i].AffectedDates = append(conflicts[i].AffectedDates, day)
				continue
			}
			index[candidate.ID] = len(conflicts)
			conflicts = append(conflicts, Conflict{
				EngagementID:  candidate.ID,
				Title:         candidate.Title,
				Type:          ConflictTypeRecurrence,
				Severity:      SeverityHigh,
				Start:         start,
				AffectedDates: []string{day},
			})
		}
	}

	for i := range conflicts {
		conflicts[i].Message = fmt.Sprintf("recurs at the same time as %q on %d date(s)", conflicts[i].Title, len(conflicts[i].AffectedDates))
	}
	return conflicts
}

// Counts tallies conflicts by severity.
type Counts struct {
	Total  int
	High   int
	Medium int
	Low    int
}

// Summary condenses a conflict list for display.
type Summary struct {
	HasConflicts bool
	Severity     Severity
	Message      string
	Counts       Counts
}

// Summarize reports the highest severity present along with per-severity counts.
func Summarize(conflicts []Conflict) Summary {
	summary := Summary{Severity: SeverityNone}
	for _, c := range conflicts {
		summary.Counts.Total++
		switch c.Severity {
		case SeverityHigh:
			summary.Counts.High++
		case SeverityMedium:
			summary.Counts.Medium++
		case SeverityLow:
			summary.Counts.Low++
		}
		if c.Severity.rank() > summary.Severity.rank() {
			summary.Severity = c.Severity
		}
	}

	summary.HasConflicts = summary.Counts.Total > 0
	if !summary.HasConflicts {
		summary.Message = "No conflicts detected"
		return summary
	}
	summary.Message = fmt.Sprintf("%d conflict(s) found: %d high, %d medium, %d low",
		summary.Counts.Total, summary.Counts.High, summary.Counts.Medium, summary.Counts.Low)
	return summary
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
