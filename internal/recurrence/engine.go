package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/temple-engagements/internal/calendar"
)

// Pattern names a recurrence cadence.
type Pattern string

const (
	// PatternNone disables expansion; callers handle the single base occurrence.
	PatternNone Pattern = "none"
	// PatternDaily recurs every day in the window.
	PatternDaily Pattern = "daily"
	// PatternWeekly recurs on the selected weekdays.
	PatternWeekly Pattern = "weekly"
	// PatternBiWeekly recurs on the selected weekdays of every other week.
	PatternBiWeekly Pattern = "bi-weekly"
	// PatternMonthly recurs on the base date's day of month.
	PatternMonthly Pattern = "monthly"
	// PatternYearly recurs on the base date's month and day.
	PatternYearly Pattern = "yearly"
	// PatternCustom recurs every Interval days.
	PatternCustom Pattern = "custom"
)

// Rule describes how an engagement repeats after its base date.
type Rule struct {
	Pattern      Pattern
	SelectedDays []string
	Interval     int
	EndDate      *time.Time
}

// Clone returns a deep copy of the rule.
func (r Rule) Clone() Rule {
	out := r
	if r.SelectedDays != nil {
		out.SelectedDays = append([]string(nil), r.SelectedDays...)
	}
	if r.EndDate != nil {
		end := *r.EndDate
		out.EndDate = &end
	}
	return out
}

// Recurs reports whether the rule expands beyond the base occurrence.
func (r Rule) Recurs() bool {
	return r.Pattern != "" && r.Pattern != PatternNone
}

var (
	// ErrInvalidPattern indicates the pattern is not one of the supported cadences.
	ErrInvalidPattern = errors.New("recurrence: invalid pattern")
	// ErrMissingWeekdays indicates a weekly cadence without selected days.
	ErrMissingWeekdays = errors.New("recurrence: weekly patterns require selected days")
	// ErrInvalidWeekday indicates a selected day that is not an English weekday name.
	ErrInvalidWeekday = errors.New("recurrence: invalid weekday")
	// ErrInvalidInterval indicates a custom cadence without a positive interval.
	ErrInvalidInterval = errors.New("recurrence: custom patterns require a positive interval")
	// ErrInvalidWindow indicates an end date before the base date.
	ErrInvalidWindow = errors.New("recurrence: end date precedes base date")
)

// Validate performs the strict checks used at input boundaries. Expansion itself
// never fails: invalid rules simply produce no occurrences.
func (r Rule) Validate(base time.Time) error {
	var errs []error
	switch r.Pattern {
	case PatternNone, PatternDaily, PatternMonthly, PatternYearly:
	case PatternWeekly, PatternBiWeekly:
		if len(r.SelectedDays) == 0 {
			errs = append(errs, ErrMissingWeekdays)
		}
	case PatternCustom:
		if r.Interval <= 0 {
			errs = append(errs, ErrInvalidInterval)
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidPattern, r.Pattern))
	}
	for _, day := range r.SelectedDays {
		if _, ok := calendar.ParseWeekday(day); !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidWeekday, day))
		}
	}
	if r.EndDate != nil && calendar.DaysBetween(base, *r.EndDate) < 0 {
		errs = append(errs, ErrInvalidWindow)
	}
	return errors.Join(errs...)
}

// Engine expands recurrence rules into calendar dates.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that interprets dates in the provided location.
// If loc is nil, UTC is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

// Location returns the timezone the engine evaluates calendar days in.
func (e *Engine) Location() *time.Location {
	if e == nil || e.location == nil {
		return time.UTC
	}
	return e.location
}

// Day normalizes t to midnight of its calendar day in the engine location.
func (e *Engine) Day(t time.Time) time.Time {
	return calendar.StartOfDay(t, e.Location())
}

// Window returns the inclusive range a rule anchored at base may occupy: from the
// base date to the rule's end date, or one year past the base date when unbounded.
func (e *Engine) Window(base time.Time, rule Rule) (start, end time.Time) {
	start = e.Day(base)
	if rule.EndDate != nil {
		end = e.Day(*rule.EndDate)
		return start, end
	}
	return start, start.AddDate(1, 0, 0)
}

// Matches reports whether date is produced by expanding rule from base. It is the
// constant-time predicate behind both Expand and the calendar day views.
//
// Monthly rules compare the day of month literally, so a rule anchored on the 31st
// produces nothing in shorter months. Yearly rules anchored on February 29th only
// recur in leap years.
func (e *Engine) Matches(base time.Time, rule Rule, date time.Time) bool {
	start, end := e.Window(base, rule)
	day := e.Day(date)
	if day.Before(start) || day.After(end) {
		return false
	}

	switch rule.Pattern {
	case PatternDaily:
		return true
	case PatternWeekly:
		return daySelected(rule.SelectedDays, day.Weekday())
	case PatternBiWeekly:
		if !daySelected(rule.SelectedDays, day.Weekday()) {
			return false
		}
		return (calendar.DaysBetween(start, day)/7)%2 == 0
	case PatternMonthly:
		return day.Day() == start.Day()
	case PatternYearly:
		return day.Month() == start.Month() && day.Day() == start.Day()
	case PatternCustom:
		if rule.Interval <= 0 {
			return false
		}
		return calendar.DaysBetween(start, day)%rule.Interval == 0
	default:
		return false
	}
}

// OccursOn reports whether an engagement dated base with rule takes place on date,
// counting the base occurrence itself.
func (e *Engine) OccursOn(base time.Time, rule *Rule, date time.Time) bool {
	if calendar.SameDay(e.Day(base), e.Day(date)) {
		return true
	}
	if rule == nil {
		return false
	}
	return e.Matches(base, *rule, date)
}

// GenerateOptions clips expansion to a sub-range of the rule window.
type GenerateOptions struct {
	RangeStart *time.Time
	RangeEnd   *time.Time
}

// Expand returns the ascending, duplicate-free dates rule produces from base.
// PatternNone, unknown patterns, weekly patterns without days and custom patterns
// without a positive interval all yield an empty result.
func (e *Engine) Expand(base time.Time, rule Rule) []time.Time {
	return e.ExpandWithin(base, rule, GenerateOptions{})
}

// ExpandWithin behaves like Expand but only returns dates inside the optional range.
func (e *Engine) ExpandWithin(base time.Time, rule Rule, opts GenerateOptions) []time.Time {
	step := 1
	switch rule.Pattern {
	case PatternDaily, PatternMonthly, PatternYearly:
	case PatternWeekly, PatternBiWeekly:
		if len(rule.SelectedDays) == 0 {
			return nil
		}
	case PatternCustom:
		if rule.Interval <= 0 {
			return nil
		}
		step = rule.Interval
	default:
		return nil
	}

	start, upper := e.Window(base, rule)
	var lower time.Time
	if opts.RangeStart != nil {
		lower = e.Day(*opts.RangeStart)
	}
	if opts.RangeEnd != nil {
		if rangeEnd := e.Day(*opts.RangeEnd); rangeEnd.Before(upper) {
			upper = rangeEnd
		}
	}

	var dates []time.Time
	for current := start; !current.After(upper); current = current.AddDate(0, 0, step) {
		if current.Before(lower) {
			continue
		}
		if e.Matches(base, rule, current) {
			dates = append(dates, current)
		}
	}
	return dates
}

func daySelected(selected []string, day time.Weekday) bool {
	name := calendar.WeekdayName(day)
	for _, candidate := range selected {
		if strings.EqualFold(strings.TrimSpace(candidate), name) {
			return true
		}
	}
	return false
}
