package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/example/temple-engagements/internal/calendar"
)

// ErrNotExpressible indicates a rule with no RFC 5545 equivalent.
var ErrNotExpressible = errors.New("recurrence: rule cannot be expressed as an RRULE")

var rruleWeekdays = [...]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// RRule converts rule into an iCalendar recurrence anchored at midnight of the
// base date and bounded by the same window Expand uses.
//
// Bi-weekly rules start their week on the base weekday so that RRULE week
// parity lines up with the fourteen-day blocks counted from the base date.
func (e *Engine) RRule(base time.Time, rule Rule) (*rrule.RRule, error) {
	start, end := e.Window(base, rule)
	opt := rrule.ROption{
		Dtstart: start,
		Until:   end,
	}

	switch rule.Pattern {
	case PatternDaily:
		opt.Freq = rrule.DAILY
	case PatternWeekly, PatternBiWeekly:
		days, err := rruleDays(rule.SelectedDays)
		if err != nil {
			return nil, err
		}
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = days
		if rule.Pattern == PatternBiWeekly {
			opt.Interval = 2
			opt.Wkst = rruleWeekdays[start.Weekday()]
		}
	case PatternMonthly:
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday = []int{start.Day()}
	case PatternYearly:
		opt.Freq = rrule.YEARLY
		opt.Bymonth = []int{int(start.Month())}
		opt.Bymonthday = []int{start.Day()}
	case PatternCustom:
		if rule.Interval <= 0 {
			return nil, fmt.Errorf("%w: %w", ErrNotExpressible, ErrInvalidInterval)
		}
		opt.Freq = rrule.DAILY
		opt.Interval = rule.Interval
	default:
		return nil, fmt.Errorf("%w: pattern %q", ErrNotExpressible, rule.Pattern)
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("recurrence: build rrule: %w", err)
	}
	return r, nil
}

// RRuleString renders the RRULE value (without DTSTART) for rule.
func (e *Engine) RRuleString(base time.Time, rule Rule) (string, error) {
	r, err := e.RRule(base, rule)
	if err != nil {
		return "", err
	}
	return r.OrigOptions.RRuleString(), nil
}

func rruleDays(selected []string) ([]rrule.Weekday, error) {
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrNotExpressible, ErrMissingWeekdays)
	}
	seen := make(map[time.Weekday]struct{}, len(selected))
	days := make([]rrule.Weekday, 0, len(selected))
	for _, name := range selected {
		day, ok := calendar.ParseWeekday(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidWeekday, name)
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, rruleWeekdays[day])
	}
	return days, nil
}
