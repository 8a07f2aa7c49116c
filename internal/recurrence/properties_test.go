package recurrence

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/example/temple-engagements/internal/calendar"
)

var weekdayNames = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

func drawRule(t *rapid.T, base time.Time) Rule {
	pattern := rapid.SampledFrom([]Pattern{
		PatternNone, PatternDaily, PatternWeekly, PatternBiWeekly,
		PatternMonthly, PatternYearly, PatternCustom,
	}).Draw(t, "pattern")

	rule := Rule{Pattern: pattern}
	if pattern == PatternWeekly || pattern == PatternBiWeekly {
		rule.SelectedDays = rapid.SliceOfNDistinct(rapid.SampledFrom(weekdayNames), 0, 7, func(s string) string { return s }).Draw(t, "days")
	}
	if pattern == PatternCustom {
		rule.Interval = rapid.IntRange(-2, 40).Draw(t, "interval")
	}
	if rapid.Bool().Draw(t, "bounded") {
		end := base.AddDate(0, 0, rapid.IntRange(-5, 800).Draw(t, "endOffset"))
		rule.EndDate = &end
	}
	return rule
}

func drawBase(t *rapid.T) time.Time {
	return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, rapid.IntRange(0, 3650).Draw(t, "baseOffset"))
}

func TestExpandProperties(t *testing.T) {
	engine := NewEngine(nil)

	rapid.Check(t, func(t *rapid.T) {
		base := drawBase(t)
		rule := drawRule(t, base)
		start, end := engine.Window(base, rule)

		dates := engine.Expand(base, rule)
		for i, d := range dates {
			if d.Before(start) || d.After(end) {
				t.Fatalf("date %s outside window [%s, %s]", calendar.FormatDate(d), calendar.FormatDate(start), calendar.FormatDate(end))
			}
			if i > 0 && !d.After(dates[i-1]) {
				t.Fatalf("dates not strictly ascending at %d: %s then %s", i, calendar.FormatDate(dates[i-1]), calendar.FormatDate(d))
			}
			if !engine.Matches(base, rule, d) {
				t.Fatalf("expanded date %s rejected by predicate", calendar.FormatDate(d))
			}
		}

		matched := 0
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if engine.Matches(base, rule, d) {
				matched++
			}
		}
		if matched != len(dates) {
			t.Fatalf("predicate matched %d days but expansion produced %d", matched, len(dates))
		}

		if !rule.Recurs() && len(dates) != 0 {
			t.Fatalf("pattern none produced %d dates", len(dates))
		}
	})
}

func TestExpandDeterministic(t *testing.T) {
	engine := NewEngine(nil)

	rapid.Check(t, func(t *rapid.T) {
		base := drawBase(t)
		rule := drawRule(t, base)

		first := formatAll(engine.Expand(base, rule))
		second := formatAll(engine.Expand(base, rule.Clone()))
		if len(first) != len(second) {
			t.Fatalf("expansion not deterministic: %d vs %d", len(first), len(second))
		}
		for i := range first {
			if first[i] != second[i] {
				t.Fatalf("expansion differs at %d: %s vs %s", i, first[i], second[i])
			}
		}
	})
}

func TestExpandAgreesWithRRule(t *testing.T) {
	engine := NewEngine(nil)

	rapid.Check(t, func(t *rapid.T) {
		base := drawBase(t)
		rule := drawRule(t, base)

		r, err := engine.RRule(base, rule)
		if err != nil {
			if len(engine.Expand(base, rule)) != 0 {
				t.Fatalf("rule %+v has occurrences but no RRULE: %v", rule, err)
			}
			return
		}

		start, end := engine.Window(base, rule)
		want := formatAll(engine.Expand(base, rule))
		got := formatAll(r.Between(start, end, true))
		if len(want) != len(got) {
			t.Fatalf("rule %+v: expand produced %d dates, rrule %d", rule, len(want), len(got))
		}
		for i := range want {
			if want[i] != got[i] {
				t.Fatalf("rule %+v differs at %d: expand %s, rrule %s", rule, i, want[i], got[i])
			}
		}
	})
}
