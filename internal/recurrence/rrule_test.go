package recurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_RRuleString(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	base := date(2024, 1, 3) // Wednesday
	end := date(2024, 3, 1)

	tests := []struct {
		name string
		rule Rule
		want string
	}{
		{"daily", Rule{Pattern: PatternDaily, EndDate: &end}, "FREQ=DAILY;UNTIL=20240301T000000Z"},
		{"weekly", Rule{Pattern: PatternWeekly, SelectedDays: []string{"monday", "wednesday"}, EndDate: &end}, "FREQ=WEEKLY;UNTIL=20240301T000000Z;BYDAY=MO,WE"},
		{"bi-weekly", Rule{Pattern: PatternBiWeekly, SelectedDays: []string{"wednesday"}, EndDate: &end}, "FREQ=WEEKLY;INTERVAL=2;WKST=WE;UNTIL=20240301T000000Z;BYDAY=WE"},
		{"monthly", Rule{Pattern: PatternMonthly, EndDate: &end}, "FREQ=MONTHLY;UNTIL=20240301T000000Z;BYMONTHDAY=3"},
		{"yearly", Rule{Pattern: PatternYearly, EndDate: &end}, "FREQ=YEARLY;UNTIL=20240301T000000Z;BYMONTH=1;BYMONTHDAY=3"},
		{"custom", Rule{Pattern: PatternCustom, Interval: 3, EndDate: &end}, "FREQ=DAILY;INTERVAL=3;UNTIL=20240301T000000Z"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := engine.RRuleString(base, tc.rule)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEngine_RRuleRejectsInexpressibleRules(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	base := date(2024, 1, 1)

	for _, rule := range []Rule{
		{Pattern: PatternNone},
		{Pattern: PatternWeekly},
		{Pattern: PatternCustom},
		{Pattern: "hourly"},
	} {
		_, err := engine.RRule(base, rule)
		assert.ErrorIs(t, err, ErrNotExpressible, "pattern %q", rule.Pattern)
	}

	_, err := engine.RRule(base, Rule{Pattern: PatternWeekly, SelectedDays: []string{"funday"}})
	assert.ErrorIs(t, err, ErrInvalidWeekday)
}
