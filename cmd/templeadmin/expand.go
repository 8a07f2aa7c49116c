package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/temple-engagements/internal/calendar"
	"github.com/example/temple-engagements/internal/recurrence"
)

type expandFlags struct {
	date     string
	pattern  string
	days     []string
	interval int
	until    string
	rrule    bool
}

func newExpandCommand(state *app) *cobra.Command {
	var flags expandFlags

	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Print the dates a recurrence rule produces",
		Example: "  templeadmin expand --date 2024-01-07 --pattern weekly --days sunday\n" +
			"  templeadmin expand --date 2024-01-01 --pattern custom --interval 10 --until 2024-03-01 --rrule",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine := recurrence.NewEngine(state.cfg.Location)
			base, err := calendar.ParseDate(flags.date, engine.Location())
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
			rule := recurrence.Rule{
				Pattern:      recurrence.Pattern(strings.ToLower(flags.pattern)),
				SelectedDays: flags.days,
				Interval:     flags.interval,
			}
			if flags.until != "" {
				end, err := calendar.ParseDate(flags.until, engine.Location())
				if err != nil {
					return fmt.Errorf("invalid --until: %w", err)
				}
				rule.EndDate = &end
			}
			if err := rule.Validate(base); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flags.rrule {
				value, err := engine.RRuleString(base, rule)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "RRULE:%s\n", value)
			}
			for _, day := range engine.Expand(base, rule) {
				fmt.Fprintln(out, calendar.FormatDate(day))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.date, "date", "", "base date (YYYY-MM-DD)")
	f.StringVar(&flags.pattern, "pattern", string(recurrence.PatternWeekly), "none, daily, weekly, bi-weekly, monthly, yearly or custom")
	f.StringSliceVar(&flags.days, "days", nil, "weekday names for weekly patterns")
	f.IntVar(&flags.interval, "interval", 0, "day interval for custom patterns")
	f.StringVar(&flags.until, "until", "", "last date of the window (YYYY-MM-DD); defaults to one year")
	f.BoolVar(&flags.rrule, "rrule", false, "also print the equivalent RFC 5545 RRULE")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}
