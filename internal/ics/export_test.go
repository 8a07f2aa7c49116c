package ics_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/temple-engagements/internal/application"
	"github.com/example/temple-engagements/internal/ics"
	"github.com/example/temple-engagements/internal/recurrence"
	"github.com/example/temple-engagements/internal/testfixtures"
)

func TestExporterWritesParsableFeed(t *testing.T) {
	day := testfixtures.ReferenceDay()
	end := day.AddDate(0, 1, 0)

	weekly := testfixtures.NewEngagementFixture(
		testfixtures.WithEngagementID("weekly-sitting"),
		testfixtures.WithEngagementTitle("Weekly sitting"),
		testfixtures.WithEngagementSchedule(day, 19, 30),
		testfixtures.WithEngagementRecurrence(recurrence.Rule{Pattern: recurrence.PatternWeekly, SelectedDays: []string{"tuesday"}, EndDate: &end}),
	).Application()
	undated := testfixtures.NewEngagementFixture(
		testfixtures.WithEngagementID("notice"),
		testfixtures.WithoutEngagementSchedule(),
	).Application()
	allDay := testfixtures.NewEngagementFixture(
		testfixtures.WithEngagementID("festival"),
		testfixtures.WithEngagementStatus(application.StatusDraft),
	).Application()
	allDay.Time = nil

	exporter := ics.NewExporter(recurrence.NewEngine(time.UTC), "Temple calendar", testfixtures.ReferenceTime)

	var buf bytes.Buffer
	require.NoError(t, exporter.Write(&buf, []application.Engagement{weekly, undated, allDay}))

	cal, err := ical.ParseCalendar(strings.NewReader(buf.String()))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)

	byUID := make(map[string]*ical.VEvent, len(events))
	for _, event := range events {
		byUID[event.Id()] = event
	}

	sitting := byUID[ics.UID("weekly-sitting")]
	require.NotNil(t, sitting)
	assert.Equal(t, "Weekly sitting", sitting.GetProperty(ical.ComponentPropertySummary).Value)
	start, err := sitting.GetStartAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 19, 30, 0, 0, time.UTC), start.UTC())
	rrule := sitting.GetProperty(ical.ComponentPropertyRrule)
	require.NotNil(t, rrule)
	assert.Contains(t, rrule.Value, "FREQ=WEEKLY")
	assert.Contains(t, rrule.Value, "BYDAY=TU")
	assert.Contains(t, rrule.Value, "UNTIL=20240202T235959Z")

	festival := byUID[ics.UID("festival")]
	require.NotNil(t, festival)
	assert.Equal(t, string(ical.ObjectStatusTentative), festival.GetProperty(ical.ComponentPropertyStatus).Value)
	assert.Nil(t, festival.GetProperty(ical.ComponentPropertyRrule))
}

func TestExporterUsesSlotSpanForDuration(t *testing.T) {
	engagement := testfixtures.NewEngagementFixture(
		testfixtures.WithEngagementID("clinic"),
		testfixtures.WithEngagementSchedule(testfixtures.ReferenceDay(), 9, 0),
		testfixtures.WithEngagementSlots(testfixtures.NewSlotManagement(4, 15*time.Minute, false)),
	).Application()

	cal := ics.NewExporter(nil, "", testfixtures.ReferenceTime).Calendar([]application.Engagement{engagement})
	events := cal.Events()
	require.Len(t, events, 1)

	start, err := events[0].GetStartAt()
	require.NoError(t, err)
	end, err := events[0].GetEndAt()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, end.Sub(start))
}
