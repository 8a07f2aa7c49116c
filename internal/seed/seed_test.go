package seed

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/temple-engagements/internal/application"
	"github.com/example/temple-engagements/internal/participation"
	"github.com/example/temple-engagements/internal/recurrence"
	"github.com/example/temple-engagements/internal/testfixtures"
)

func newService(t *testing.T) *application.EngagementService {
	t.Helper()
	harness := testfixtures.NewMemoryHarness(t)
	return testfixtures.NewServiceFactory().NewEngagementService(testfixtures.EngagementServiceDeps{
		Engagements: application.NewPersistenceRepository(harness.Engagements),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestLoadFileAppliesSampleData(t *testing.T) {
	file, err := LoadFile("testdata/temple.yaml")
	require.NoError(t, err)
	require.Len(t, file.Engagements, 4)

	service := newService(t)
	loader := NewLoader(service, time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	summary, err := loader.Apply(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, Summary{Engagements: 4, Bookings: 3, Responses: 2, Requests: 2}, summary)

	engagements, err := service.ListEngagements(ctx, application.ListEngagementsParams{})
	require.NoError(t, err)
	require.Len(t, engagements, 4)

	byTitle := make(map[string]application.Engagement, len(engagements))
	for _, e := range engagements {
		byTitle[e.Title] = e
	}

	service1 := byTitle["Sunday morning service"]
	require.NotNil(t, service1.Recurrence)
	assert.Equal(t, recurrence.PatternWeekly, service1.Recurrence.Pattern)
	require.NotNil(t, service1.RSVP)
	assert.Equal(t, 38, service1.RSVP.Stats.Pending)
	assert.Equal(t, 1, service1.RSVP.Stats.Attending)

	counselling := byTitle["Counselling with the abbot"]
	require.NotNil(t, counselling.Slots)
	assert.Equal(t, 2, counselling.Slots.Stats.BookedSlots)
	assert.Equal(t, 1, counselling.Slots.Stats.WaitlistCount)
	assert.Equal(t, "15:00", counselling.Slots.EndTime.String())

	cleaning := byTitle["New year temple cleaning"]
	require.NotNil(t, cleaning.Volunteers)
	require.Len(t, cleaning.Volunteers.Requests, 2)
	assert.Equal(t, participation.RequestApproved, cleaning.Volunteers.Requests[0].Status)
	assert.Equal(t, participation.RequestPending, cleaning.Volunteers.Requests[1].Status)

	occurrences, err := service.EngagementsOn(ctx, time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, occurrences, 1)
	assert.True(t, occurrences[0].Recurring)
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"missing title": `
engagements:
  - type: event
`,
		"unknown type": `
engagements:
  - title: Talk
    type: party
`,
		"bad date": `
engagements:
  - title: Talk
    type: event
    date: "07/01/2024"
`,
		"decision without reviewer": `
engagements:
  - title: Cleaning
    type: event
    volunteers:
      roles:
        - id: sweep
          name: Sweeping
          spots: 1
      requests:
        - userID: u1
          roleID: sweep
          decision: approved
`,
		"not yaml": "engagements: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), "seed: "), err.Error())
		})
	}
}

func TestApplyStopsOnServiceErrors(t *testing.T) {
	file, err := Parse([]byte(`
engagements:
  - title: Cleaning
    type: event
    volunteers:
      roles:
        - id: sweep
          name: Sweeping
          spots: 1
      requests:
        - userID: u1
          roleID: kitchen
`))
	require.NoError(t, err)

	loader := NewLoader(newService(t), time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))
	summary, err := loader.Apply(context.Background(), file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "volunteer request for u1")
	assert.Equal(t, 1, summary.Engagements)

	var vErr *application.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "role_id")
}
