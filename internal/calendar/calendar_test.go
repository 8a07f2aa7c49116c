package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+9", 9*60*60)
	got, err := ParseDate(" 2024-12-20 ", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 20, 0, 0, 0, 0, loc), got)
	assert.Equal(t, "2024-12-20", FormatDate(got))

	_, err = ParseDate("2024-13-01", loc)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDaysBetweenIgnoresDST(t *testing.T) {
	t.Parallel()

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	before := time.Date(2024, 3, 9, 0, 0, 0, 0, ny)
	after := time.Date(2024, 3, 11, 0, 0, 0, 0, ny)
	assert.Equal(t, 2, DaysBetween(before, after))
	assert.Equal(t, -2, DaysBetween(after, before))
}

func TestParseWeekday(t *testing.T) {
	t.Parallel()

	day, ok := ParseWeekday("Wednesday")
	require.True(t, ok)
	assert.Equal(t, time.Wednesday, day)
	assert.Equal(t, "wednesday", WeekdayName(day))

	_, ok = ParseWeekday("wed")
	assert.False(t, ok)
}

func TestTimeOfDay(t *testing.T) {
	t.Parallel()

	tod, err := ParseTimeOfDay("18:30")
	require.NoError(t, err)
	assert.Equal(t, 18, tod.Hour())
	assert.Equal(t, 30, tod.Minute())
	assert.Equal(t, "19:15", tod.Add(45*time.Minute).String())
	assert.Equal(t, "00:10", tod.Add(5*time.Hour+40*time.Minute).String())

	day := time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 12, 20, 18, 30, 0, 0, time.UTC), tod.On(day))

	_, err = ParseTimeOfDay("25:00")
	assert.ErrorIs(t, err, ErrInvalidTimeOfDay)
}

func TestTimeOfDayJSON(t *testing.T) {
	t.Parallel()

	payload, err := json.Marshal(struct {
		At TimeOfDay `json:"at"`
	}{At: NewTimeOfDay(9, 5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"09:05"}`, string(payload))

	var decoded struct {
		At TimeOfDay `json:"at"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"at":"07:45"}`), &decoded))
	assert.Equal(t, NewTimeOfDay(7, 45), decoded.At)
}
