package lunarcal

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/moonframe/pkg/astro"
	"github.com/charlie0129/moonframe/pkg/types"
)

var jan2024 = types.Timestamp{Year: 2024, Month: 1, Day: 1}

func TestBuild(t *testing.T) {
	cal, err := Build(jan2024, 4, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	evs := cal.Events()
	require.Len(t, evs, 4)

	// New moon on Jan 11, full moon on Jan 25.
	summaries := make([]string, 0, len(evs))
	for _, ev := range evs {
		s, err := ev.Props.Text(ical.PropSummary)
		require.NoError(t, err)
		summaries = append(summaries, s)
	}
	assert.Equal(t, []string{"New moon", "Full moon", "New moon", "Full moon"}, summaries)

	uid, err := evs[0].Props.Text(ical.PropUID)
	require.NoError(t, err)
	assert.Equal(t, "new-20240111@moonframe", uid)

	start, err := evs[1].DateTimeStart(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 2024, start.Year())
	assert.Equal(t, time.January, start.Month())
	assert.Equal(t, 25, start.Day())
}

func TestBuildNoEvents(t *testing.T) {
	_, err := Build(jan2024, 0, time.Now())
	assert.ErrorIs(t, err, ErrNoEvents)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, jan2024, DefaultCount))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Equal(t, DefaultCount, strings.Count(out, "BEGIN:VEVENT"))

	cal, err := ical.NewDecoder(strings.NewReader(out)).Decode()
	require.NoError(t, err)
	assert.Len(t, cal.Events(), DefaultCount)
}

func TestEventTime(t *testing.T) {
	e := astro.CalendarEvent{Year: 2000, Month: 1, Day: 1, JulianDay: 2451545.0}
	assert.Equal(t, time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), EventTime(e))
}
