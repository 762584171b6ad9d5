package astro

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/moonframe/pkg/types"
)

// oneDay is the phase distance covered in one day.
const oneDay = 1 / SynodicMonth

func ts(y, mo, d, h, mi, s int) types.Timestamp {
	return types.Timestamp{Year: y, Month: mo, Day: d, Hour: h, Minute: mi, Second: s}
}

// circularDistance is the distance between two phases on the unit circle.
func circularDistance(a, b float64) float64 {
	d := math.Abs(a - b)
	return math.Min(d, 1-d)
}

func TestJulianDay(t *testing.T) {
	tests := []struct {
		name string
		ts   types.Timestamp
		want float64
	}{
		{"J2000", ts(2000, 1, 1, 12, 0, 0), 2451545.0},
		{"2024 new year", ts(2024, 1, 1, 0, 0, 0), 2460310.5},
		{"reference new moon", ts(2000, 1, 6, 14, 24, 0), ReferenceEpoch},
		{"leap day", ts(2024, 2, 29, 0, 0, 0), 2460369.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, JulianDay(tt.ts), 1e-6)
		})
	}
}

func TestFromJulianDayRoundTrip(t *testing.T) {
	dates := []types.Timestamp{
		ts(2000, 1, 1, 0, 0, 0),
		ts(2000, 2, 29, 0, 0, 0),
		ts(2024, 2, 29, 0, 0, 0),
		ts(2024, 12, 31, 0, 0, 0),
		ts(2025, 3, 1, 0, 0, 0),
		ts(2099, 12, 31, 0, 0, 0),
	}
	for _, d := range dates {
		ev := FromJulianDay(JulianDay(d))
		assert.Equal(t, d, ev.Timestamp(), "round trip of %s", d)
	}

	// Late in the day still resolves to the same date.
	ev := FromJulianDay(JulianDay(ts(2025, 6, 15, 23, 59, 59)))
	assert.Equal(t, ts(2025, 6, 15, 0, 0, 0), ev.Timestamp())

	// Before the Gregorian reform the Julian calendar branch is used.
	ev = FromJulianDay(2299159.5)
	assert.Equal(t, ts(1582, 10, 4, 0, 0, 0), ev.Timestamp())
}

func TestPhaseRange(t *testing.T) {
	start := ts(2000, 1, 1, 0, 0, 0)
	for i := 0; i < 365*100; i += 7 {
		d := start.AddDays(i)
		d.Hour = i % 24
		p := Phase(d)
		require.GreaterOrEqual(t, p, 0.0, "phase of %s", d)
		require.Less(t, p, 1.0, "phase of %s", d)
	}
}

func TestPhaseRegression(t *testing.T) {
	assert.InDelta(t, 0.655107, Phase(ts(2024, 1, 1, 0, 0, 0)), 1e-6)
	assert.InDelta(t, 0.0, circularDistance(0, Phase(ts(2000, 1, 6, 14, 24, 0))), 1e-9)
}

func TestPhaseCycleClosure(t *testing.T) {
	start := ts(2025, 6, 15, 8, 30, 0)
	later := FromJulianDay(JulianDay(start) + SynodicMonth)
	// FromJulianDay drops the time of day, so compare instants directly.
	assert.InDelta(t, 0, circularDistance(phaseAt(JulianDay(start)), phaseAt(later.JulianDay)), 1e-9)
	assert.InDelta(t, 0, circularDistance(phaseAt(JulianDay(start)), phaseAt(JulianDay(start)+10*SynodicMonth)), 1e-9)
}

func TestNextEvent(t *testing.T) {
	tests := []struct {
		name   string
		ts     types.Timestamp
		target float64
		want   types.Timestamp
	}{
		{"full moon after 2024 new year", ts(2024, 1, 1, 0, 0, 0), FullMoon, ts(2024, 1, 25, 0, 0, 0)},
		{"new moon after 2024 new year", ts(2024, 1, 1, 0, 0, 0), NewMoon, ts(2024, 1, 11, 0, 0, 0)},
		{"full moon across year end", ts(2024, 12, 31, 23, 59, 59), FullMoon, ts(2025, 1, 14, 0, 0, 0)},
		{"new moon across year end", ts(2024, 12, 31, 23, 59, 59), NewMoon, ts(2025, 1, 29, 0, 0, 0)},
		{"full moon in summer", ts(2025, 6, 15, 8, 30, 0), FullMoon, ts(2025, 7, 10, 0, 0, 0)},
		{"new moon in summer", ts(2025, 6, 15, 8, 30, 0), NewMoon, ts(2025, 6, 25, 0, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := NextEvent(tt.ts, tt.target)
			assert.Equal(t, tt.want, ev.Timestamp())
		})
	}
}

func TestNextEventExactlyOnTarget(t *testing.T) {
	// The query instant is the reference new moon itself: the search must
	// skip to the next lunation rather than return the same instant.
	at := ts(2000, 1, 6, 14, 24, 0)
	ev := NextEvent(at, NewMoon)
	assert.Equal(t, ts(2000, 2, 5, 0, 0, 0), ev.Timestamp())
	assert.InDelta(t, SynodicMonth, ev.JulianDay-JulianDay(at), 1e-6)

	// One second before the new moon the event is still ahead.
	ev = NextEvent(ts(2000, 1, 6, 14, 23, 59), NewMoon)
	assert.Equal(t, ts(2000, 1, 6, 0, 0, 0), ev.Timestamp())
	assert.Greater(t, ev.JulianDay, JulianDay(ts(2000, 1, 6, 14, 23, 59)))
}

func TestNextEventFromEventInstant(t *testing.T) {
	// Searching again from a found event lands on the following lunation,
	// even when the phase at that instant rounds to just below 1.
	for _, target := range []float64{NewMoon, FullMoon} {
		first := nextJulian(JulianDay(ts(2024, 1, 1, 0, 0, 0)), target)
		again := nextJulian(first, target)
		assert.InDelta(t, SynodicMonth, again-first, 1e-6)

		half := nextJulian(first, 0.5-target)
		assert.InDelta(t, SynodicMonth/2, half-first, 1e-6)
	}
}

func TestNextEventProperties(t *testing.T) {
	start := ts(2000, 1, 1, 0, 0, 0)
	for i := 0; i < 365*99; i += 3 {
		d := start.AddDays(i)
		d.Hour = (i * 7) % 24
		d.Minute = i % 60
		jd := JulianDay(d)

		for _, target := range []float64{NewMoon, FullMoon} {
			ev := NextEvent(d, target)

			require.Greater(t, ev.JulianDay, jd, "event for %s must be in the future", d)
			require.LessOrEqual(t, ev.JulianDay-jd, SynodicMonth+minLead, "event for %s must be within one lunation", d)

			// The event date's midnight is at most one day before the
			// event instant, so its phase is within a day's worth of the target.
			p := Phase(ev.Timestamp())
			require.LessOrEqual(t, circularDistance(p, target), oneDay+1e-9,
				"phase %f of %v too far from %f", p, ev, target)
		}
	}
}

func TestUpcoming(t *testing.T) {
	occ := Upcoming(ts(2024, 1, 1, 0, 0, 0), 4)
	require.Len(t, occ, 4)

	assert.Equal(t, EventNewMoon, occ[0].Kind)
	assert.Equal(t, ts(2024, 1, 11, 0, 0, 0), occ[0].Event.Timestamp())
	assert.Equal(t, EventFullMoon, occ[1].Kind)
	assert.Equal(t, ts(2024, 1, 25, 0, 0, 0), occ[1].Event.Timestamp())
	assert.Equal(t, EventNewMoon, occ[2].Kind)
	assert.Equal(t, EventFullMoon, occ[3].Kind)

	for i := 1; i < len(occ); i++ {
		assert.Greater(t, occ[i].Event.JulianDay, occ[i-1].Event.JulianDay)
		assert.InDelta(t, SynodicMonth/2, occ[i].Event.JulianDay-occ[i-1].Event.JulianDay, 1e-6)
	}

	assert.Nil(t, Upcoming(ts(2024, 1, 1, 0, 0, 0), 0))
}

func TestAge(t *testing.T) {
	assert.InDelta(t, 0.655107*SynodicMonth, Age(ts(2024, 1, 1, 0, 0, 0)), 1e-4)
}
