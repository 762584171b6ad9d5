package astro

import (
	"math"

	"github.com/charlie0129/moonframe/pkg/types"
)

// GregorianStart is the first Julian Day of the Gregorian calendar
// (1582-10-15).
const GregorianStart = 2299161

// CalendarEvent is the calendar date of a lunar event together with the
// Julian Day of the event instant.
type CalendarEvent struct {
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	Day       int     `json:"day"`
	JulianDay float64 `json:"julianDay"`
}

// Timestamp returns the midnight of the event date.
func (e CalendarEvent) Timestamp() types.Timestamp {
	return types.Timestamp{Year: e.Year, Month: e.Month, Day: e.Day}
}

// JulianDay converts ts to a Julian Day using the proleptic Gregorian
// calendar. January and February count as months 13 and 14 of the previous
// year for the century correction.
func JulianDay(ts types.Timestamp) float64 {
	y := ts.Year
	m := ts.Month
	if m <= 2 {
		y--
		m += 12
	}

	b := 2 - math.Floor(float64(y)/100) + math.Floor(float64(y)/400)
	jd := math.Floor(365.25*float64(y+4716)) + math.Floor(30.6001*float64(m+1)) + float64(ts.Day) + b - 1524.5

	return jd + (float64(ts.Hour)+float64(ts.Minute)/60+float64(ts.Second)/3600)/24
}

// FromJulianDay converts a Julian Day back to a calendar date (Meeus,
// Astronomical Algorithms ch. 7). The fraction of the day is discarded.
func FromJulianDay(jd float64) CalendarEvent {
	ev := CalendarEvent{JulianDay: jd}

	jd += 0.5
	z := int(jd)
	f := jd - float64(z)

	a := z
	if z >= GregorianStart {
		alpha := int((float64(z) - 1867216.25) / 36524.25)
		a = z + 1 + alpha - alpha/4
	}

	b := a + 1524
	c := int((float64(b) - 122.1) / 365.25)
	d := int(365.25 * float64(c))
	e := int(float64(b-d) / 30.6001)

	ev.Day = int(float64(b-d-int(30.6001*float64(e))) + f)
	if e < 14 {
		ev.Month = e - 1
	} else {
		ev.Month = e - 13
	}
	if ev.Month > 2 {
		ev.Year = c - 4716
	} else {
		ev.Year = c - 4715
	}

	return ev
}
