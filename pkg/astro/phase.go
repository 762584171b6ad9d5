package astro

import (
	"math"

	"github.com/charlie0129/moonframe/pkg/types"
)

const (
	// SynodicMonth is the mean length of a lunation in days.
	SynodicMonth = 29.530588861
	// ReferenceEpoch is the Julian Day of a known new moon (2000-01-06 14:24 UTC).
	ReferenceEpoch = 2451550.1

	NewMoon  = 0.0
	FullMoon = 0.5
)

// minLead is the smallest forward offset, in days, NextEvent accepts before
// skipping to the following lunation. It absorbs float noise when the query
// instant sits exactly on the target phase.
const minLead = 1e-6

// EventKind names the lunar events the frame tracks.
type EventKind string

const (
	EventNewMoon  EventKind = "new"
	EventFullMoon EventKind = "full"
)

// Target returns the phase value of the event kind.
func (k EventKind) Target() float64 {
	if k == EventFullMoon {
		return FullMoon
	}
	return NewMoon
}

// Occurrence is one upcoming lunar event.
type Occurrence struct {
	Kind  EventKind     `json:"kind"`
	Event CalendarEvent `json:"event"`
}

// Phase returns the position of ts within the lunar cycle, in [0,1).
// 0 is new moon, 0.5 is full moon.
func Phase(ts types.Timestamp) float64 {
	return phaseAt(JulianDay(ts))
}

// Age returns the number of days since the last new moon.
func Age(ts types.Timestamp) float64 {
	return Phase(ts) * SynodicMonth
}

// NextEvent finds the next instant strictly after ts whose phase equals
// target, using the mean synodic month. The result is always less than one
// lunation away.
func NextEvent(ts types.Timestamp, target float64) CalendarEvent {
	return FromJulianDay(nextJulian(JulianDay(ts), target))
}

// Upcoming lists the next n new and full moons after ts in chronological
// order.
func Upcoming(ts types.Timestamp, n int) []Occurrence {
	if n <= 0 {
		return nil
	}

	ret := make([]Occurrence, 0, n)
	jd := JulianDay(ts)
	for len(ret) < n {
		nextNew := nextJulian(jd, NewMoon)
		nextFull := nextJulian(jd, FullMoon)

		kind, at := EventNewMoon, nextNew
		if nextFull < nextNew {
			kind, at = EventFullMoon, nextFull
		}

		ret = append(ret, Occurrence{Kind: kind, Event: FromJulianDay(at)})
		jd = at
	}

	return ret
}

func phaseAt(jd float64) float64 {
	x := (jd - ReferenceEpoch) / SynodicMonth
	f := x - math.Floor(x)
	if f < 0 {
		f++
	}
	if f >= 1 {
		f--
	}
	return f
}

func nextJulian(jd, target float64) float64 {
	offset := (target - phaseAt(jd)) * SynodicMonth
	if offset <= 0 {
		offset += SynodicMonth
	}
	if offset <= minLead {
		offset += SynodicMonth
	}
	return jd + offset
}
