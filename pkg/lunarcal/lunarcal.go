// Package lunarcal exports upcoming new and full moons as an iCalendar
// feed.
package lunarcal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/moonframe/pkg/astro"
	"github.com/charlie0129/moonframe/pkg/types"
)

const (
	prodID   = "-//moonframe//Lunar Calendar//EN"
	calName  = "Moon phases"
	uidHost  = "moonframe"
	propName = "X-WR-CALNAME"

	// unixEpochJD is the Julian Day of 1970-01-01 00:00 UTC.
	unixEpochJD = 2440587.5
)

// DefaultCount is the number of events exported when none is given.
const DefaultCount = 24

// ErrNoEvents is returned when fewer than one event is requested.
var ErrNoEvents = errors.New("at least one event is required")

// EventTime converts the Julian Day of an event to UTC, rounded to the
// minute.
func EventTime(e astro.CalendarEvent) time.Time {
	sec := (e.JulianDay - unixEpochJD) * 86400
	return time.Unix(int64(sec), 0).UTC().Round(time.Minute)
}

func summary(kind astro.EventKind) string {
	if kind == astro.EventFullMoon {
		return "Full moon"
	}
	return "New moon"
}

// Build returns a calendar with the next n lunar events after from.
func Build(from types.Timestamp, n int, now time.Time) (*ical.Calendar, error) {
	occ := astro.Upcoming(from, n)
	if len(occ) == 0 {
		return nil, ErrNoEvents
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	cal.Props.SetText(propName, calName)

	stamp := ical.NewProp(ical.PropDateTimeStamp)
	stamp.SetDateTime(now.UTC())

	for _, o := range occ {
		at := EventTime(o.Event)

		ev := ical.NewEvent()
		ev.Props.SetText(ical.PropUID, fmt.Sprintf("%s-%04d%02d%02d@%s", o.Kind, o.Event.Year, o.Event.Month, o.Event.Day, uidHost))
		ev.Props.Set(stamp)
		ev.Props.SetText(ical.PropSummary, summary(o.Kind))
		ev.Props.SetText(ical.PropDescription, fmt.Sprintf("Julian Day %.4f", o.Event.JulianDay))

		start := ical.NewProp(ical.PropDateTimeStart)
		start.SetDateTime(at)
		ev.Props.Set(start)

		cal.Children = append(cal.Children, ev.Component)
	}

	logrus.WithFields(logrus.Fields{
		"from":   from.String(),
		"events": len(occ),
	}).Debug("lunar calendar built")

	return cal, nil
}

// Write encodes the calendar of the next n events after from to w.
func Write(w io.Writer, from types.Timestamp, n int) error {
	cal, err := Build(from, n, time.Now())
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return pkgerrors.Wrap(err, "failed to encode iCalendar data")
	}
	_, err = w.Write(buf.Bytes())
	return err
}
