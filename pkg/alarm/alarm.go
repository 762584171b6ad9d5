// Package alarm computes and programs the daily wake-up of the frame.
package alarm

import (
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/moonframe/pkg/rtc"
	"github.com/charlie0129/moonframe/pkg/types"
)

// WakeSpec is the wake-up schedule of the frame.
const WakeSpec = "@daily"

var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

var wake = mustParse(WakeSpec)

func mustParse(spec string) cron.Schedule {
	s, err := parser.Parse(spec)
	if err != nil {
		panic(err)
	}
	return s
}

// NextAlarm returns the midnight following the date of current. The time of
// day of current is ignored, so the result is always exactly one calendar
// day after the current date.
func NextAlarm(current types.Timestamp) types.Timestamp {
	midnight := current.Date().Time()
	return types.FromTime(wake.Next(midnight))
}

// Program arms the RTC for the next wake-up, based on the time the RTC
// currently reports.
func Program(clock rtc.Clock) (types.Timestamp, error) {
	now, err := clock.GetTime()
	if err != nil {
		return types.Timestamp{}, pkgerrors.Wrap(err, "failed to read RTC")
	}
	return ProgramAt(clock, now)
}

// ProgramAt arms the RTC for the wake-up following now. The pending alarm
// flag is cleared first; the running time is not touched.
func ProgramAt(clock rtc.Clock, now types.Timestamp) (types.Timestamp, error) {
	next := NextAlarm(now)

	if err := clock.ClearAlarmFlag(); err != nil {
		return types.Timestamp{}, pkgerrors.Wrap(err, "failed to clear alarm flag")
	}
	if err := clock.SetAlarm(next); err != nil {
		return types.Timestamp{}, pkgerrors.Wrapf(err, "failed to set alarm to %s", next)
	}

	logrus.WithFields(logrus.Fields{
		"now":   now.String(),
		"alarm": next.String(),
	}).Info("alarm programmed")

	return next, nil
}

// Until returns how long it takes from now until the alarm fires.
func Until(now, alarmAt types.Timestamp) time.Duration {
	return alarmAt.Time().Sub(now.Time())
}
