// Package boot determines the time the frame starts with when the RTC may
// have lost power.
package boot

import (
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/moonframe/pkg/display"
	"github.com/charlie0129/moonframe/pkg/rtc"
	"github.com/charlie0129/moonframe/pkg/storage"
	"github.com/charlie0129/moonframe/pkg/types"
)

// Source names where the boot time came from.
type Source string

const (
	SourceHardware Source = "hardware"
	SourceHint     Source = "hint"
	SourceDefault  Source = "default"
)

// DefaultHintPath is the date hint file on the card.
const DefaultHintPath = "date.txt"

// DefaultTime is used when neither the RTC nor the hint can be trusted.
var DefaultTime = types.Timestamp{Year: 2025, Month: 1, Day: 1}

// ErrInvalidHint is returned when the hint file does not read YYYY-MM-DD.
var ErrInvalidHint = errors.New("invalid date hint")

// Result is a resolved boot time.
type Result struct {
	Time   types.Timestamp `json:"time"`
	Source Source          `json:"source"`
}

// Resolver runs the fallback chain hardware, hint, default.
type Resolver struct {
	Clock   rtc.Clock
	Storage storage.Storage
	Mode    display.Mode
	// Default replaces DefaultTime when non-zero.
	Default types.Timestamp
	// HintPath replaces DefaultHintPath when set.
	HintPath string
}

// ParseDateHint parses the content of the hint file. Surrounding whitespace
// is ignored and the time of day is zero.
func ParseDateHint(b []byte) (types.Timestamp, error) {
	s := strings.TrimSpace(string(b))

	var ts types.Timestamp
	n, err := fmt.Sscanf(s, "%d-%d-%d", &ts.Year, &ts.Month, &ts.Day)
	if err != nil || n != 3 {
		return types.Timestamp{}, pkgerrors.Wrapf(ErrInvalidHint, "%q", s)
	}
	if err := ts.Validate(); err != nil {
		return types.Timestamp{}, err
	}
	return ts, nil
}

// Resolve never fails: each unusable source is logged and the next one is
// tried.
func (r *Resolver) Resolve() Result {
	if ts, ok := r.fromHardware(); ok {
		return Result{Time: ts, Source: SourceHardware}
	}

	if ts, ok := r.fromHint(); ok {
		return Result{Time: ts, Source: SourceHint}
	}

	def := r.Default
	if def == (types.Timestamp{}) {
		def = DefaultTime
	}
	logrus.WithField("time", def.String()).Info("using default boot time")
	return Result{Time: def, Source: SourceDefault}
}

func (r *Resolver) fromHardware() (types.Timestamp, bool) {
	stable, err := r.Clock.IsStable()
	if err != nil {
		logrus.Errorf("reading RTC stability failed: %v", err)
		return types.Timestamp{}, false
	}
	valid, err := r.Clock.HasValidTime()
	if err != nil {
		logrus.Errorf("reading RTC validity failed: %v", err)
		return types.Timestamp{}, false
	}
	ts, err := r.Clock.GetTime()
	if err != nil {
		logrus.Errorf("reading RTC time failed: %v", err)
		return types.Timestamp{}, false
	}

	logrus.WithFields(logrus.Fields{
		"stable": stable,
		"valid":  valid,
		"time":   ts.String(),
	}).Debug("RTC state")

	if !stable || !valid {
		return types.Timestamp{}, false
	}
	if err := ts.Validate(); err != nil {
		logrus.Warnf("RTC reports an unusable time %s: %v", ts, err)
		return types.Timestamp{}, false
	}
	return ts, true
}

func (r *Resolver) fromHint() (types.Timestamp, bool) {
	if r.Mode != display.LunarCalendar || r.Storage == nil || !r.Storage.Present() {
		return types.Timestamp{}, false
	}

	path := r.HintPath
	if path == "" {
		path = DefaultHintPath
	}

	b, err := r.Storage.ReadTextFile(path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logrus.Infof("no date hint %s on card", path)
		} else {
			logrus.Errorf("reading date hint %s failed: %v", path, err)
		}
		return types.Timestamp{}, false
	}

	ts, err := ParseDateHint(b)
	if err != nil {
		logrus.Warnf("ignoring date hint %s: %v", path, err)
		return types.Timestamp{}, false
	}

	logrus.WithField("date", ts.String()).Info("using date hint")
	return ts, true
}

// Apply resets the RTC and sets it to res, making it the only source of
// truth from here on.
func Apply(clock rtc.Clock, res Result) error {
	if err := clock.Init(); err != nil {
		return pkgerrors.Wrap(err, "failed to initialise RTC")
	}
	if err := clock.SetTime(res.Time); err != nil {
		return pkgerrors.Wrapf(err, "failed to set RTC to %s", res.Time)
	}

	logrus.WithFields(logrus.Fields{
		"time":   res.Time.String(),
		"source": res.Source,
	}).Info("boot time applied")

	return nil
}
