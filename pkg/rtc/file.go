package rtc

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/moonframe/pkg/types"
)

var _ Clock = &File{}

// fileState is what File persists between runs.
type fileState struct {
	// OffsetSeconds is the RTC reading minus the host clock.
	OffsetSeconds int64            `json:"offsetSeconds"`
	Valid         bool             `json:"valid"`
	Alarm         *types.Timestamp `json:"alarm,omitempty"`
	AlarmFlag     bool             `json:"alarmFlag"`
}

// File emulates a battery-backed RTC on top of the host clock. The offset to
// the host clock and the alarm survive restarts in a JSON file. A missing or
// unreadable state file means the backup supply was lost: the clock reports
// itself unstable until Init is called.
type File struct {
	mu       *sync.Mutex
	filepath string
	stable   bool
	s        fileState

	now func() time.Time
}

// NewFile loads the emulated RTC state from path.
func NewFile(path string) (*File, error) {
	f := &File{
		mu:       &sync.Mutex{},
		filepath: path,
		now:      time.Now,
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.WithField("path", path).Debug("rtc state not found, clock is unstable")
			return f, nil
		}
		return nil, pkgerrors.Wrapf(err, "failed to read rtc state %s", path)
	}

	if strings.TrimSpace(string(b)) == "" {
		return f, nil
	}

	if err := json.Unmarshal(b, &f.s); err != nil {
		logrus.WithError(err).Warnf("corrupt rtc state %s, clock is unstable", path)
		f.s = fileState{}
		return f, nil
	}
	f.stable = true

	return f, nil
}

func (f *File) reading() time.Time {
	return f.now().UTC().Add(time.Duration(f.s.OffsetSeconds) * time.Second).Truncate(time.Second)
}

func (f *File) persist() error {
	if f.filepath == "" {
		return nil
	}

	b, err := json.MarshalIndent(f.s, "", "  ")
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to marshal rtc state")
	}
	if err := os.WriteFile(f.filepath, b, 0644); err != nil {
		return pkgerrors.Wrapf(err, "failed to write rtc state %s", f.filepath)
	}
	return nil
}

func (f *File) Init() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.Trace("rtc Init called")

	f.s = fileState{}
	f.stable = true
	return f.persist()
}

func (f *File) GetTime() (types.Timestamp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return types.FromTime(f.reading()), nil
}

func (f *File) SetTime(ts types.Timestamp) error {
	if err := ts.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.Tracef("rtc SetTime called with %s", ts)

	f.s.OffsetSeconds = int64(ts.Time().Sub(f.now().UTC().Truncate(time.Second)) / time.Second)
	f.s.Valid = true
	return f.persist()
}

func (f *File) IsStable() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stable, nil
}

func (f *File) HasValidTime() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stable && f.s.Valid, nil
}

func (f *File) ClearAlarmFlag() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.Trace("rtc ClearAlarmFlag called")

	f.s.AlarmFlag = false
	return f.persist()
}

func (f *File) SetAlarm(ts types.Timestamp) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.Tracef("rtc SetAlarm called with %s", ts)

	f.s.Alarm = &ts
	return f.persist()
}

func (f *File) DisableAlarm() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.Trace("rtc DisableAlarm called")

	f.s.Alarm = nil
	return f.persist()
}

func (f *File) Alarm() (types.Timestamp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.s.Alarm == nil {
		return types.Timestamp{}, ErrNoAlarm
	}
	return *f.s.Alarm, nil
}
