// Package rtc defines the real-time clock collaborator and its host-side
// implementations.
package rtc

import (
	"errors"

	"github.com/charlie0129/moonframe/pkg/types"
)

// ErrNoAlarm is returned by Alarm when no alarm is armed.
var ErrNoAlarm = errors.New("no alarm armed")

// Clock is the hardware clock of the frame.
type Clock interface {
	// Init resets the clock chip, leaving it stopped until SetTime.
	Init() error
	GetTime() (types.Timestamp, error)
	SetTime(types.Timestamp) error
	// IsStable reports whether the oscillator has run without interruption.
	IsStable() (bool, error)
	// HasValidTime reports whether the clock has been set since power loss.
	HasValidTime() (bool, error)

	ClearAlarmFlag() error
	// SetAlarm arms the wake alarm without disturbing the running time.
	SetAlarm(types.Timestamp) error
	DisableAlarm() error
	// Alarm returns the armed alarm time, or ErrNoAlarm.
	Alarm() (types.Timestamp, error)
}
