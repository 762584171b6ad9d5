package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/moonframe/pkg/display"
	"github.com/charlie0129/moonframe/pkg/types"
)

// Config is the resolved configuration of the frame. It is built once at
// startup and never modified afterwards.
type Config struct {
	Mode              display.Mode
	DefaultBootTime   types.Timestamp
	LowPowerThreshold float64
	CardRoot          string
	DateHintFile      string
	RTCStatePath      string
	CommandBufferSize int
	PollInterval      time.Duration
	WatchdogTimeout   time.Duration
	// RefreshOnAlarm redraws the panel when the daily alarm fires while the
	// frame stays powered.
	RefreshOnAlarm bool
	// CommandInput is the serial device commands are read from. "-" reads
	// stdin and "" disables the console.
	CommandInput       string
	AllowNonRootAccess bool
	// GPIO selects the GPIO board when non-nil.
	GPIO *GPIOConfig
	// FixedVoltage overrides the voltage reading of the host board when
	// positive.
	FixedVoltage float64
}

// GPIOConfig names the pins of the GPIO board.
type GPIOConfig struct {
	VBUS        string `json:"vbus" yaml:"vbus"`
	ChargeState string `json:"chargeState" yaml:"chargeState"`
	Key         string `json:"key" yaml:"key"`
	PowerHold   string `json:"powerHold,omitempty" yaml:"powerHold,omitempty"`
	LED         string `json:"led,omitempty" yaml:"led,omitempty"`
	// ADC is the IIO raw channel file of the battery divider. The OS
	// battery driver is used when empty.
	ADC         string `json:"adc,omitempty" yaml:"adc,omitempty"`
}

func (g GPIOConfig) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.VBUS, validation.Required),
		validation.Field(&g.ChargeState, validation.Required),
		validation.Field(&g.Key, validation.Required),
	)
}

func modes() []interface{} {
	var ms []interface{}
	for _, m := range display.Modes() {
		ms = append(ms, m)
	}
	return ms
}

// Validate checks the resolved values.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(modes()...)),
		validation.Field(&c.DefaultBootTime),
		validation.Field(&c.LowPowerThreshold, validation.Required, validation.Min(0.0), validation.Max(5.0)),
		validation.Field(&c.DateHintFile, validation.Required),
		validation.Field(&c.RTCStatePath, validation.Required),
		validation.Field(&c.CommandBufferSize, validation.Required, validation.Min(16), validation.Max(4096)),
		validation.Field(&c.PollInterval, validation.Required, validation.Min(10*time.Millisecond), validation.Max(10*time.Second)),
		validation.Field(&c.WatchdogTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.GPIO),
		validation.Field(&c.FixedVoltage, validation.Min(0.0)),
	)
}

func (c *Config) LogrusFields() logrus.Fields {
	return logrus.Fields{
		"mode":               c.Mode,
		"defaultBootTime":    c.DefaultBootTime.String(),
		"lowPowerThreshold":  c.LowPowerThreshold,
		"cardRoot":           c.CardRoot,
		"dateHintFile":       c.DateHintFile,
		"rtcStatePath":       c.RTCStatePath,
		"commandBufferSize":  c.CommandBufferSize,
		"pollInterval":       c.PollInterval,
		"watchdogTimeout":    c.WatchdogTimeout,
		"refreshOnAlarm":     c.RefreshOnAlarm,
		"commandInput":       c.CommandInput,
		"allowNonRootAccess": c.AllowNonRootAccess,
		"gpio":               c.GPIO != nil,
		"fixedVoltage":       c.FixedVoltage,
	}
}
