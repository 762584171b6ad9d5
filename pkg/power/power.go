// Package power covers the supply side of the frame: battery voltage,
// external power detection, charge state, the status LED and the power
// switch.
package power

import "fmt"

const (
	// DefaultLowPowerThreshold is the battery voltage below which the frame
	// refuses to boot.
	DefaultLowPowerThreshold = 3.1

	adcReference = 3.3
	adcBits      = 12
	// The battery is measured through a 1/3 divider.
	dividerRatio = 3
)

// ChargeState describes the charger while external power is present.
type ChargeState int

const (
	ChargeUnknown ChargeState = iota
	// Discharging means no external power.
	Discharging
	Charging
	Charged
)

func (s ChargeState) String() string {
	switch s {
	case Discharging:
		return "discharging"
	case Charging:
		return "charging"
	case Charged:
		return "charged"
	default:
		return "unknown"
	}
}

func (s ChargeState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Board is the power and input hardware of the frame.
type Board interface {
	// ExternalPower reports whether USB power is present.
	ExternalPower() bool
	ChargeState() ChargeState
	// KeyPressed reports whether the refresh key is held down.
	KeyPressed() bool
	// Voltage samples the battery voltage.
	Voltage() (float64, error)
	// PowerOff cuts the battery supply. On real hardware it does not return.
	PowerOff() error
}

// LED is the status indicator.
type LED interface {
	PowerOn()
	LowPower()
	Charging()
	Charged()
}

// ADCToVoltage converts a raw 12-bit ADC reading of the divided battery
// voltage to volts.
func ADCToVoltage(raw uint16) float64 {
	return float64(raw) * adcReference / (1 << adcBits) * dividerRatio
}

// IsLow reports whether voltage is below threshold.
func IsLow(voltage, threshold float64) bool {
	return voltage < threshold
}

// FormatVoltage renders a voltage the way the panel footer shows it.
func FormatVoltage(v float64) string {
	return fmt.Sprintf("%.2fV", v)
}
