package power

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIOPins names the board pins, as understood by gpioreg.ByName.
type GPIOPins struct {
	// VBUS is high while USB power is present.
	VBUS string
	// ChargeState is low while the charger is charging.
	ChargeState string
	// Key is low while the refresh key is held.
	Key string
	// PowerHold keeps the battery switch closed while high.
	PowerHold string
}

var _ Board = &GPIOBoard{}

// GPIOBoard reads the frame's power and input lines through periph.io.
type GPIOBoard struct {
	vbus   gpio.PinIO
	charge gpio.PinIO
	key    gpio.PinIO
	hold   gpio.PinIO

	// Sample returns the battery voltage. GPIO boards have no ADC of their
	// own, so the caller supplies one.
	Sample func() (float64, error)
}

func lookupPin(name, role string) (gpio.PinIO, error) {
	if name == "" {
		return nil, nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio pin %q for %s not found", name, role)
	}
	return p, nil
}

// NewGPIOBoard initialises periph.io and configures the input pins.
func NewGPIOBoard(pins GPIOPins, sample func() (float64, error)) (*GPIOBoard, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialise periph host: %w", err)
	}

	b := &GPIOBoard{Sample: sample}
	var err error
	if b.vbus, err = lookupPin(pins.VBUS, "vbus"); err != nil {
		return nil, err
	}
	if b.charge, err = lookupPin(pins.ChargeState, "charge state"); err != nil {
		return nil, err
	}
	if b.key, err = lookupPin(pins.Key, "key"); err != nil {
		return nil, err
	}
	if b.hold, err = lookupPin(pins.PowerHold, "power hold"); err != nil {
		return nil, err
	}

	for _, p := range []gpio.PinIO{b.vbus, b.charge, b.key} {
		if p == nil {
			continue
		}
		if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("failed to configure %s as input: %w", p.Name(), err)
		}
	}
	if b.hold != nil {
		if err := b.hold.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("failed to latch power hold %s: %w", b.hold.Name(), err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"vbus":   pins.VBUS,
		"charge": pins.ChargeState,
		"key":    pins.Key,
		"hold":   pins.PowerHold,
	}).Info("gpio board initialised")

	return b, nil
}

func (b *GPIOBoard) ExternalPower() bool {
	if b.vbus == nil {
		return false
	}
	return b.vbus.Read() == gpio.High
}

func (b *GPIOBoard) ChargeState() ChargeState {
	if !b.ExternalPower() {
		return Discharging
	}
	if b.charge == nil {
		return ChargeUnknown
	}
	if b.charge.Read() == gpio.Low {
		return Charging
	}
	return Charged
}

func (b *GPIOBoard) KeyPressed() bool {
	if b.key == nil {
		return false
	}
	return b.key.Read() == gpio.Low
}

func (b *GPIOBoard) Voltage() (float64, error) {
	if b.Sample == nil {
		return 0, ErrNoBattery
	}
	return b.Sample()
}

func (b *GPIOBoard) PowerOff() error {
	if b.hold == nil {
		return fmt.Errorf("no power hold pin configured")
	}
	logrus.Info("releasing power hold")
	return b.hold.Out(gpio.Low)
}

var _ LED = &GPIOLED{}

// GPIOLED drives a single status LED.
type GPIOLED struct {
	pin gpio.PinIO
}

// NewGPIOLED looks up the LED pin. host.Init must have been called.
func NewGPIOLED(name string) (*GPIOLED, error) {
	p, err := lookupPin(name, "led")
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("no led pin configured")
	}
	return &GPIOLED{pin: p}, nil
}

func (l *GPIOLED) set(level gpio.Level) {
	if err := l.pin.Out(level); err != nil {
		logrus.Errorf("setting led %s failed: %v", l.pin.Name(), err)
	}
}

func (l *GPIOLED) blink(times int, period time.Duration) {
	for i := 0; i < times; i++ {
		l.set(gpio.High)
		time.Sleep(period / 2)
		l.set(gpio.Low)
		time.Sleep(period / 2)
	}
}

func (l *GPIOLED) PowerOn()  { l.blink(1, 400*time.Millisecond) }
func (l *GPIOLED) LowPower() { l.blink(5, 200*time.Millisecond) }
func (l *GPIOLED) Charging() { l.set(gpio.High) }
func (l *GPIOLED) Charged()  { l.set(gpio.Low) }
