package power

import (
	"errors"
	"sync"

	"github.com/distatus/battery"
	"github.com/sirupsen/logrus"
)

// ErrNoBattery is returned when the host reports no battery and no fixed
// voltage is configured.
var ErrNoBattery = errors.New("no battery found")

// getBatteries is a test seam.
var getBatteries = battery.GetAll

var _ Board = &HostBoard{}

// HostBoard reads power information from the host's battery driver. It is
// used when the frame software runs on a general purpose board or a
// development machine. The refresh key is simulated with PressKey.
type HostBoard struct {
	// FixedVoltage, when positive, replaces the battery reading.
	FixedVoltage float64

	mu         sync.Mutex
	keyPending bool
	poweredOff bool
}

func (h *HostBoard) first() (*battery.Battery, error) {
	batteries, err := getBatteries()
	for _, b := range batteries {
		if b != nil {
			return b, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return nil, ErrNoBattery
}

func (h *HostBoard) ExternalPower() bool {
	h.mu.Lock()
	off := h.poweredOff
	h.mu.Unlock()
	if off {
		return false
	}

	bat, err := h.first()
	if err != nil {
		// Machines without a battery always run from external power.
		return errors.Is(err, ErrNoBattery)
	}
	return bat.State != battery.Discharging
}

func (h *HostBoard) ChargeState() ChargeState {
	bat, err := h.first()
	if err != nil {
		if errors.Is(err, ErrNoBattery) {
			return Charged
		}
		logrus.Errorf("reading battery state failed: %v", err)
		return ChargeUnknown
	}

	switch bat.State {
	case battery.Charging:
		return Charging
	case battery.Full:
		return Charged
	case battery.Discharging, battery.Empty:
		return Discharging
	default:
		return ChargeUnknown
	}
}

// PressKey simulates one press of the refresh key.
func (h *HostBoard) PressKey() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keyPending = true
}

// KeyPressed reports and consumes a pending key press.
func (h *HostBoard) KeyPressed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	pressed := h.keyPending
	h.keyPending = false
	return pressed
}

func (h *HostBoard) Voltage() (float64, error) {
	if h.FixedVoltage > 0 {
		return h.FixedVoltage, nil
	}

	bat, err := h.first()
	if err != nil {
		return 0, err
	}
	return bat.Voltage, nil
}

// PowerOff marks the board as unpowered. The process is expected to exit
// afterwards.
func (h *HostBoard) PowerOff() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	logrus.Info("host board powered off")
	h.poweredOff = true
	return nil
}
