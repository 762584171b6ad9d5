package power

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var _ LED = &LogLED{}

// LogLED is an LED for boards without one: it logs the pattern it would
// show and remembers the last one.
type LogLED struct {
	mu   sync.Mutex
	last string
}

func (l *LogLED) show(pattern string) {
	l.mu.Lock()
	l.last = pattern
	l.mu.Unlock()
	logrus.WithField("pattern", pattern).Debug("led")
}

func (l *LogLED) PowerOn()  { l.show("power-on") }
func (l *LogLED) LowPower() { l.show("low-power") }
func (l *LogLED) Charging() { l.show("charging") }
func (l *LogLED) Charged()  { l.show("charged") }

// Last returns the last pattern shown.
func (l *LogLED) Last() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

// ShowChargeState drives led for s. It is a no-op without external power.
func ShowChargeState(led LED, s ChargeState) {
	switch s {
	case Charging:
		led.Charging()
	case Charged:
		led.Charged()
	}
}
