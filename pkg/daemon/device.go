package daemon

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/moonframe/pkg/alarm"
	"github.com/charlie0129/moonframe/pkg/boot"
	"github.com/charlie0129/moonframe/pkg/command"
	"github.com/charlie0129/moonframe/pkg/config"
	"github.com/charlie0129/moonframe/pkg/display"
	"github.com/charlie0129/moonframe/pkg/events"
	"github.com/charlie0129/moonframe/pkg/power"
	"github.com/charlie0129/moonframe/pkg/rtc"
	"github.com/charlie0129/moonframe/pkg/storage"
	"github.com/charlie0129/moonframe/pkg/types"
)

// ErrLowPower is returned by Boot when the battery is too low to run. The
// board has been powered off when it is returned.
var ErrLowPower = errors.New("battery voltage below threshold")

// Hardware groups the collaborators of a Device.
type Hardware struct {
	Clock    rtc.Clock
	Card     storage.Storage
	Board    power.Board
	LED      power.LED
	Renderer display.Renderer
	// Console receives command replies. May be nil.
	Console io.Writer
}

// Device is the frame: it owns the boot sequence, display refreshes and
// command execution. All mutating methods are called from the control loop
// goroutine; the getters are safe for concurrent use.
type Device struct {
	conf *config.Config
	hw   Hardware
	hub  *events.EventHub

	selector  *display.Selector
	processor *command.Processor

	// onClockSet is called after the clock or the alarm was reprogrammed.
	onClockSet func()

	mu       sync.RWMutex
	bootRes  boot.Result
	voltage  float64
	lastSeen *types.FrameInfo
}

func NewDevice(conf *config.Config, hw Hardware, hub *events.EventHub) *Device {
	d := &Device{
		conf:     conf,
		hw:       hw,
		hub:      hub,
		selector: &display.Selector{Mode: conf.Mode},
	}
	d.processor = &command.Processor{
		Clock:   hw.Clock,
		Refresh: d.Refresh,
		Out:     hw.Console,
	}
	return d
}

// sampleVoltage reads the battery. ok is false when the reading failed.
func (d *Device) sampleVoltage() (v float64, ok bool) {
	v, err := d.hw.Board.Voltage()
	if err != nil {
		logrus.Errorf("reading battery voltage failed: %v", err)
		return 0, false
	}

	d.mu.Lock()
	d.voltage = v
	d.mu.Unlock()

	logrus.WithField("voltage", power.FormatVoltage(v)).Trace("battery sampled")
	return v, true
}

func (d *Device) shutdownLowPower(v float64) error {
	logrus.WithFields(logrus.Fields{
		"voltage":   power.FormatVoltage(v),
		"threshold": power.FormatVoltage(d.conf.LowPowerThreshold),
	}).Warn("battery low, powering off")

	if err := d.hw.Clock.DisableAlarm(); err != nil {
		logrus.Errorf("disabling alarm failed: %v", err)
	}
	d.hw.LED.LowPower()
	if err := d.hw.Board.PowerOff(); err != nil {
		logrus.Errorf("power off failed: %v", err)
	}
	return ErrLowPower
}

// Boot runs the startup sequence: low power check, boot time resolution,
// first alarm and first refresh.
func (d *Device) Boot() error {
	if v, ok := d.sampleVoltage(); ok && power.IsLow(v, d.conf.LowPowerThreshold) {
		return d.shutdownLowPower(v)
	}
	d.hw.LED.PowerOn()

	d.loadGallery()

	res := (&boot.Resolver{
		Clock:    d.hw.Clock,
		Storage:  d.hw.Card,
		Mode:     d.conf.Mode,
		Default:  d.conf.DefaultBootTime,
		HintPath: d.conf.DateHintFile,
	}).Resolve()

	if err := boot.Apply(d.hw.Clock, res); err != nil {
		logrus.Errorf("applying boot time failed: %v", err)
	}

	d.mu.Lock()
	d.bootRes = res
	d.mu.Unlock()

	next, err := alarm.Program(d.hw.Clock)
	if err != nil {
		logrus.Errorf("programming alarm failed: %v", err)
	}
	d.clockSet(res.Time, next, string(res.Source))

	if err := d.Refresh(res.Time); err != nil {
		logrus.Errorf("display refresh failed: %v", err)
	}

	return nil
}

// loadGallery builds the picture rotation in the gallery modes.
func (d *Device) loadGallery() {
	if !d.conf.Mode.IsGallery() || d.hw.Card == nil || !d.hw.Card.Present() {
		return
	}

	g, err := display.NewGallery(d.hw.Card.Fs(), d.conf.Mode)
	if err != nil {
		logrus.Errorf("loading gallery failed: %v", err)
		return
	}
	d.selector.Files = g
}

func (d *Device) hasCard() bool {
	return d.hw.Card != nil && d.hw.Card.Present()
}

// Refresh redraws the panel for now.
func (d *Device) Refresh(now types.Timestamp) error {
	hasCard := d.hasCard()

	var f display.Frame
	if hasCard {
		var err error
		f, err = d.selector.Select(now)
		if err != nil {
			logrus.Errorf("selecting picture failed, showing built-in picture: %v", err)
			hasCard = false
		}
	}

	v, ok := d.sampleVoltage()
	if !ok {
		v = d.Voltage()
	}

	if err := display.Refresh(d.hw.Renderer, f, v, hasCard); err != nil {
		return err
	}

	info := &types.FrameInfo{
		Builtin: !hasCard,
		Voltage: v,
		At:      now,
	}
	if hasCard {
		info.Path = f.Path
		info.Caption = f.Caption
		info.Index = f.Index
		info.Phase = f.Phase
	}

	d.mu.Lock()
	d.lastSeen = info
	d.mu.Unlock()

	d.hub.Publish(events.DisplayRefresh, events.DisplayRefreshEvent{
		Builtin: info.Builtin,
		Path:    info.Path,
		Caption: info.Caption,
		Phase:   info.Phase,
		Voltage: info.Voltage,
		Ts:      time.Now().Unix(),
	})

	return nil
}

// Wake reasons.
const (
	WakeAlarm = "alarm"
	WakeKey   = "key"
)

// Wake handles a key press or a fired alarm: the next alarm is programmed
// and the panel redrawn. redraw is false for alarms when refreshOnAlarm is
// disabled.
func (d *Device) Wake(reason string, redraw bool) {
	logrus.WithField("reason", reason).Info("wake up")

	now, err := d.hw.Clock.GetTime()
	if err != nil {
		logrus.Errorf("reading RTC failed: %v", err)
		return
	}

	name := events.AlarmFired
	if reason == WakeKey {
		name = events.KeyPressed
	}
	d.hub.Publish(name, events.AlarmFiredEvent{At: now.String(), Ts: time.Now().Unix()})

	next, err := alarm.ProgramAt(d.hw.Clock, now)
	if err != nil {
		logrus.Errorf("programming alarm failed: %v", err)
	} else {
		d.clockSet(now, next, reason)
	}

	if !redraw {
		return
	}
	if err := d.Refresh(now); err != nil {
		logrus.Errorf("display refresh failed: %v", err)
	}
}

// Execute runs one command line.
func (d *Device) Execute(line string) command.Result {
	res := d.processor.Execute(line)

	d.hub.Publish(events.CommandResult, events.CommandResultEvent{
		Line:    line,
		Kind:    string(res.Command.Kind),
		Message: res.Message,
		OK:      res.Err == nil,
		Ts:      time.Now().Unix(),
	})

	if res.Err == nil && res.Command.Kind == command.SetTime {
		next, err := d.hw.Clock.Alarm()
		if err != nil {
			logrus.Errorf("reading alarm failed: %v", err)
		}
		d.clockSet(res.Command.Time, next, "command")
	}

	return res
}

// ChargeChanged drives the LED for a charge state change.
func (d *Device) ChargeChanged(ev power.ChargeEvent) {
	power.ShowChargeState(d.hw.LED, ev.State)

	d.hub.Publish(events.ChargeState, events.ChargeStateEvent{
		State:         ev.State.String(),
		ExternalPower: ev.State != power.Discharging,
		Ts:            ev.At.Unix(),
	})
}

func (d *Device) clockSet(now, next types.Timestamp, source string) {
	d.hub.Publish(events.ClockSet, events.ClockSetEvent{
		Time:   now.String(),
		Alarm:  next.String(),
		Source: source,
		Ts:     time.Now().Unix(),
	})
	if d.onClockSet != nil {
		d.onClockSet()
	}
}

// Voltage returns the last battery reading.
func (d *Device) Voltage() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.voltage
}

// BootResult returns how the boot time was determined.
func (d *Device) BootResult() boot.Result {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.bootRes
}

// Status assembles the current device state.
func (d *Device) Status() types.Status {
	d.mu.RLock()
	res := d.bootRes
	v := d.voltage
	var frame *types.FrameInfo
	if d.lastSeen != nil {
		f := *d.lastSeen
		frame = &f
	}
	d.mu.RUnlock()

	s := types.Status{
		Mode:              string(d.conf.Mode),
		BootTime:          res.Time,
		BootSource:        string(res.Source),
		Voltage:           v,
		LowPowerThreshold: d.conf.LowPowerThreshold,
		ExternalPower:     d.hw.Board.ExternalPower(),
		ChargeState:       d.hw.Board.ChargeState().String(),
		CardPresent:       d.hasCard(),
		Frame:             frame,
	}

	now, err := d.hw.Clock.GetTime()
	if err != nil {
		logrus.Errorf("reading RTC failed: %v", err)
	} else {
		s.Now = now
	}

	at, err := d.hw.Clock.Alarm()
	switch {
	case err == nil:
		s.Alarm = &at
	case !errors.Is(err, rtc.ErrNoAlarm):
		logrus.Errorf("reading alarm failed: %v", err)
	}

	return s
}
