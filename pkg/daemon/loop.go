package daemon

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/moonframe/pkg/command"
	"github.com/charlie0129/moonframe/pkg/power"
	"github.com/charlie0129/moonframe/pkg/types"
)

// ErrLoopNotRunning is returned by Submit when the control loop does not
// take the command in time.
var ErrLoopNotRunning = errors.New("control loop is not running")

type commandRequest struct {
	line  string
	reply chan command.Result
}

// Loop is the single goroutine that drives the device while it is on
// external power. Other goroutines reach it only through channels.
type Loop struct {
	dev      *Device
	board    power.Board
	interval time.Duration
	watchdog *Watchdog
	// refreshOnAlarm redraws the panel when the alarm fires.
	refreshOnAlarm bool

	buf      *command.LineBuffer
	input    <-chan []byte
	requests chan commandRequest
	charges  <-chan power.ChargeEvent
	wakes    <-chan types.Timestamp
}

// LoopInputs are the event producers feeding the loop. Nil channels are
// never ready.
type LoopInputs struct {
	// Console carries raw bytes from the serial console.
	Console <-chan []byte
	Charges <-chan power.ChargeEvent
	Alarms  <-chan types.Timestamp
}

func NewLoop(dev *Device, wd *Watchdog, in LoopInputs) *Loop {
	return &Loop{
		dev:            dev,
		board:          dev.hw.Board,
		interval:       dev.conf.PollInterval,
		watchdog:       wd,
		refreshOnAlarm: dev.conf.RefreshOnAlarm,
		buf:            command.NewLineBuffer(dev.conf.CommandBufferSize),
		input:          in.Console,
		requests:       make(chan commandRequest),
		charges:        in.Charges,
		wakes:          in.Alarms,
	}
}

// Submit hands line to the loop and waits for its result.
func (l *Loop) Submit(ctx context.Context, line string) (command.Result, error) {
	req := commandRequest{line: line, reply: make(chan command.Result, 1)}

	select {
	case l.requests <- req:
	case <-ctx.Done():
		return command.Result{}, ErrLoopNotRunning
	}

	select {
	case res := <-req.reply:
		return res, nil
	case <-ctx.Done():
		return command.Result{}, ctx.Err()
	}
}

// Run polls until external power goes away, which returns nil, or ctx is
// cancelled.
func (l *Loop) Run(ctx context.Context) error {
	logrus.WithField("interval", l.interval).Debug("control loop starts")

	for {
		if !l.board.ExternalPower() {
			logrus.Info("external power lost")
			return nil
		}

		l.iterate()
		l.watchdog.Kick()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.interval):
		}
	}
}

// iterate drains every pending event without blocking.
func (l *Loop) iterate() {
	for {
		select {
		case b, ok := <-l.input:
			if !ok {
				logrus.Warn("command console closed")
				l.input = nil
				continue
			}
			for _, line := range l.buf.FeedAll(b) {
				l.dev.Execute(line)
			}
		case req := <-l.requests:
			req.reply <- l.dev.Execute(req.line)
		case ev, ok := <-l.charges:
			if !ok {
				l.charges = nil
				continue
			}
			l.dev.ChargeChanged(ev)
		case at := <-l.wakes:
			logrus.WithField("alarm", at.String()).Debug("alarm event")
			l.dev.Wake(WakeAlarm, l.refreshOnAlarm)
		default:
			if l.board.KeyPressed() {
				l.dev.Wake(WakeKey, true)
			}
			return
		}
	}
}
