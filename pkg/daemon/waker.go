package daemon

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/moonframe/pkg/alarm"
	"github.com/charlie0129/moonframe/pkg/rtc"
	"github.com/charlie0129/moonframe/pkg/types"
)

// idleWait is how long the waker sleeps when no alarm is armed.
const idleWait = time.Hour * 10000

// Waker watches the RTC alarm while the frame stays powered and reports
// when it fires. On battery the frame is off and the RTC wakes it instead.
type Waker struct {
	clock rtc.Clock
	fired chan types.Timestamp

	mu      sync.Mutex
	running bool
	next    *types.Timestamp

	controlCh chan controlMsg
	stopCh    chan struct{}
}

// internal control kinds (not user visible events)
type controlKind int

const (
	ctrlRecalculate controlKind = iota // the alarm was reprogrammed
)

type controlMsg struct {
	kind controlKind
}

func NewWaker(clock rtc.Clock) *Waker {
	if clock == nil {
		panic("clock cannot be nil")
	}

	return &Waker{
		clock:     clock,
		fired:     make(chan types.Timestamp, 1),
		controlCh: make(chan controlMsg, 4),
		stopCh:    make(chan struct{}),
	}
}

// Fired delivers the alarm time each time the alarm goes off.
func (w *Waker) Fired() <-chan types.Timestamp {
	return w.fired
}

func (w *Waker) Stop() {
	select {
	case <-w.stopCh: // already closed
	default:
		close(w.stopCh)
	}
}

func (w *Waker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	go w.run()
}

// Recalculate makes the waker re-read the alarm from the RTC.
func (w *Waker) Recalculate() {
	w.trySendControl(ctrlRecalculate)
}

// Status returns the alarm being waited for.
func (w *Waker) Status() (next *types.Timestamp, running bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.next != nil {
		n := *w.next
		next = &n
	}
	running = w.running
	return
}

// wait returns how long to wait for the armed alarm, reading it from the
// RTC.
func (w *Waker) wait() time.Duration {
	at, err := w.clock.Alarm()
	if err != nil {
		if !errors.Is(err, rtc.ErrNoAlarm) {
			logrus.Errorf("reading alarm failed: %v", err)
		}
		w.setNext(nil)
		return idleWait
	}

	now, err := w.clock.GetTime()
	if err != nil {
		logrus.Errorf("reading RTC failed: %v", err)
		w.setNext(nil)
		return idleWait
	}

	w.setNext(&at)

	d := alarm.Until(now, at)
	if d < 0 {
		d = 0
	}
	logrus.WithFields(logrus.Fields{
		"alarm": at.String(),
		"in":    d,
	}).Debug("waiting for alarm")
	return d
}

func (w *Waker) setNext(at *types.Timestamp) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.next = at
}

func (w *Waker) run() {
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		logrus.Debug("waker stopped")
	}()

	logrus.Debug("waker started")

	timer := time.NewTimer(w.wait())
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			next, _ := w.Status()
			if next == nil {
				timer.Reset(w.wait())
				continue
			}

			logrus.WithField("alarm", next.String()).Info("alarm fired")
			select {
			case w.fired <- *next:
			default:
			}
			// Wait for the alarm to be reprogrammed.
			w.setNext(nil)
			timer.Reset(idleWait)
		case <-w.stopCh:
			return
		case msg := <-w.controlCh:
			logrus.WithField("kind", msg.kind).Debug("received control msg")

			switch msg.kind {
			case ctrlRecalculate:
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.wait())
			}
		}
	}
}

func (w *Waker) trySendControl(kind controlKind) {
	select {
	case w.controlCh <- controlMsg{kind: kind}:
	default:
	}
}
