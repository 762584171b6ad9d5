package daemon

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charlie0129/moonframe/pkg/power"
	"github.com/charlie0129/moonframe/pkg/rtc"
	"github.com/charlie0129/moonframe/pkg/types"
)

func TestLoopExitsOnPowerLoss(t *testing.T) {
	r := newTestRig(t, rtc.NewMock(ts(2024, 1, 1, 0, 0, 0), true, true), nil)
	wd := NewWatchdog(time.Second, 10)
	l := NewLoop(r.dev, wd, LoopInputs{})

	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	if wd.LastKick().IsZero() {
		t.Fatalf("loop should kick the watchdog")
	}
	r.board.setExternal(false)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil on power loss, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not exit")
	}
}

func TestLoopCancelled(t *testing.T) {
	r := newTestRig(t, rtc.NewMock(ts(2024, 1, 1, 0, 0, 0), true, true), nil)
	l := NewLoop(r.dev, NewWatchdog(time.Second, 10), LoopInputs{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLoopSubmit(t *testing.T) {
	r := newTestRig(t, rtc.NewMock(ts(2024, 1, 1, 0, 0, 0), true, true), nil)
	l := NewLoop(r.dev, NewWatchdog(time.Second, 10), LoopInputs{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	sctx, scancel := context.WithTimeout(ctx, 2*time.Second)
	defer scancel()

	res, err := l.Submit(sctx, "getphase 2024-01-01 00:00:00")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if res.Err != nil || res.Message != "Moon phase: 0.655107" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestLoopSubmitNotRunning(t *testing.T) {
	r := newTestRig(t, rtc.NewMock(ts(2024, 1, 1, 0, 0, 0), true, true), nil)
	l := NewLoop(r.dev, NewWatchdog(time.Second, 10), LoopInputs{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := l.Submit(ctx, "getdate"); !errors.Is(err, ErrLoopNotRunning) {
		t.Fatalf("expected ErrLoopNotRunning, got %v", err)
	}
}

func TestLoopConsoleInput(t *testing.T) {
	clock := rtc.NewMock(ts(2024, 1, 1, 0, 0, 0), true, true)
	r := newTestRig(t, clock, map[string]string{})

	console := make(chan []byte, 4)
	l := NewLoop(r.dev, NewWatchdog(time.Second, 10), LoopInputs{Console: console})

	// A command split across reads.
	console <- []byte("setdate 2025-06-")
	console <- []byte("15 08:30:00\r\n")
	close(console)

	l.iterate()

	if clock.Now != ts(2025, 6, 15, 8, 30, 0) {
		t.Fatalf("clock not set: %s", clock.Now)
	}
	if !strings.Contains(r.console.String(), "time set to 2025-06-15 08:30:00") {
		t.Fatalf("unexpected console output %q", r.console.String())
	}
	if l.input != nil {
		t.Fatalf("closed console should be dropped")
	}
}

func TestLoopKeyPress(t *testing.T) {
	clock := rtc.NewMock(ts(2024, 1, 1, 0, 0, 0), true, true)
	r := newTestRig(t, clock, map[string]string{})
	l := NewLoop(r.dev, NewWatchdog(time.Second, 10), LoopInputs{})

	l.iterate()
	if r.renderer.Last() != nil {
		t.Fatalf("nothing should be drawn without a key press")
	}

	r.board.press()
	l.iterate()

	last := r.renderer.Last()
	if last == nil || last.Path != "pic/22.bmp" {
		t.Fatalf("expected a redraw of pic/22.bmp, got %+v", last)
	}
	if clock.AlarmAt == nil || *clock.AlarmAt != ts(2024, 1, 2, 0, 0, 0) {
		t.Fatalf("unexpected alarm: %v", clock.AlarmAt)
	}
}

func TestLoopChargeEvents(t *testing.T) {
	r := newTestRig(t, rtc.NewMock(ts(2024, 1, 1, 0, 0, 0), true, true), nil)

	charges := make(chan power.ChargeEvent, 2)
	l := NewLoop(r.dev, NewWatchdog(time.Second, 10), LoopInputs{Charges: charges})

	charges <- power.ChargeEvent{State: power.Charging, At: time.Now()}
	charges <- power.ChargeEvent{State: power.Charged, At: time.Now()}
	l.iterate()

	if got := r.led.Last(); got != "charged" {
		t.Fatalf("expected charged LED, got %q", got)
	}
}

func TestLoopAlarm(t *testing.T) {
	tests := []struct {
		name    string
		refresh bool
	}{
		{name: "redraw on alarm", refresh: true},
		{name: "alarm without redraw", refresh: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := rtc.NewMock(ts(2024, 1, 2, 0, 0, 0), true, true)
			r := newTestRig(t, clock, map[string]string{})
			r.conf.RefreshOnAlarm = tt.refresh

			alarms := make(chan types.Timestamp, 1)
			l := NewLoop(r.dev, NewWatchdog(time.Second, 10), LoopInputs{Alarms: alarms})

			alarms <- ts(2024, 1, 2, 0, 0, 0)
			l.iterate()

			if clock.AlarmAt == nil || *clock.AlarmAt != ts(2024, 1, 3, 0, 0, 0) {
				t.Fatalf("unexpected alarm: %v", clock.AlarmAt)
			}
			if drawn := r.renderer.Last() != nil; drawn != tt.refresh {
				t.Fatalf("expected drawn=%v, got %v", tt.refresh, drawn)
			}
		})
	}
}
