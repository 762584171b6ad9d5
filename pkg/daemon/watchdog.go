package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Watchdog expects the control loop to kick it at least once per timeout.
// It keeps the recent kick times so that the loop health can be reported.
type Watchdog struct {
	Timeout time.Duration

	MaxRecordCount int
	kicks          []time.Time
	mu             *sync.Mutex
}

func NewWatchdog(timeout time.Duration, maxRecordCount int) *Watchdog {
	return &Watchdog{
		Timeout:        timeout,
		MaxRecordCount: maxRecordCount,
		kicks:          make([]time.Time, 0),
		mu:             &sync.Mutex{},
	}
}

// Kick records a kick at the current time.
func (w *Watchdog) Kick() {
	w.AddRecord(time.Now())
}

// AddRecord records a kick at t.
func (w *Watchdog) AddRecord(t time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Strip monotonic clock reading.
	t = t.Round(0)

	if len(w.kicks) >= w.MaxRecordCount {
		w.kicks = w.kicks[1:]
	}
	w.kicks = append(w.kicks, t)
}

// LastKick returns the time of the last kick, or zero.
func (w *Watchdog) LastKick() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.kicks) == 0 {
		return time.Time{}
	}
	return w.kicks[len(w.kicks)-1]
}

// Expired reports whether no kick happened in the last Timeout before now.
// A watchdog that was never kicked has not expired.
func (w *Watchdog) Expired(now time.Time) bool {
	last := w.LastKick()
	if last.IsZero() {
		return false
	}
	return now.Sub(last) > w.Timeout
}

// KicksIn returns the number of kicks in the last duration.
func (w *Watchdog) KicksIn(last time.Duration) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	count := 0
	for i := len(w.kicks) - 1; i >= 0; i-- {
		if time.Since(w.kicks[i]) > last {
			break
		}
		count++
	}
	return count
}

// Run checks the watchdog until ctx is done and calls onExpire once if it
// expires.
func (w *Watchdog) Run(ctx context.Context, onExpire func()) {
	ticker := time.NewTicker(w.Timeout / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if w.Expired(now) {
				logrus.WithFields(logrus.Fields{
					"lastKick": w.LastKick().Format(time.RFC3339),
					"timeout":  w.Timeout,
				}).Error("watchdog expired")
				onExpire()
				return
			}
		}
	}
}
