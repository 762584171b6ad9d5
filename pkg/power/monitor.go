package power

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// ChargeEvent is emitted when the charge state changes.
type ChargeEvent struct {
	State ChargeState
	At    time.Time
}

// WatchChargeState polls board every interval and sends an event on each
// change of ChargeState, starting with the current state. The returned
// channel is closed when ctx is done. Slow receivers miss intermediate
// states, never the latest one.
func WatchChargeState(ctx context.Context, board Board, interval time.Duration) <-chan ChargeEvent {
	ch := make(chan ChargeEvent, 1)

	go func() {
		defer close(ch)

		last := ChargeState(-1)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			s := board.ChargeState()
			if s != last {
				logrus.WithFields(logrus.Fields{
					"from": last.String(),
					"to":   s.String(),
				}).Debug("charge state changed")
				last = s

				ev := ChargeEvent{State: s, At: time.Now()}
				select {
				case ch <- ev:
				default:
					// Replace the stale event.
					select {
					case <-ch:
					default:
					}
					ch <- ev
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return ch
}
