package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/moonframe/pkg/alarm"
	"github.com/charlie0129/moonframe/pkg/astro"
	"github.com/charlie0129/moonframe/pkg/rtc"
	"github.com/charlie0129/moonframe/pkg/types"
)

// RefreshFunc redraws the panel for now.
type RefreshFunc func(now types.Timestamp) error

// Result is the outcome of one command line.
type Result struct {
	Command Command `json:"command"`
	Message string  `json:"message"`
	Err     error   `json:"-"`
}

// Processor executes command lines against the clock.
type Processor struct {
	Clock rtc.Clock
	// Refresh is called after the clock was set. May be nil.
	Refresh RefreshFunc
	// Out receives one reply per line. May be nil.
	Out io.Writer
}

// Execute parses and runs line. Failures never change any state.
func (p *Processor) Execute(line string) Result {
	logrus.WithField("line", line).Debug("processing command")

	cmd, err := Parse(line)
	res := Result{Command: cmd}
	if err != nil {
		res.Err = err
	} else {
		res.Message, res.Err = p.run(cmd)
	}

	if res.Err != nil {
		res.Message = res.Err.Error()
		logrus.WithField("line", line).Warnf("command failed: %v", res.Err)
	}

	p.reply(res.Message)
	return res
}

func (p *Processor) run(cmd Command) (string, error) {
	switch cmd.Kind {
	case SetTime:
		return p.setTime(cmd.Time)
	case QueryPhase:
		return fmt.Sprintf("Moon phase: %f", astro.Phase(cmd.Time)), nil
	case GetTime:
		now, err := p.Clock.GetTime()
		if err != nil {
			return "", err
		}
		return now.String(), nil
	case Help:
		return "Available commands:\n  " + strings.Join(Usage(), "\n  "), nil
	}
	return "", ErrUnknownCommand
}

func (p *Processor) setTime(ts types.Timestamp) (string, error) {
	ts = ts.Normalize()
	if err := p.Clock.SetTime(ts); err != nil {
		return "", err
	}

	next, err := alarm.ProgramAt(p.Clock, ts)
	if err != nil {
		return "", err
	}

	if p.Refresh != nil {
		if err := p.Refresh(ts); err != nil {
			// The clock is set; a failed redraw is retried on the next wake.
			logrus.Errorf("display refresh failed: %v", err)
		}
	}

	return fmt.Sprintf("time set to %s, next alarm at %s", ts, next), nil
}

func (p *Processor) reply(msg string) {
	if p.Out == nil {
		return
	}
	if _, err := fmt.Fprintln(p.Out, msg); err != nil {
		logrus.Errorf("writing command reply failed: %v", err)
	}
}
