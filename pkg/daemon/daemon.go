// Package daemon runs the frame: boot sequence, control loop and the
// local HTTP API.
package daemon

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/charlie0129/moonframe/pkg/config"
	"github.com/charlie0129/moonframe/pkg/display"
	"github.com/charlie0129/moonframe/pkg/events"
	"github.com/charlie0129/moonframe/pkg/power"
	"github.com/charlie0129/moonframe/pkg/rtc"
	"github.com/charlie0129/moonframe/pkg/storage"
)

// chargePollInterval is how often the charge state line is sampled.
const chargePollInterval = time.Second

// ErrWatchdog is the exit reason when the control loop stalls.
var ErrWatchdog = errors.New("watchdog expired")

// exit is replaced in tests.
var exit = os.Exit

// setupHardware opens the collaborators described by conf.
func setupHardware(conf *config.Config) (Hardware, error) {
	if err := os.MkdirAll(filepath.Dir(conf.RTCStatePath), 0755); err != nil {
		return Hardware{}, pkgerrors.Wrapf(err, "failed to create directory for %s", conf.RTCStatePath)
	}
	clock, err := rtc.NewFile(conf.RTCStatePath)
	if err != nil {
		return Hardware{}, err
	}

	hw := Hardware{
		Clock:    clock,
		Card:     storage.NewCard(conf.CardRoot),
		Renderer: &display.LogRenderer{},
		LED:      &power.LogLED{},
	}

	host := &power.HostBoard{FixedVoltage: conf.FixedVoltage}
	if conf.GPIO == nil {
		hw.Board = host
		return hw, nil
	}

	sample := host.Voltage
	if conf.GPIO.ADC != "" {
		sample = power.ADCSampler(afero.NewOsFs(), conf.GPIO.ADC)
	}

	board, err := power.NewGPIOBoard(power.GPIOPins{
		VBUS:        conf.GPIO.VBUS,
		ChargeState: conf.GPIO.ChargeState,
		Key:         conf.GPIO.Key,
		PowerHold:   conf.GPIO.PowerHold,
	}, sample)
	if err != nil {
		return Hardware{}, err
	}
	hw.Board = board

	if conf.GPIO.LED != "" {
		led, err := power.NewGPIOLED(conf.GPIO.LED)
		if err != nil {
			return Hardware{}, err
		}
		hw.LED = led
	}

	return hw, nil
}

// openConsole opens the command console named by input. "-" is stdin and
// stdout. It returns nil channels when input is empty.
func openConsole(input string) (<-chan []byte, io.Writer, func(), error) {
	if input == "" {
		return nil, nil, func() {}, nil
	}

	var rw io.ReadWriter
	closer := func() {}
	if input == "-" {
		rw = struct {
			io.Reader
			io.Writer
		}{os.Stdin, os.Stdout}
	} else {
		f, err := os.OpenFile(input, os.O_RDWR, 0)
		if err != nil {
			return nil, nil, nil, pkgerrors.Wrapf(err, "failed to open command console %s", input)
		}
		rw = f
		closer = func() {
			if err := f.Close(); err != nil {
				logrus.Warnf("failed to close %s", input)
			}
		}
	}

	return readConsole(rw), rw, closer, nil
}

// readConsole forwards everything read from r until EOF.
func readConsole(r io.Reader) <-chan []byte {
	ch := make(chan []byte, 16)
	go func() {
		defer close(ch)
		br := bufio.NewReader(r)
		buf := make([]byte, 256)
		for {
			n, err := br.Read(buf)
			if n > 0 {
				b := make([]byte, n)
				copy(b, buf[:n])
				ch <- b
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					logrus.Errorf("reading command console failed: %v", err)
				}
				return
			}
		}
	}()
	return ch
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	f, err := config.NewFile(configPath)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to parse config during startup")
	}
	conf, err := f.Config()
	if err != nil {
		return err
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	hw, err := setupHardware(conf)
	if err != nil {
		return err
	}

	input, console, closeConsole, err := openConsole(conf.CommandInput)
	if err != nil {
		return err
	}
	defer closeConsole()
	hw.Console = console

	hub := events.NewEventHub()
	dev := NewDevice(conf, hw, hub)

	if err := dev.Boot(); err != nil {
		return err
	}

	if !hw.Board.ExternalPower() {
		logrus.Info("running on battery, powering off until the next alarm")
		return hw.Board.PowerOff()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	waker := NewWaker(hw.Clock)
	dev.onClockSet = waker.Recalculate
	waker.Start()
	defer waker.Stop()

	power.ShowChargeState(hw.LED, hw.Board.ChargeState())

	wd := NewWatchdog(conf.WatchdogTimeout, int(time.Minute/conf.PollInterval)+1)
	loop := NewLoop(dev, wd, LoopInputs{
		Console: input,
		Charges: power.WatchChargeState(ctx, hw.Board, chargePollInterval),
		Alarms:  waker.Fired(),
	})

	// SIGUSR1 presses the refresh key of host boards.
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGUSR1)
		defer signal.Stop(sigc)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigc:
				if hb, ok := hw.Board.(*power.HostBoard); ok {
					hb.PressKey()
				} else {
					logrus.Warn("SIGUSR1 ignored: the board has a hardware key")
				}
			}
		}
	}()

	router := setupRoutes(&api{conf: conf, dev: dev, loop: loop, watchdog: wd, hub: hub})
	srv := &http.Server{
		Handler: router,
	}

	// Remove a stale socket left by a crash.
	if err := os.Remove(unixSocketPath); err != nil && !os.IsNotExist(err) {
		return pkgerrors.Wrapf(err, "failed to remove stale socket %s", unixSocketPath)
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		return err
	}

	if conf.AllowNonRootAccess || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			return err
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("http server failed: %v", err)
			cancel()
		}
	}()

	go wd.Run(ctx, func() {
		logrus.Errorf("%v, restarting", ErrWatchdog)
		exit(1)
	})

	loopErr := loop.Run(ctx)

	logrus.Info("shutting down http server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	shutdownCancel()

	if loopErr == nil {
		// External power is gone: the RTC alarm takes over.
		logrus.Info("power off")
		return hw.Board.PowerOff()
	}

	logrus.Info("exiting")
	return nil
}
