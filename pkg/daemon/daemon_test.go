package daemon

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charlie0129/moonframe/pkg/config"
	"github.com/charlie0129/moonframe/pkg/power"
)

func TestReadConsole(t *testing.T) {
	ch := readConsole(strings.NewReader("getdate\nhelp\n"))

	var got bytes.Buffer
	for b := range ch {
		got.Write(b)
	}
	if got.String() != "getdate\nhelp\n" {
		t.Fatalf("unexpected console data %q", got.String())
	}
}

func TestOpenConsoleDisabled(t *testing.T) {
	in, out, closer, err := openConsole("")
	if err != nil {
		t.Fatalf("openConsole returned error: %v", err)
	}
	defer closer()
	if in != nil || out != nil {
		t.Fatalf("expected no console")
	}
}

func TestOpenConsoleMissingDevice(t *testing.T) {
	if _, _, _, err := openConsole(filepath.Join(t.TempDir(), "ttyNope")); err == nil {
		t.Fatalf("expected an error for a missing device")
	}
}

func TestSetupHardwareHostBoard(t *testing.T) {
	dir := t.TempDir()

	conf := config.Default()
	conf.RTCStatePath = filepath.Join(dir, "state", "rtc.json")
	conf.CardRoot = filepath.Join(dir, "no-card")
	conf.FixedVoltage = 3.9

	hw, err := setupHardware(conf)
	if err != nil {
		t.Fatalf("setupHardware returned error: %v", err)
	}

	if _, ok := hw.Board.(*power.HostBoard); !ok {
		t.Fatalf("expected a host board, got %T", hw.Board)
	}
	if v, err := hw.Board.Voltage(); err != nil || v != 3.9 {
		t.Fatalf("unexpected voltage %v, %v", v, err)
	}
	if hw.Card.Present() {
		t.Fatalf("card should be absent")
	}
	if err := hw.Clock.Init(); err != nil {
		t.Fatalf("clock Init returned error: %v", err)
	}
}
