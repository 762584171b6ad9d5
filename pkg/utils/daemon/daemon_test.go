package daemon

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func fakeSystemctl(t *testing.T, fail string) *[]string {
	t.Helper()

	var calls []string
	orig := systemctl
	systemctl = func(args ...string) error {
		call := strings.Join(args, " ")
		calls = append(calls, call)
		if call == fail {
			return errors.New("exit status 1")
		}
		return nil
	}
	t.Cleanup(func() { systemctl = orig })
	return &calls
}

func useUnitPath(t *testing.T) string {
	t.Helper()

	orig := unitPath
	unitPath = filepath.Join(t.TempDir(), "system", serviceName)
	t.Cleanup(func() { unitPath = orig })
	return unitPath
}

func TestUnitFile(t *testing.T) {
	unit := UnitFile("/usr/local/bin/moonframe")
	if !strings.Contains(unit, "ExecStart=/usr/local/bin/moonframe daemon") {
		t.Fatalf("unexpected unit:\n%s", unit)
	}
	if strings.Contains(unit, "/path/to/moonframe") {
		t.Fatalf("placeholder left in unit")
	}
}

func TestInstallUninstall(t *testing.T) {
	path := useUnitPath(t)
	calls := fakeSystemctl(t, "")

	if err := installUnit(UnitFile("/opt/moonframe")); err != nil {
		t.Fatalf("installUnit returned error: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unit not written: %v", err)
	}
	if !strings.Contains(string(b), "/opt/moonframe daemon") {
		t.Fatalf("unexpected unit:\n%s", b)
	}

	if err := Uninstall(); err != nil {
		t.Fatalf("Uninstall returned error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("unit should be removed, stat: %v", err)
	}

	want := []string{
		"daemon-reload",
		"enable --now " + serviceName,
		"disable --now " + serviceName,
		"daemon-reload",
	}
	if !slices.Equal(*calls, want) {
		t.Fatalf("expected calls %v, got %v", want, *calls)
	}
}

func TestUninstallFailure(t *testing.T) {
	useUnitPath(t)
	fakeSystemctl(t, "disable --now "+serviceName)

	if err := Uninstall(); err == nil {
		t.Fatalf("expected an error")
	}
}
