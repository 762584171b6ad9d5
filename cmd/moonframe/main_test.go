package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charlie0129/moonframe/pkg/types"
)

func TestParseTimestampArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    types.Timestamp
		wantErr bool
	}{
		{name: "date only", args: []string{"2024-01-01"}, want: types.Timestamp{Year: 2024, Month: 1, Day: 1}},
		{name: "date and time", args: []string{"2025-06-15", "08:30:00"}, want: types.Timestamp{Year: 2025, Month: 6, Day: 15, Hour: 8, Minute: 30}},
		{name: "invalid date", args: []string{"2025-02-30"}, wantErr: true},
		{name: "too many", args: []string{"a", "b", "c"}, wantErr: true},
		{name: "none", args: nil, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTimestampArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseTimestampArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Fatalf("parseTimestampArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func run(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--daemon-socket", t.TempDir()+"/none.sock"))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("%v failed: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestPhaseLocal(t *testing.T) {
	out := run(t, "phase", "--local", "2024-01-01")

	for _, want := range []string{"0.655107", "pic/22.bmp", "2024-01-25", "2024-01-11", "Jan 1, 2024 | full: Jan 25 | new: Jan 11"} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
}

func TestCalendar(t *testing.T) {
	out := run(t, "calendar", "--from", "2024-01-01", "-n", "6")

	if got := strings.Count(out, "BEGIN:VEVENT"); got != 6 {
		t.Fatalf("expected 6 events, got %d:\n%s", got, out)
	}
	if !strings.Contains(out, "new-20240111@moonframe") {
		t.Fatalf("first new moon missing:\n%s", out)
	}
}

func TestSendWithoutDaemon(t *testing.T) {
	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"send", "getdate", "--daemon-socket", t.TempDir() + "/none.sock"})

	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an error without a daemon")
	}
}
