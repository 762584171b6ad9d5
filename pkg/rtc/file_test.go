package rtc

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/moonframe/pkg/types"
)

func fixedNow(tm time.Time) func() time.Time {
	return func() time.Time { return tm }
}

func TestFileMissingStateIsUnstable(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "rtc.json"))
	require.NoError(t, err)

	stable, err := f.IsStable()
	require.NoError(t, err)
	assert.False(t, stable)

	valid, err := f.HasValidTime()
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestFileSetTimeSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rtc.json")
	host := time.Date(2030, 3, 3, 12, 0, 0, 0, time.UTC)

	f, err := NewFile(path)
	require.NoError(t, err)
	f.now = fixedNow(host)

	require.NoError(t, f.Init())
	want := types.Timestamp{Year: 2025, Month: 6, Day: 15, Hour: 8, Minute: 30}
	require.NoError(t, f.SetTime(want))
	require.NoError(t, f.SetAlarm(types.Timestamp{Year: 2025, Month: 6, Day: 16}))

	got, err := f.GetTime()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Reopen one hour of host time later.
	g, err := NewFile(path)
	require.NoError(t, err)
	g.now = fixedNow(host.Add(time.Hour))

	stable, _ := g.IsStable()
	valid, _ := g.HasValidTime()
	assert.True(t, stable)
	assert.True(t, valid)

	got, err = g.GetTime()
	require.NoError(t, err)
	assert.Equal(t, types.Timestamp{Year: 2025, Month: 6, Day: 15, Hour: 9, Minute: 30}, got)

	alarm, err := g.Alarm()
	require.NoError(t, err)
	assert.Equal(t, types.Timestamp{Year: 2025, Month: 6, Day: 16}, alarm)

	require.NoError(t, g.DisableAlarm())
	_, err = g.Alarm()
	assert.True(t, errors.Is(err, ErrNoAlarm))
}

func TestFileRejectsInvalidTime(t *testing.T) {
	f, err := NewFile("")
	require.NoError(t, err)
	assert.Error(t, f.SetTime(types.Timestamp{Year: 2025, Month: 13, Day: 1}))
}

func TestFileCorruptStateIsUnstable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rtc.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	f, err := NewFile(path)
	require.NoError(t, err)
	stable, _ := f.IsStable()
	assert.False(t, stable)
}
