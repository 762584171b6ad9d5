package boot

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/moonframe/pkg/display"
	"github.com/charlie0129/moonframe/pkg/rtc"
	"github.com/charlie0129/moonframe/pkg/storage"
	"github.com/charlie0129/moonframe/pkg/types"
)

var hwTime = types.Timestamp{Year: 2024, Month: 3, Day: 9, Hour: 21, Minute: 4, Second: 5}

func cardWith(t *testing.T, files map[string]string) storage.Storage {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/sd", 0755))
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, "/sd/"+name, []byte(content), 0644))
	}
	return storage.NewCardFs(fs, "/sd")
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		clock      *rtc.Mock
		storage    storage.Storage
		mode       display.Mode
		def        types.Timestamp
		wantTime   types.Timestamp
		wantSource Source
	}{
		{
			name:       "hardware wins over hint",
			clock:      rtc.NewMock(hwTime, true, true),
			storage:    cardWith(t, map[string]string{"date.txt": "2025-06-15"}),
			mode:       display.LunarCalendar,
			wantTime:   hwTime,
			wantSource: SourceHardware,
		},
		{
			name:       "unstable clock uses hint",
			clock:      rtc.NewMock(hwTime, false, true),
			storage:    cardWith(t, map[string]string{"date.txt": "2025-06-15\n"}),
			mode:       display.LunarCalendar,
			wantTime:   types.Timestamp{Year: 2025, Month: 6, Day: 15},
			wantSource: SourceHint,
		},
		{
			name:       "lost time uses hint",
			clock:      rtc.NewMock(hwTime, true, false),
			storage:    cardWith(t, map[string]string{"date.txt": "  2026-02-28  "}),
			mode:       display.LunarCalendar,
			wantTime:   types.Timestamp{Year: 2026, Month: 2, Day: 28},
			wantSource: SourceHint,
		},
		{
			name:       "no storage uses default",
			clock:      rtc.NewMock(hwTime, false, false),
			mode:       display.LunarCalendar,
			wantTime:   DefaultTime,
			wantSource: SourceDefault,
		},
		{
			name:       "no card uses default",
			clock:      rtc.NewMock(hwTime, false, false),
			storage:    storage.NewCardFs(afero.NewMemMapFs(), "/missing"),
			mode:       display.LunarCalendar,
			wantTime:   DefaultTime,
			wantSource: SourceDefault,
		},
		{
			name:       "missing hint uses default",
			clock:      rtc.NewMock(hwTime, false, false),
			storage:    cardWith(t, nil),
			mode:       display.LunarCalendar,
			wantTime:   DefaultTime,
			wantSource: SourceDefault,
		},
		{
			name:       "hint ignored in gallery mode",
			clock:      rtc.NewMock(hwTime, false, false),
			storage:    cardWith(t, map[string]string{"date.txt": "2025-06-15"}),
			mode:       display.AutoSortedGallery,
			wantTime:   DefaultTime,
			wantSource: SourceDefault,
		},
		{
			name:       "out of range hint uses configured default",
			clock:      rtc.NewMock(hwTime, false, false),
			storage:    cardWith(t, map[string]string{"date.txt": "2025-13-01"}),
			mode:       display.LunarCalendar,
			def:        types.Timestamp{Year: 2030, Month: 7, Day: 1, Hour: 12},
			wantTime:   types.Timestamp{Year: 2030, Month: 7, Day: 1, Hour: 12},
			wantSource: SourceDefault,
		},
		{
			name:       "garbage hint uses default",
			clock:      rtc.NewMock(hwTime, false, false),
			storage:    cardWith(t, map[string]string{"date.txt": "tomorrow"}),
			mode:       display.LunarCalendar,
			wantTime:   DefaultTime,
			wantSource: SourceDefault,
		},
		{
			name:       "stable clock with out of range reading",
			clock:      rtc.NewMock(types.Timestamp{Year: 1999, Month: 12, Day: 31}, true, true),
			mode:       display.LunarCalendar,
			wantTime:   DefaultTime,
			wantSource: SourceDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Resolver{
				Clock:   tt.clock,
				Storage: tt.storage,
				Mode:    tt.mode,
				Default: tt.def,
			}
			got := r.Resolve()
			assert.Equal(t, tt.wantTime, got.Time)
			assert.Equal(t, tt.wantSource, got.Source)
			// Resolving only reads the clock.
			assert.Empty(t, tt.clock.Calls)
		})
	}
}

func TestResolveClockError(t *testing.T) {
	clock := rtc.NewMock(hwTime, true, true)
	clock.Err = errors.New("i2c timeout")

	got := (&Resolver{Clock: clock, Mode: display.LunarCalendar}).Resolve()
	assert.Equal(t, Result{Time: DefaultTime, Source: SourceDefault}, got)
}

func TestParseDateHint(t *testing.T) {
	ts, err := ParseDateHint([]byte("2025-06-15"))
	require.NoError(t, err)
	assert.Equal(t, types.Timestamp{Year: 2025, Month: 6, Day: 15}, ts)

	_, err = ParseDateHint([]byte("2025/06/15"))
	assert.True(t, errors.Is(err, ErrInvalidHint))

	_, err = ParseDateHint([]byte(""))
	assert.True(t, errors.Is(err, ErrInvalidHint))

	_, err = ParseDateHint([]byte("1999-06-15"))
	var verr *types.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "year", verr.Field)
}

func TestApply(t *testing.T) {
	clock := rtc.NewMock(hwTime, false, false)
	res := Result{Time: types.Timestamp{Year: 2025, Month: 6, Day: 15}, Source: SourceHint}

	require.NoError(t, Apply(clock, res))
	assert.Equal(t, []string{"Init", "SetTime 2025-06-15 00:00:00"}, clock.Calls)

	now, err := clock.GetTime()
	require.NoError(t, err)
	assert.Equal(t, res.Time, now)

	valid, err := clock.HasValidTime()
	require.NoError(t, err)
	assert.True(t, valid)
}
