package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampValidate(t *testing.T) {
	tests := []struct {
		name  string
		ts    Timestamp
		field string
	}{
		{"valid", Timestamp{2025, 6, 15, 8, 30, 0}, ""},
		{"lower bounds", Timestamp{2000, 1, 1, 0, 0, 0}, ""},
		{"upper bounds", Timestamp{2099, 12, 31, 23, 59, 59}, ""},
		{"year too small", Timestamp{1999, 1, 1, 0, 0, 0}, "year"},
		{"year too large", Timestamp{2100, 1, 1, 0, 0, 0}, "year"},
		{"month 13", Timestamp{2025, 13, 1, 0, 0, 0}, "month"},
		{"month 0", Timestamp{2025, 0, 1, 0, 0, 0}, "month"},
		{"day 32", Timestamp{2025, 1, 32, 0, 0, 0}, "day"},
		{"hour 24", Timestamp{2025, 1, 1, 24, 0, 0}, "hour"},
		{"minute 60", Timestamp{2025, 1, 1, 0, 60, 0}, "minute"},
		{"negative second", Timestamp{2025, 1, 1, 0, 0, -1}, "second"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ts.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestTimestampAddDays(t *testing.T) {
	assert.Equal(t, Timestamp{2025, 1, 1, 23, 59, 59}, Timestamp{2024, 12, 31, 23, 59, 59}.AddDays(1))
	assert.Equal(t, Timestamp{2024, 2, 29, 0, 0, 0}, Timestamp{2024, 2, 28, 0, 0, 0}.AddDays(1))
	assert.Equal(t, Timestamp{2025, 3, 1, 0, 0, 0}, Timestamp{2025, 2, 28, 0, 0, 0}.AddDays(1))
}

func TestTimestampNormalize(t *testing.T) {
	assert.Equal(t, Timestamp{2025, 3, 3, 12, 0, 0}, Timestamp{2025, 2, 31, 12, 0, 0}.Normalize())
	assert.Equal(t, Timestamp{2024, 3, 1, 0, 0, 0}, Timestamp{2024, 2, 30, 0, 0, 0}.Normalize())
	assert.Equal(t, Timestamp{2025, 6, 15, 8, 30, 0}, Timestamp{2025, 6, 15, 8, 30, 0}.Normalize())
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2025-06-15 08:30:00")
	require.NoError(t, err)
	assert.Equal(t, Timestamp{2025, 6, 15, 8, 30, 0}, ts)
	assert.Equal(t, "2025-06-15 08:30:00", ts.String())

	_, err = ParseTimestamp("1999-06-15 08:30:00")
	assert.Error(t, err)

	_, err = ParseTimestamp("2025-06-15")
	assert.Error(t, err)
}
