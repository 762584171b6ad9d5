package types

import (
	"fmt"
	"time"
)

const (
	MinYear = 2000
	MaxYear = 2099
)

// TimestampLayout is the textual form used by the command channel and the API.
const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp is a wall-clock reading as kept by the RTC. It carries no
// timezone; whenever a time.Time is needed, UTC is used.
type Timestamp struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

// ValidationError reports a Timestamp field outside its accepted range.
type ValidationError struct {
	Field string
	Value int
	Min   int
	Max   int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %d out of range [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}

// Validate checks every field against the range the RTC can hold and
// returns the first violation.
func (t Timestamp) Validate() error {
	checks := []struct {
		field    string
		v        int
		min, max int
	}{
		{"year", t.Year, MinYear, MaxYear},
		{"month", t.Month, 1, 12},
		{"day", t.Day, 1, 31},
		{"hour", t.Hour, 0, 23},
		{"minute", t.Minute, 0, 59},
		{"second", t.Second, 0, 59},
	}
	for _, c := range checks {
		if c.v < c.min || c.v > c.max {
			return &ValidationError{Field: c.field, Value: c.v, Min: c.min, Max: c.max}
		}
	}
	return nil
}

// Date returns t with the time of day zeroed.
func (t Timestamp) Date() Timestamp {
	return Timestamp{Year: t.Year, Month: t.Month, Day: t.Day}
}

// Time converts t to a UTC time.Time. Out-of-range days are normalised the
// way time.Date does it.
func (t Timestamp) Time() time.Time {
	return time.Date(t.Year, time.Month(t.Month), t.Day, t.Hour, t.Minute, t.Second, 0, time.UTC)
}

// Normalize rolls day overflow such as Feb 31 into the following month.
func (t Timestamp) Normalize() Timestamp {
	return FromTime(t.Time())
}

// AddDays returns t moved by n calendar days, rolling months and years.
func (t Timestamp) AddDays(n int) Timestamp {
	return FromTime(t.Time().AddDate(0, 0, n))
}

// Before reports whether t is strictly earlier than u.
func (t Timestamp) Before(u Timestamp) bool {
	return t.Time().Before(u.Time())
}

func (t Timestamp) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second)
}

// FromTime converts tm to a Timestamp using its UTC wall clock.
func FromTime(tm time.Time) Timestamp {
	tm = tm.UTC()
	return Timestamp{
		Year:   tm.Year(),
		Month:  int(tm.Month()),
		Day:    tm.Day(),
		Hour:   tm.Hour(),
		Minute: tm.Minute(),
		Second: tm.Second(),
	}
}

// ParseTimestamp parses "YYYY-MM-DD HH:MM:SS" and validates the result.
func ParseTimestamp(s string) (Timestamp, error) {
	tm, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return Timestamp{}, err
	}
	ts := FromTime(tm)
	if err := ts.Validate(); err != nil {
		return Timestamp{}, err
	}
	return ts, nil
}
