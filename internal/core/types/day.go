package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DayLayout is the wire format of calendar days.
const DayLayout = "2006-01-02"

// Day is a calendar day in UTC. The zero value is not a valid day.
//
// All plan keys, sales-history alignment and "is future" checks go through Day,
// so the deployment timezone never shifts a boundary.
type Day struct {
	start time.Time
}

// ParseDay parses YYYY-MM-DD as a UTC calendar day.
func ParseDay(s string) (Day, error) {
	t, err := time.ParseInLocation(DayLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Day{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return Day{start: t}, nil
}

// MustParseDay is ParseDay that panics. Use only for constants and tests.
func MustParseDay(s string) Day {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DayOf returns the UTC calendar day containing t.
func DayOf(t time.Time) Day {
	u := t.UTC()
	return Day{start: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// Start returns midnight UTC of the day.
func (d Day) Start() time.Time { return d.start }

// End returns midnight UTC of the following day (exclusive bound).
func (d Day) End() time.Time { return d.start.AddDate(0, 0, 1) }

// AddDays shifts the day by n calendar days.
func (d Day) AddDays(n int) Day { return Day{start: d.start.AddDate(0, 0, n)} }

// DaysUntil returns the number of whole days from d to other (other - d).
func (d Day) DaysUntil(other Day) int {
	return int(other.start.Sub(d.start).Hours() / 24)
}

func (d Day) Before(other Day) bool { return d.start.Before(other.start) }
func (d Day) After(other Day) bool  { return d.start.After(other.start) }
func (d Day) Equal(other Day) bool  { return d.start.Equal(other.start) }
func (d Day) IsZero() bool          { return d.start.IsZero() }

// Contains reports whether t falls on this UTC day.
func (d Day) Contains(t time.Time) bool {
	return !t.Before(d.start) && t.Before(d.End())
}

func (d Day) String() string { return d.start.Format(DayLayout) }

// MarshalJSON encodes the day as "YYYY-MM-DD".
func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD" or null.
func (d *Day) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
