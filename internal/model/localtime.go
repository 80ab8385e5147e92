package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	LocalTimeLayout = "2006-01-02T15:04:05"
	DateLayout      = "2006-01-02"
	ClockLayout     = "15:04"
)

var localTimeInputLayouts = []string{
	LocalTimeLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// LocalTime is a wall-clock timestamp without a zone. Values are normalised
// to UTC and truncated to whole seconds, so equality is plain time equality.
type LocalTime struct {
	time.Time
}

func NewLocalTime(t time.Time) LocalTime {
	return LocalTime{Time: wallClock(t)}
}

// ParseLocalTime accepts "2006-01-02T15:04:05", "2006-01-02T15:04" or RFC 3339.
// RFC 3339 offsets are dropped and the wall clock kept.
func ParseLocalTime(s string) (LocalTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range localTimeInputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewLocalTime(t), nil
		}
	}
	return LocalTime{}, fmt.Errorf("invalid local time %q", s)
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func (t LocalTime) Add(d time.Duration) LocalTime {
	return LocalTime{Time: t.Time.Add(d)}
}

func (t LocalTime) Equal(o LocalTime) bool {
	return t.Time.Equal(o.Time)
}

func (t LocalTime) Before(o LocalTime) bool {
	return t.Time.Before(o.Time)
}

func (t LocalTime) After(o LocalTime) bool {
	return t.Time.After(o.Time)
}

// Date returns the calendar date of t as YYYY-MM-DD.
func (t LocalTime) Date() string {
	return t.Format(DateLayout)
}

func (t LocalTime) String() string {
	return t.Format(LocalTimeLayout)
}

func (t LocalTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(LocalTimeLayout))
}

func (t *LocalTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = LocalTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("local time must be a string: %w", err)
	}
	parsed, err := ParseLocalTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores the wall clock as a timestamp without time zone.
func (t LocalTime) Value() (driver.Value, error) {
	return t.Time, nil
}

func (t *LocalTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*t = NewLocalTime(v)
		return nil
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	case nil:
		*t = LocalTime{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into LocalTime", src)
	}
}

func (t *LocalTime) scanString(s string) error {
	parsed, err := ParseLocalTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
