package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// msPerDay is the number of milliseconds in one calendar day.
const msPerDay = int64(24 * time.Hour / time.Millisecond)

// Date is a calendar day without a time of day or zone.
// The zero value is not a valid date.
type Date struct {
	t time.Time
}

// NewDate constructs a calendar date, normalizing overflowing fields like time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as observed in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD date; RFC 3339 timestamps are reduced to their calendar day.
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Date{}, ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// MustParseDate parses raw and panics on failure. Intended for fixtures.
func MustParseDate(raw string) Date {
	d, err := ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether d is unset.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Time returns the UTC-midnight instant anchoring d.
func (d Date) Time() time.Time {
	return d.t
}

// Year returns the calendar year.
func (d Date) Year() int { return d.t.Year() }

// Month returns the calendar month.
func (d Date) Month() time.Month { return d.t.Month() }

// Day returns the day of month.
func (d Date) Day() int { return d.t.Day() }

// Weekday returns the day of week.
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// String formats d as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// Format formats d with a time layout.
func (d Date) Format(layout string) string {
	return d.t.Format(layout)
}

// Compare returns -1, 0 or +1 when d is before, equal to or after other.
func (d Date) Compare(other Date) int {
	return d.t.Compare(other.t)
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool { return d.t.After(other.t) }

// Equal reports whether d and other are the same calendar day.
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year(), d.Month(), d.Day()+n)
}

// FirstOfMonth returns the first day of d's month shifted by n months.
func (d Date) FirstOfMonth(n int) Date {
	return NewDate(d.Year(), d.Month()+time.Month(n), 1)
}

// LastOfMonth returns the last day of d's month shifted by n months.
func (d Date) LastOfMonth(n int) Date {
	return NewDate(d.Year(), d.Month()+time.Month(n)+1, 0)
}

// DaysInMonth returns the number of days in d's month.
func (d Date) DaysInMonth() int {
	return d.LastOfMonth(0).Day()
}

// DaysBetween returns the whole number of days from a to b (negative when b is before a).
// The delta is taken in milliseconds and rounded so the result is always an integer.
func DaysBetween(a, b Date) int {
	delta := b.t.Sub(a.t).Milliseconds()
	return int(math.Round(float64(delta) / float64(msPerDay)))
}

// MarshalText encodes d as YYYY-MM-DD.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes YYYY-MM-DD; an empty value yields the zero date.
func (d *Date) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
