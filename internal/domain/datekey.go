package domain

import (
	"regexp"
	"time"
)

// DateLayout is the only accepted input format for a DateKey.
const DateLayout = "2006-01-02"

// dateShapeRe matches exactly four, two, and two digits separated by dashes.
var dateShapeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DateKey is a validated calendar date in YYYY-MM-DD form.
type DateKey struct {
	t time.Time
}

// IsValidCalendarDate reports whether input is a strict YYYY-MM-DD string that
// names a real calendar date, including leap-year handling for February 29.
func IsValidCalendarDate(input string) bool {
	if !dateShapeRe.MatchString(input) {
		return false
	}
	// time.Parse rejects month 13, day 30 in February, Feb 29 in common years.
	_, err := time.Parse(DateLayout, input)
	return err == nil
}

// ParseDateKey validates input and returns the corresponding DateKey.
// It returns ErrInvalidDate when IsValidCalendarDate rejects the input.
func ParseDateKey(input string) (DateKey, error) {
	if !IsValidCalendarDate(input) {
		return DateKey{}, ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, input)
	if err != nil {
		return DateKey{}, ErrInvalidDate
	}
	return DateKey{t: t}, nil
}

// DateKeyOf returns the DateKey for the UTC calendar day containing t.
func DateKeyOf(t time.Time) DateKey {
	u := t.UTC()
	return DateKey{t: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// Today returns the current UTC date according to the package clock.
func Today() DateKey {
	return DateKeyOf(clock.Now())
}

// String returns the key in YYYY-MM-DD form.
func (d DateKey) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// IsZero reports whether d was never assigned a date.
func (d DateKey) IsZero() bool {
	return d.t.IsZero()
}

// Compact returns the key as YYYYMMDD.
func (d DateKey) Compact() string {
	return d.t.Format("20060102")
}

// StartOfDay returns 00:00:00.000 UTC on the date.
func (d DateKey) StartOfDay() time.Time {
	return d.t
}

// EndOfDay returns 23:59:59.999 UTC on the date.
func (d DateKey) EndOfDay() time.Time {
	return d.t.Add(24*time.Hour - time.Millisecond)
}

// Time returns midnight UTC on the date.
func (d DateKey) Time() time.Time {
	return d.t
}

// MarshalText implements encoding.TextMarshaler.
func (d DateKey) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DateKey) UnmarshalText(b []byte) error {
	k, err := ParseDateKey(string(b))
	if err != nil {
		return err
	}
	*d = k
	return nil
}
