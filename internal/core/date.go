package core

import (
	"errors"
	"fmt"
	"time"
)

// DateFormat is the wire format for calendar dates.
const DateFormat = "2006-01-02"

// MonthFormat is the wire format for year-month period keys.
const MonthFormat = "2006-01"

// Date is a calendar date with day granularity and no time component.
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate returns a normalized Date for the given year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// Today returns the current date.
func Today() Date { return NewDate(time.Now().Date()) }

// DateOf truncates a time.Time to its calendar date.
func DateOf(t time.Time) Date { return NewDate(t.Date()) }

// ParseDate parses a date in "YYYY-MM-DD" form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) Year() int         { return d.y }
func (d Date) Month() time.Month { return d.m }
func (d Date) Day() int          { return d.d }

// String formats the date as "YYYY-MM-DD".
func (d Date) String() string { return d.time().Format(DateFormat) }

// IsZero reports whether the date is the zero value.
func (d Date) IsZero() bool { return d.y == 0 && d.m == 0 && d.d == 0 }

// Before reports whether d is before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether d is after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// AddDays returns the date shifted by the given number of days.
func (d Date) AddDays(n int) Date { return NewDate(d.y, d.m, d.d+n) }

// In reports whether the date falls within the given month.
func (d Date) In(m Month) bool { return d.y == m.Year && d.m == m.M }

func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// Validate rejects the zero date.
func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MarshalJSON encodes the date as a "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return errors.New("date must be a JSON string")
	}
	parsed, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Month is a year-month period key, the default aggregation granularity.
type Month struct {
	Year int
	M    time.Month
}

// NewMonth returns a normalized Month (month 13 rolls into the next year).
func NewMonth(year int, m time.Month) Month {
	t := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: t.Year(), M: t.Month()}
}

// MonthOf returns the month containing the given date.
func MonthOf(d Date) Month { return Month{Year: d.y, M: d.m} }

// ParseMonth parses a period key in "YYYY-MM" form.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthFormat, s)
	if err != nil {
		return Month{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return Month{Year: t.Year(), M: t.Month()}, nil
}

// String formats the period key as "YYYY-MM".
func (m Month) String() string {
	return time.Date(m.Year, m.M, 1, 0, 0, 0, 0, time.UTC).Format(MonthFormat)
}

// IsZero reports whether the month is the zero value.
func (m Month) IsZero() bool { return m.Year == 0 && m.M == 0 }

// Add returns the month shifted by n months.
func (m Month) Add(n int) Month { return NewMonth(m.Year, m.M+time.Month(n)) }

// Days returns the number of calendar days in the month.
func (m Month) Days() int {
	// Day zero of the next month is the last day of this one.
	return time.Date(m.Year, m.M+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Date returns the given day of the month as a Date.
func (m Month) Date(day int) Date { return NewDate(m.Year, m.M, day) }

// Validate rejects the zero month.
func (m Month) Validate() error {
	if m.IsZero() {
		return ErrInvalidMonth
	}
	return nil
}

// MarshalJSON encodes the month as a "YYYY-MM" string.
func (m Month) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM" string.
func (m *Month) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return errors.New("month must be a JSON string")
	}
	parsed, err := ParseMonth(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
