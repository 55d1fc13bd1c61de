package engine

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar-day granularity (this IS a daily attendance system)
// =============================================================================

// Date is a calendar date with no time-of-day or timezone component.
// The engine never reads the wall clock; every computation receives its
// dates explicitly.
type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.normalize().Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }

// Class returns the weekday class governing which punch sequence and
// expected load apply on this date.
func (d Date) Class() WeekdayClass {
	switch d.Weekday() {
	case time.Saturday:
		return ClassSaturday
	case time.Sunday:
		return ClassSunday
	default:
		return ClassWeekday
	}
}

func (d Date) String() string {
	return d.Time.Format("2006-01-02")
}

func DaysBetween(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// =============================================================================
// MINUTE OF DAY - Minute-precision time-of-day
// =============================================================================

// MinuteOfDay is a time-of-day expressed as minutes since midnight.
// Sub-minute precision is not modeled; all shift times and punch times
// are carried in this form.
type MinuteOfDay int

const MinutesPerDay = 24 * 60

func NewMinuteOfDay(hour, minute int) MinuteOfDay {
	return MinuteOfDay(hour*60 + minute)
}

// ParseMinuteOfDay parses an HH:MM string.
func ParseMinuteOfDay(s string) (MinuteOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return NewMinuteOfDay(t.Hour(), t.Minute()), nil
}

func (m MinuteOfDay) Valid() bool { return m >= 0 && m < MinutesPerDay }
func (m MinuteOfDay) Hour() int   { return int(m) / 60 }
func (m MinuteOfDay) Minute() int { return int(m) % 60 }

func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", m.Hour(), m.Minute())
}

// =============================================================================
// PERIOD - Inclusive date range for reports and aggregation
// =============================================================================

type Period struct {
	Start Date
	End   Date
}

// Contains returns true if the date is within the period [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns all days in the period, in order.
func (p Period) Days() []Date {
	var days []Date
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// Validate rejects inverted ranges.
func (p Period) Validate() error {
	if p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
