package utils

import (
	"fmt"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	MonthLayout    = "2006-01"
	ClockLayout    = "15:04"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// Calendar dates are carried as time.Time at 00:00 UTC, the same shape pgx
// returns for DATE columns.

func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// DateOf returns the calendar date of t as seen in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func MonthStart(d time.Time) time.Time {
	y, m, _ := d.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func NextMonthStart(d time.Time) time.Time {
	return MonthStart(d).AddDate(0, 1, 0)
}

func ParseMonth(s string) (time.Time, error) {
	m, err := time.Parse(MonthLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	return m, nil
}

// ISOWeekday maps Monday..Sunday to 1..7.
func ISOWeekday(d time.Time) int {
	wd := int(d.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// Occurrences lists every date in [from, to] that falls on weekday (1..7).
func Occurrences(from, to time.Time, weekday int) []time.Time {
	from, to = DateOf(from), DateOf(to)
	if to.Before(from) || weekday < 1 || weekday > 7 {
		return nil
	}
	shift := (weekday - ISOWeekday(from) + 7) % 7
	var out []time.Time
	for d := from.AddDate(0, 0, shift); !d.After(to); d = d.AddDate(0, 0, 7) {
		out = append(out, d)
	}
	return out
}

// DaysInclusive counts the calendar days in [from, to].
func DaysInclusive(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours()/24) + 1
}

// StartsAt combines a calendar date and an "HH:MM" clock in loc.
func StartsAt(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	c, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid clock %q, expected HH:MM", clock)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, loc), nil
}
