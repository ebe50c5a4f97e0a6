package model

import (
	"fmt"
	"time"
)

// NextOccurrence returns the instant following current for the given cadence.
//
// Days and weeks are calendar days in current's location, so the local
// wall-clock time survives daylight-saving transitions. Months keep the
// day-of-month and clamp to the last day of a shorter target month.
// Calling it with RepeatNone (or any unknown cadence) is a programming
// error and returns ErrInvariantViolation.
func NextOccurrence(current time.Time, cadence Repeat) (time.Time, error) {
	switch cadence {
	case RepeatDaily:
		return current.AddDate(0, 0, 1), nil
	case RepeatWeekly:
		return current.AddDate(0, 0, 7), nil
	case RepeatMonthly:
		return addMonthClamped(current), nil
	default:
		return time.Time{}, fmt.Errorf("%w: no next occurrence for cadence %q", ErrInvariantViolation, cadence)
	}
}

// addMonthClamped moves t one calendar month forward without letting a
// long day-of-month overflow into the month after.
func addMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	targetMonth := month + 1
	if last := daysIn(year, targetMonth, t.Location()); day > last {
		day = last
	}

	// time.Date normalizes month 13 into January of the following year.
	return time.Date(year, targetMonth, day, hour, min, sec, t.Nanosecond(), t.Location())
}

// daysIn reports the number of days in the given month.
func daysIn(year int, month time.Month, loc *time.Location) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 12, 0, 0, 0, loc).Day()
}

// LocalTimeLayout is the stored form of a reminder's wall-clock time of day.
const LocalTimeLayout = "15:04:05"

// LocalTime is a wall-clock time of day, independent of any date or zone.
type LocalTime struct {
	Hour, Minute, Second int
}

// LocalTimeOf returns the wall-clock time of t in t's location.
func LocalTimeOf(t time.Time) LocalTime {
	h, m, s := t.Clock()
	return LocalTime{Hour: h, Minute: m, Second: s}
}

// ParseLocalTime parses a LocalTimeLayout value.
func ParseLocalTime(s string) (LocalTime, error) {
	t, err := time.Parse(LocalTimeLayout, s)
	if err != nil {
		return LocalTime{}, fmt.Errorf("invalid local time %q: %w", s, err)
	}
	return LocalTimeOf(t), nil
}

func (l LocalTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", l.Hour, l.Minute, l.Second)
}

// NextOccurrenceAt is NextOccurrence with the time of day pinned to at.
//
// The next calendar date is derived from current exactly as NextOccurrence
// does, then at is placed on that date in current's location. An occurrence
// that time.Date had to move out of a daylight-saving gap therefore does not
// carry its shifted hour into the following ones.
func NextOccurrenceAt(current time.Time, cadence Repeat, at LocalTime) (time.Time, error) {
	next, err := NextOccurrence(current, cadence)
	if err != nil {
		return time.Time{}, err
	}

	year, month, day := next.Date()
	pinned := time.Date(year, month, day, at.Hour, at.Minute, at.Second, 0, current.Location())
	if !pinned.After(current) {
		return next, nil
	}
	return pinned, nil
}
