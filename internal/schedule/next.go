// Package schedule turns per-directory Schedules into run times and drives
// the engine from them.
package schedule

import (
	"time"

	"catsort/pkg/types"
)

// First returns the first run time strictly after now.
func First(s types.Schedule, now time.Time) (time.Time, error) {
	if err := s.Validate(); err != nil {
		return time.Time{}, err
	}
	if unit, ok := fixedUnit(s.Type); ok {
		return now.Add(time.Duration(s.Interval) * unit), nil
	}

	hour, minute, err := types.ParseClock(s.Time)
	if err != nil {
		return time.Time{}, err
	}
	loc := now.Location()
	y, m, d := now.Date()

	switch s.Type {
	case types.Day:
		next := time.Date(y, m, d, hour, minute, 0, 0, loc)
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next, nil

	case types.Week:
		target := now.Weekday()
		if s.Weekday != "" {
			if target, err = types.ParseWeekday(s.Weekday); err != nil {
				return time.Time{}, err
			}
		}
		offset := (int(target) - int(now.Weekday()) + 7) % 7
		next := time.Date(y, m, d+offset, hour, minute, 0, 0, loc)
		if !next.After(now) {
			next = next.AddDate(0, 0, 7)
		}
		return next, nil

	case types.Month:
		next := monthDay(y, m, s.Day, hour, minute, loc)
		if !next.After(now) {
			next = monthDay(y, m+1, s.Day, hour, minute, loc)
		}
		return next, nil

	case types.Year:
		month, err := yearMonth(s)
		if err != nil {
			return time.Time{}, err
		}
		next := monthDay(y, month, s.Day, hour, minute, loc)
		if !next.After(now) {
			next = monthDay(y+1, month, s.Day, hour, minute, loc)
		}
		return next, nil
	}
	return time.Time{}, nil
}

// After returns the run following prev, which must itself be a run time
// produced by First or After for the same schedule.
func After(s types.Schedule, prev time.Time) time.Time {
	if unit, ok := fixedUnit(s.Type); ok {
		return prev.Add(time.Duration(s.Interval) * unit)
	}
	hour, minute := prev.Hour(), prev.Minute()
	loc := prev.Location()

	switch s.Type {
	case types.Day:
		return prev.AddDate(0, 0, s.Interval)
	case types.Week:
		return prev.AddDate(0, 0, 7*s.Interval)
	case types.Month:
		return monthDay(prev.Year(), prev.Month()+time.Month(s.Interval), s.Day, hour, minute, loc)
	default:
		return monthDay(prev.Year()+s.Interval, prev.Month(), s.Day, hour, minute, loc)
	}
}

func fixedUnit(t types.ScheduleType) (time.Duration, bool) {
	switch t {
	case types.Second:
		return time.Second, true
	case types.Minute:
		return time.Minute, true
	case types.Hour:
		return time.Hour, true
	}
	return 0, false
}

func yearMonth(s types.Schedule) (time.Month, error) {
	if s.Month == "" {
		return time.January, nil
	}
	return types.ParseMonth(s.Month)
}

// monthDay builds day of the given month at hour:minute. month may be out
// of range and is normalized first; day is clamped to the month's length so
// day 31 means the last day in shorter months.
func monthDay(year int, month time.Month, day, hour, minute int, loc *time.Location) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	year, month = first.Year(), first.Month()
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	if day > last {
		day = last
	}
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}
