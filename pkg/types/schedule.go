package types

import (
	"strings"
	"time"

	"catsort/internal/errors"
)

// ScheduleType is the recurrence unit of a Schedule.
type ScheduleType string

const (
	Second ScheduleType = "SECOND"
	Minute ScheduleType = "MINUTE"
	Hour   ScheduleType = "HOUR"
	Day    ScheduleType = "DAY"
	Week   ScheduleType = "WEEK"
	Month  ScheduleType = "MONTH"
	Year   ScheduleType = "YEAR"
)

// ScheduleTypes lists the recurrence units in ascending order.
var ScheduleTypes = []ScheduleType{Second, Minute, Hour, Day, Week, Month, Year}

// ParseScheduleType accepts any casing of a recurrence unit.
func ParseScheduleType(s string) (ScheduleType, error) {
	t := ScheduleType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range ScheduleTypes {
		if t == known {
			return t, nil
		}
	}
	return "", errors.InvalidConfigf("schedule.type", "unknown schedule type %q", s)
}

// NeedsTime reports whether the unit fires at a time of day.
func (t ScheduleType) NeedsTime() bool {
	switch t {
	case Day, Week, Month, Year:
		return true
	}
	return false
}

// NeedsDay reports whether the unit fires on a day of the month.
func (t ScheduleType) NeedsDay() bool {
	return t == Month || t == Year
}

// Schedule describes when the scheduler re-runs a directory.
type Schedule struct {
	Type     ScheduleType `json:"type"`
	Interval int          `json:"interval"`
	Time     string       `json:"time,omitempty"`    // "HH:MM", 24h
	Day      int          `json:"day,omitempty"`     // 1..31, MONTH and YEAR
	Weekday  string       `json:"weekday,omitempty"` // MONDAY..SUNDAY, WEEK
	Month    string       `json:"month,omitempty"`   // JANUARY..DECEMBER, YEAR
	Active   bool         `json:"active"`
}

// DefaultSchedule is attached to configs created without one: hourly, off.
func DefaultSchedule() Schedule {
	return Schedule{Type: Hour, Interval: 1}
}

// Validate normalizes enum spellings in place and checks field combinations.
func (s *Schedule) Validate() error {
	t, err := ParseScheduleType(string(s.Type))
	if err != nil {
		return err
	}
	s.Type = t

	if s.Interval <= 0 {
		return errors.InvalidConfigf("schedule.interval", "interval must be a positive integer, got %d", s.Interval)
	}

	if s.Time != "" || t.NeedsTime() {
		if _, _, err := ParseClock(s.Time); err != nil {
			return err
		}
	}

	if s.Day != 0 || t.NeedsDay() {
		if s.Day < 1 || s.Day > 31 {
			return errors.InvalidConfigf("schedule.day", "day must be in [1,31], got %d", s.Day)
		}
	}

	if s.Weekday != "" {
		wd, err := ParseWeekday(s.Weekday)
		if err != nil {
			return err
		}
		s.Weekday = strings.ToUpper(wd.String())
	}

	if s.Month != "" {
		m, err := ParseMonth(s.Month)
		if err != nil {
			return err
		}
		s.Month = strings.ToUpper(m.String())
	}

	return nil
}

// ParseClock parses a 24-hour "HH:MM" string.
func ParseClock(s string) (hour, minute int, err error) {
	tm, perr := time.Parse("15:04", s)
	if perr != nil || len(s) != 5 {
		return 0, 0, errors.InvalidConfigf("schedule.time", "time %q is not a 24-hour HH:MM value", s)
	}
	return tm.Hour(), tm.Minute(), nil
}

// ParseWeekday accepts full English day names in any casing.
func ParseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(s)) {
			return d, nil
		}
	}
	return 0, errors.InvalidConfigf("schedule.weekday", "unknown weekday %q", s)
}

// ParseMonth accepts full English month names in any casing.
func ParseMonth(s string) (time.Month, error) {
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String(), strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return 0, errors.InvalidConfigf("schedule.month", "unknown month %q", s)
}
