package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Day enumerates the teaching days of the week.
type Day string

const (
	DayMonday    Day = "MONDAY"
	DayTuesday   Day = "TUESDAY"
	DayWednesday Day = "WEDNESDAY"
	DayThursday  Day = "THURSDAY"
	DayFriday    Day = "FRIDAY"
	DaySaturday  Day = "SATURDAY"
)

var dayOrder = map[Day]int{
	DayMonday:    1,
	DayTuesday:   2,
	DayWednesday: 3,
	DayThursday:  4,
	DayFriday:    5,
	DaySaturday:  6,
}

// ParseDay normalises a day name to the canonical enum value.
func ParseDay(raw string) (Day, error) {
	day := Day(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := dayOrder[day]; !ok {
		return "", fmt.Errorf("invalid day %q", raw)
	}
	return day, nil
}

// Order returns the weekday position (Monday = 1) for sorting.
func (d Day) Order() int {
	return dayOrder[d]
}

// ParseClock converts an "HH:MM" 24h clock string to minutes since midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", raw)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock time %q out of range", raw)
	}
	return hours*60 + minutes, nil
}

// TimeInterval is a minute-granularity half-open range [StartMin, EndMin) on a day.
type TimeInterval struct {
	Day      Day
	StartMin int
	EndMin   int
}

// NewTimeInterval parses and validates a day plus clock range.
func NewTimeInterval(day, start, end string) (TimeInterval, error) {
	d, err := ParseDay(day)
	if err != nil {
		return TimeInterval{}, err
	}
	startMin, err := ParseClock(start)
	if err != nil {
		return TimeInterval{}, err
	}
	endMin, err := ParseClock(end)
	if err != nil {
		return TimeInterval{}, err
	}
	if endMin <= startMin {
		return TimeInterval{}, fmt.Errorf("end time %s must be after start time %s", end, start)
	}
	return TimeInterval{Day: d, StartMin: startMin, EndMin: endMin}, nil
}

// Overlaps reports whether two intervals share any minute on the same day.
// Intervals are half-open, so touching boundaries do not overlap.
func (t TimeInterval) Overlaps(other TimeInterval) bool {
	if t.Day != other.Day {
		return false
	}
	return t.StartMin < other.EndMin && t.EndMin > other.StartMin
}
