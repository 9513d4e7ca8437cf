package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimeOfDay is returned when a value is not a valid HH:MM wall-clock time.
var ErrInvalidTimeOfDay = errors.New("scheduler: time must be in HH:MM format")

// ErrEmptyInterval is returned when an interval does not start before it ends.
var ErrEmptyInterval = errors.New("scheduler: start must be before end")

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
type TimeOfDay int

const minutesPerDay = 24 * 60

// ParseTimeOfDay parses the fixed HH:MM form. Hours run 00-23 and minutes 00-59.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	if len(value) != 5 || value[2] != ':' {
		return 0, ErrInvalidTimeOfDay
	}
	hours, ok := twoDigits(value[0], value[1])
	if !ok || hours > 23 {
		return 0, ErrInvalidTimeOfDay
	}
	minutes, ok := twoDigits(value[3], value[4])
	if !ok || minutes > 59 {
		return 0, ErrInvalidTimeOfDay
	}
	return TimeOfDay(hours*60 + minutes), nil
}

// MustParseTimeOfDay is like ParseTimeOfDay but panics on malformed input.
func MustParseTimeOfDay(value string) TimeOfDay {
	t, err := ParseTimeOfDay(value)
	if err != nil {
		panic(fmt.Sprintf("scheduler: %q: %v", value, err))
	}
	return t
}

// TimeOfDayFromClock truncates t to minute resolution in its own location.
func TimeOfDayFromClock(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

// Valid reports whether the value lies within a single day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < minutesPerDay
}

// String renders the value as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// Interval is a half-open [Start, End) range within one day.
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// NewInterval builds an interval, rejecting empty or inverted ranges.
func NewInterval(start, end TimeOfDay) (Interval, error) {
	if !start.Valid() || !end.Valid() {
		return Interval{}, ErrInvalidTimeOfDay
	}
	if start >= end {
		return Interval{}, ErrEmptyInterval
	}
	return Interval{Start: start, End: end}, nil
}

// ParseInterval parses two HH:MM values into an interval.
func ParseInterval(start, end string) (Interval, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(s, e)
}

// Overlaps reports whether the two intervals share at least one instant.
// Touching endpoints do not overlap, so back-to-back sessions are allowed.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// Contains reports whether t falls inside the interval.
func (i Interval) Contains(t TimeOfDay) bool {
	return i.Start <= t && t < i.End
}

func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}
