package scheduler

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidWeekday is returned for labels outside the seven weekday names.
var ErrInvalidWeekday = errors.New("scheduler: day must be a weekday name")

// Weekday is one of the seven canonical day labels.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

// Weekdays lists the labels in Monday-first order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseWeekday matches a label case-insensitively and returns its canonical form.
func ParseWeekday(value string) (Weekday, error) {
	trimmed := strings.TrimSpace(value)
	for _, day := range Weekdays {
		if strings.EqualFold(trimmed, string(day)) {
			return day, nil
		}
	}
	return "", ErrInvalidWeekday
}

// WeekdayOf returns the label for the weekday of t in its own location.
func WeekdayOf(t time.Time) Weekday {
	switch t.Weekday() {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// Index returns the Monday-first position of the day, or -1 for unknown labels.
func (d Weekday) Index() int {
	for i, day := range Weekdays {
		if day == d {
			return i
		}
	}
	return -1
}

// Valid reports whether d is one of the canonical labels.
func (d Weekday) Valid() bool {
	return d.Index() >= 0
}

// Equal compares two labels ignoring case, matching stored rows that predate
// canonical casing.
func (d Weekday) Equal(other Weekday) bool {
	return strings.EqualFold(string(d), string(other))
}

func (d Weekday) String() string {
	return string(d)
}
