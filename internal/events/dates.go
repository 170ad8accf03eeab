package events

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid date input")

// ParseDate resolves a user-supplied date to local midnight in loc.
// Accepted forms: "today", "tomorrow", "2006-01-02", and a month-day pair
// ("10-01"), which is interpreted in the current year.
func ParseDate(input string, loc *time.Location) (time.Time, error) {
	return parseDateAt(input, loc, time.Now())
}

func parseDateAt(input string, loc *time.Location, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "today":
		return Midnight(now.In(loc)), nil
	case "tomorrow":
		return Midnight(now.In(loc)).AddDate(0, 0, 1), nil
	}
	if t, err := time.ParseInLocation("2006-1-2", input, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("1-2", input, loc); err == nil {
		return time.Date(now.In(loc).Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
	}
	return time.Time{}, ErrInvalidDate
}

// Midnight truncates t to the start of its day, keeping the location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayWindow derives the [start, start+days) window used for "today"-style
// listings and subscription notifications.
func DayWindow(start time.Time, days int) (time.Time, time.Time) {
	return start, start.AddDate(0, 0, days)
}
