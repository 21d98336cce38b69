package transit

import (
	"fmt"
	"strings"
	"time"
)

const (
	clockLayout    = "15:04"
	dateTimeLayout = "2006-01-02 15:04"

	defaultHour   = 7
	defaultMinute = 30
)

// ParseDeparture turns a departure phrase into an absolute time in now's
// location. Accepted forms: "" and "tomorrow" (tomorrow 07:30),
// "tomorrow HH:MM", "today HH:MM", and "YYYY-MM-DD HH:MM".
func ParseDeparture(text string, now time.Time) (time.Time, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	loc := now.Location()

	if text == "" || text == "tomorrow" {
		return AtClock(now.AddDate(0, 0, 1), defaultHour, defaultMinute), nil
	}

	fields := strings.Fields(text)
	if len(fields) == 2 && (fields[0] == "tomorrow" || fields[0] == "today") {
		clock, err := time.ParseInLocation(clockLayout, fields[1], loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, text)
		}
		day := now
		if fields[0] == "tomorrow" {
			day = now.AddDate(0, 0, 1)
		}
		return AtClock(day, clock.Hour(), clock.Minute()), nil
	}

	t, err := time.ParseInLocation(dateTimeLayout, text, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, text)
	}
	return t, nil
}

// AtClock returns day's date at hour:minute in day's location.
func AtClock(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}
