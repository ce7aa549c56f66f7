// Package clock turns a tournament's stored schedule (calendar date, local
// time of day, IANA zone) into absolute instants.
package clock

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/prizeplay/internal/errs"
)

const dateLayout = "2006-01-02"

var (
	ErrInvalidTimeFormat = fmt.Errorf("%w: invalid time format, expected H:MM, HH:MM or HH:MM AM/PM", errs.ErrValidation)
	ErrInvalidTimezone   = fmt.Errorf("%w: invalid timezone", errs.ErrValidation)
	ErrInvalidDate       = fmt.Errorf("%w: invalid date, expected YYYY-MM-DD", errs.ErrValidation)
)

var timeOfDayPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?:\s*([AaPp][Mm]))?$`)

// ParseTimeOfDay parses "H:MM", "HH:MM" or "HH:MM AM/PM" into hour and minute (24h).
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	m := timeOfDayPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}

	meridiem := strings.ToUpper(m[3])
	if meridiem == "" {
		if hour > 23 {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
		}
		return hour, minute, nil
	}

	if hour < 1 || hour > 12 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	if hour == 12 {
		hour = 0
	}
	if meridiem == "PM" {
		hour += 12
	}
	return hour, minute, nil
}

// ParseDate accepts YYYY-MM-DD, or an RFC3339 timestamp whose date part is used.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(dateLayout, s); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// LoadLocation resolves an IANA zone name. Empty means UTC.
func LoadLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" || strings.EqualFold(tz, "UTC") {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, tz, err)
	}
	return loc, nil
}

// Resolve returns the absolute start instant, in UTC, of the given schedule.
func Resolve(date, timeOfDay, tz string) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	hour, minute, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	loc, err := LoadLocation(tz)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc).UTC(), nil
}

// ResolveLenient is Resolve for already persisted schedules: when the zone can
// no longer be resolved the local time is read as UTC instead of failing.
func ResolveLenient(date, timeOfDay, tz string) (time.Time, error) {
	start, err := Resolve(date, timeOfDay, tz)
	if err == nil {
		return start, nil
	}
	if !errors.Is(err, ErrInvalidTimezone) {
		return time.Time{}, err
	}
	log.Warn("Timezone could not be resolved, interpreting start time as UTC", "timezone", tz, "error", err)
	return Resolve(date, timeOfDay, "UTC")
}

// End returns start + duration.
func End(start time.Time, durationMillis int64) time.Time {
	return start.Add(time.Duration(durationMillis) * time.Millisecond)
}

// NowIn expresses now in the given zone, falling back to UTC.
func NowIn(tz string, now time.Time) time.Time {
	loc, err := LoadLocation(tz)
	if err != nil {
		log.Debug("Falling back to UTC for display", "timezone", tz, "error", err)
		return now.UTC()
	}
	return now.In(loc)
}
