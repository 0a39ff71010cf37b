package capacity

import (
	"time"

	"github.com/pkg/errors"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// WeekStart returns the Monday, at midnight UTC, of the week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// ParseWeek parses a YYYY-MM-DD date and normalizes it to its week start.
func ParseWeek(value string) (time.Time, error) {
	day, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid date %q", value)
	}
	return WeekStart(day), nil
}

// ResolveWeek returns the week start of week when set, otherwise of now.
func ResolveWeek(week *time.Time, now time.Time) time.Time {
	if week != nil {
		return WeekStart(*week)
	}
	return WeekStart(now)
}

// ISOWeekNumber returns the ISO 8601 week number of the week starting at weekStart.
func ISOWeekNumber(weekStart time.Time) int {
	_, week := weekStart.ISOWeek()
	return week
}
