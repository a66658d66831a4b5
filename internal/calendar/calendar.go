// Package calendar is the single source of day boundaries and date keys.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// KeyLayout is the date key format used by the time store.
const KeyLayout = "2006-01-02"

// Calendar maps instants to calendar days in a fixed location.
type Calendar struct {
	loc *time.Location
}

// New returns a Calendar for the named IANA zone. Empty or "Local" selects the
// system zone.
func New(tz string) (Calendar, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" || strings.EqualFold(tz, "local") {
		return Calendar{loc: time.Local}, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Calendar{}, fmt.Errorf("failed to load timezone %q: %w", tz, err)
	}
	return Calendar{loc: loc}, nil
}

// In returns a Calendar for an already loaded location.
func In(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.Local
	}
	return Calendar{loc: loc}
}

// Location returns the calendar's location.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// Key formats the calendar day containing t.
func (c Calendar) Key(t time.Time) string {
	return t.In(c.Location()).Format(KeyLayout)
}

// Today is Key(now).
func (c Calendar) Today(now time.Time) string {
	return c.Key(now)
}

// Parse parses a date key as midnight in the calendar's location.
func (c Calendar) Parse(key string) (time.Time, error) {
	t, err := time.ParseInLocation(KeyLayout, strings.TrimSpace(key), c.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", key, err)
	}
	return t, nil
}

// StartOfDay returns midnight of the day containing t.
func (c Calendar) StartOfDay(t time.Time) time.Time {
	t = t.In(c.Location())
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.Location())
}

// WeekStart returns midnight of the Sunday starting the week containing t.
func (c Calendar) WeekStart(t time.Time) time.Time {
	day := c.StartOfDay(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// Days returns the midnights from start through end inclusive, one per day.
func (c Calendar) Days(start, end time.Time) []time.Time {
	start = c.StartOfDay(start)
	end = c.StartOfDay(end)
	if end.Before(start) {
		return nil
	}
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}
