// Package timeexpr parses the human-friendly time expressions accepted by
// --since flags.
package timeexpr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Matches "2h", "30m ago", "3 days ago", "1y".
var durationRegex = regexp.MustCompile(`^(\d+)\s*(y|years?|mo|months?|w|weeks?|d|days?|h|hours?|m|mins?|minutes?)(\s+ago)?$`)

// ParseSince resolves s to an instant at or before now. It accepts relative
// durations ("2w", "3 days ago"), "today", "yesterday", weekdays ("monday",
// "last fri"), dates (2006-01-02), and RFC 3339 timestamps.
func ParseSince(s string, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty time expression")
	}
	input := strings.ToLower(raw)

	switch input {
	case "today":
		return startOfDay(now), nil
	case "yesterday":
		return startOfDay(now).AddDate(0, 0, -1), nil
	}

	if t, ok := lastWeekday(input, now); ok {
		return t, nil
	}

	if m := durationRegex.FindStringSubmatch(input); m != nil {
		value, err := strconv.Atoi(m[1])
		if err != nil || value < 1 {
			return time.Time{}, fmt.Errorf("invalid relative time %q", raw)
		}
		return subtract(now, value, m[2]), nil
	}

	if t, err := time.ParseInLocation("2006-01-02", raw, now.Location()); err == nil {
		if t.After(now) {
			return time.Time{}, fmt.Errorf("time %q is in the future", raw)
		}
		return t, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		if t.After(now) {
			return time.Time{}, fmt.Errorf("time %q is in the future", raw)
		}
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid time expression %q", raw)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// lastWeekday returns the start of the most recent day named by expr,
// today included. "last" skips today.
func lastWeekday(expr string, now time.Time) (time.Time, bool) {
	input := expr
	last := false
	if rest, ok := strings.CutPrefix(input, "last "); ok {
		last = true
		input = strings.TrimSpace(rest)
	}

	weekday, ok := weekdays[input]
	if !ok {
		return time.Time{}, false
	}

	base := startOfDay(now)
	delta := (int(base.Weekday()) - int(weekday) + 7) % 7
	if last && delta == 0 {
		delta = 7
	}
	return base.AddDate(0, 0, -delta), true
}

var weekdays = map[string]time.Weekday{
	"sun":       time.Sunday,
	"sunday":    time.Sunday,
	"mon":       time.Monday,
	"monday":    time.Monday,
	"tue":       time.Tuesday,
	"tues":      time.Tuesday,
	"tuesday":   time.Tuesday,
	"wed":       time.Wednesday,
	"wednesday": time.Wednesday,
	"thu":       time.Thursday,
	"thurs":     time.Thursday,
	"thursday":  time.Thursday,
	"fri":       time.Friday,
	"friday":    time.Friday,
	"sat":       time.Saturday,
	"saturday":  time.Saturday,
}

func subtract(now time.Time, value int, unit string) time.Time {
	switch {
	case unit == "y" || strings.HasPrefix(unit, "year"):
		return now.AddDate(-value, 0, 0)
	case unit == "mo" || strings.HasPrefix(unit, "month"):
		return now.AddDate(0, -value, 0)
	case unit == "w" || strings.HasPrefix(unit, "week"):
		return now.AddDate(0, 0, -7*value)
	case unit == "d" || strings.HasPrefix(unit, "day"):
		return now.AddDate(0, 0, -value)
	case unit == "h" || strings.HasPrefix(unit, "hour"):
		return now.Add(-time.Duration(value) * time.Hour)
	default:
		return now.Add(-time.Duration(value) * time.Minute)
	}
}
