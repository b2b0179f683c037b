// Package dates holds the calendar helpers shared by the extractor, the
// matcher and the worker. Calendar dates travel as "YYYY-MM-DD" strings and
// are always interpreted as local wall-clock midnight.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	CalendarLayout = "2006-01-02"
	ClockLayout    = "15:04"
	// PortalLayout is how the portal prints open/close timestamps.
	PortalLayout = "2.1.2006 15:04"
)

// Format converts t to a calendar date string using t's own wall clock.
func Format(t time.Time) string {
	return t.Format(CalendarLayout)
}

// Parse converts a "YYYY-MM-DD" string to local midnight of that day.
func Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(CalendarLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid calendar date %q: %w", s, err)
	}
	return t, nil
}

// Midnight truncates t to the start of its day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Compare orders two calendar date strings: -1 if a < b, 0 if equal, 1 if a > b.
// Strings that are not numeric year-month-day sort before all dates.
func Compare(a, b string) int {
	if a == b {
		return 0
	}
	ay, aok := splitDate(a)
	by, bok := splitDate(b)
	switch {
	case !aok && !bok:
		return strings.Compare(a, b)
	case !aok:
		return -1
	case !bok:
		return 1
	}
	for i := 0; i < 3; i++ {
		switch {
		case ay[i] < by[i]:
			return -1
		case ay[i] > by[i]:
			return 1
		}
	}
	// Same numeric date written differently, e.g. "2024-3-9" vs "2024-03-09".
	return strings.Compare(a, b)
}

func splitDate(s string) ([3]int, bool) {
	var out [3]int
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return out, false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return out, false
		}
		out[i] = n
	}
	return out, true
}

// ExtendRange widens [start, end] by days on both sides. Both bounds are
// normalized to midnight.
func ExtendRange(start, end time.Time, days int) (time.Time, time.Time) {
	return Midnight(start).AddDate(0, 0, -days), Midnight(end).AddDate(0, 0, days)
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// AtClock returns day's date at the given "HH:MM" clock time.
func AtClock(day time.Time, clock string) (time.Time, error) {
	h, m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	y, mo, d := day.Date()
	return time.Date(y, mo, d, h, m, 0, 0, day.Location()), nil
}

// ParsePortalDateTime parses "DD.MM.YYYY HH:MM" in local time. Anything after
// the clock field is ignored.
func ParsePortalDateTime(s string) (time.Time, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return time.Time{}, fmt.Errorf("invalid portal timestamp %q", s)
	}
	t, err := time.ParseInLocation(PortalLayout, fields[0]+" "+fields[1], time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid portal timestamp %q: %w", s, err)
	}
	return t, nil
}

// FormatElapsed renders now-start as "1d 02h 03m 04s". Days and hours are
// omitted while zero.
func FormatElapsed(start, now time.Time) string {
	diff := now.Sub(start)
	if diff < 0 {
		diff = 0
	}
	total := int64(diff / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%02dh", hours))
	}
	parts = append(parts, fmt.Sprintf("%02dm", minutes), fmt.Sprintf("%02ds", seconds))
	return strings.Join(parts, " ")
}

// FormatDisplayDate renders a calendar date as "15 January". Unparseable input
// is returned unchanged.
func FormatDisplayDate(s string) string {
	t, err := Parse(s)
	if err != nil {
		return s
	}
	return t.Format("2 January")
}

// FormatDisplayRange renders the tolerance window around [start, end], e.g.
// "(7 March - 13 March)". An empty end means a single day.
func FormatDisplayRange(start, end string, days int) string {
	if end == "" {
		end = start
	}
	s, err := Parse(start)
	if err != nil {
		return ""
	}
	e, err := Parse(end)
	if err != nil {
		return ""
	}
	from, to := ExtendRange(s, e, days)
	return fmt.Sprintf("(%s - %s)", from.Format("2 January"), to.Format("2 January"))
}

// Normalize rewrites a numeric year-month-day string into zero-padded
// "YYYY-MM-DD", rejecting impossible dates.
func Normalize(s string) (string, bool) {
	p, ok := splitDate(s)
	if !ok {
		return "", false
	}
	t := time.Date(p[0], time.Month(p[1]), p[2], 0, 0, 0, 0, time.Local)
	if t.Year() != p[0] || int(t.Month()) != p[1] || t.Day() != p[2] {
		return "", false
	}
	return Format(t), true
}
