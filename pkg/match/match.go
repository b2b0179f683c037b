// Package match narrows extracted availability down to what the user asked for.
package match

import (
	"errors"
	"fmt"

	"github.com/testovak/testovak/pkg/dates"
	"github.com/testovak/testovak/pkg/exam"
)

const (
	DefaultToleranceDays = 2
	// DefaultDisplayLimit caps how many nearby dates are shown per pass.
	DefaultDisplayLimit = 3
)

// Window is the date and clock range a search targets. An empty EndDate means
// the single day StartDate.
type Window struct {
	StartDate string
	EndDate   string
	StartTime string
	EndTime   string
}

// LastDate returns EndDate, or StartDate for single-day windows.
func (w Window) LastDate() string {
	if w.EndDate == "" {
		return w.StartDate
	}
	return w.EndDate
}

// Validate checks formats and ordering of the window bounds.
func (w Window) Validate() error {
	start, err := dates.Parse(w.StartDate)
	if err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	if w.EndDate != "" {
		end, err := dates.Parse(w.EndDate)
		if err != nil {
			return fmt.Errorf("end date: %w", err)
		}
		if end.Before(start) {
			return errors.New("end date is before start date")
		}
	}
	sh, sm, err := dates.ParseClock(w.StartTime)
	if err != nil {
		return fmt.Errorf("start time: %w", err)
	}
	eh, em, err := dates.ParseClock(w.EndTime)
	if err != nil {
		return fmt.Errorf("end time: %w", err)
	}
	if eh*60+em < sh*60+sm {
		return errors.New("end time is before start time")
	}
	return nil
}

// FilterDatesInRange keeps the dates inside [start-tolerance, end+tolerance]
// in source order, returning at most limit entries. limit <= 0 disables the
// cap. Dates that fail to parse are dropped.
func FilterDatesInRange(available []exam.AvailableDate, start, end string, toleranceDays, limit int) []exam.AvailableDate {
	startDay, err := dates.Parse(start)
	if err != nil {
		return nil
	}
	endDay := startDay
	if end != "" {
		if endDay, err = dates.Parse(end); err != nil {
			return nil
		}
	}
	rangeStart, rangeEnd := dates.ExtendRange(startDay, endDay, toleranceDays)

	var out []exam.AvailableDate
	for _, d := range available {
		if limit > 0 && len(out) >= limit {
			break
		}
		day, err := dates.Parse(d.ParsedDate)
		if err != nil {
			continue
		}
		if day.Before(rangeStart) || day.After(rangeEnd) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// FindExactMatch returns the first date inside the unextended [start, end].
func FindExactMatch(available []exam.AvailableDate, start, end string) (exam.AvailableDate, bool) {
	for _, d := range available {
		if InDateRange(d.ParsedDate, start, end) {
			return d, true
		}
	}
	return exam.AvailableDate{}, false
}

// InDateRange reports whether day is >= start and, when end is set, <= end.
func InDateRange(day, start, end string) bool {
	d, err := dates.Parse(day)
	if err != nil {
		return false
	}
	s, err := dates.Parse(start)
	if err != nil || d.Before(s) {
		return false
	}
	if end == "" {
		return true
	}
	e, err := dates.Parse(end)
	if err != nil {
		return false
	}
	return !d.After(e)
}

// SlotInWindow reports whether the slot's clock time lies within
// [startTime, endTime] on the slot's own day, inclusive on both ends.
func SlotInWindow(slot exam.TimeSlot, startTime, endTime string) bool {
	from, err := dates.AtClock(slot.DateTime, startTime)
	if err != nil {
		return false
	}
	to, err := dates.AtClock(slot.DateTime, endTime)
	if err != nil {
		return false
	}
	return !slot.DateTime.Before(from) && !slot.DateTime.After(to)
}

// FirstMatch scans fetched dates in order and returns the first slot whose day
// lies in the strict date range and whose clock time is inside the window.
func FirstMatch(fetched []exam.DateSlots, w Window) (exam.TimeSlot, bool) {
	for _, ds := range fetched {
		for _, s := range ds.Slots {
			if !InDateRange(s.Day(), w.StartDate, w.EndDate) {
				continue
			}
			if SlotInWindow(s, w.StartTime, w.EndTime) {
				return s, true
			}
		}
	}
	return exam.TimeSlot{}, false
}
