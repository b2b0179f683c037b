package polling

import (
	"time"

	"github.com/testovak/testovak/pkg/exam"
	"github.com/testovak/testovak/pkg/intent"
)

// State is where a pass ended up.
type State int

const (
	StateIdle      State = iota // no search running
	StateInactive               // listing page has no tests
	StateSearching
	StateFound
	StateExhausted // pass finished without a match
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInactive:
		return "inactive"
	case StateSearching:
		return "searching"
	case StateFound:
		return "found"
	case StateExhausted:
		return "exhausted"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// DisplayInfo holds the strings shown while a search is running.
type DisplayInfo struct {
	Name          string
	DateRange     string
	TimeRange     string
	ExtendedRange string
	Elapsed       string
}

// DateFailure records a date whose slot page could not be fetched.
type DateFailure struct {
	Date exam.AvailableDate
	Err  error
}

// PassResult holds the outcome of a single pass.
type PassResult struct {
	State     State
	StartedAt time.Time
	Intent    intent.SearchIntent
	Test      exam.Test
	Display   DisplayInfo

	Candidates   []exam.AvailableDate // tolerance dates kept for display
	Dates        []exam.DateSlots     // fetched dates, in order, failed ones empty
	DateFailures []DateFailure
	ExactDate    *exam.AvailableDate
	Match        *exam.TimeSlot

	Err error // listing failure or missing test; the pass still completed
}

// SlotsSeen counts the slots fetched during the pass.
func (r *PassResult) SlotsSeen() int {
	n := 0
	for _, d := range r.Dates {
		n += len(d.Slots)
	}
	return n
}

// FetchErrors counts failed fetches, the listing included.
func (r *PassResult) FetchErrors() int {
	n := len(r.DateFailures)
	if r.Err != nil {
		n++
	}
	return n
}
