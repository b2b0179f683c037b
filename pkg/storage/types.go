package storage

import "time"

// PassRecord is one completed search pass, kept for history and status output.
type PassRecord struct {
	OccurredAt time.Time

	// Search info
	TestID    string
	StartDate string
	EndDate   string

	// Outcome
	Outcome      string // idle | inactive | exhausted | found | cancelled
	DatesChecked int
	SlotsSeen    int
	FetchErrors  int
	MatchLink    string
}

// PassStats aggregates the pass log per test.
type PassStats struct {
	TestID   string
	Passes   int
	Found    int
	Errors   int
	LastPass time.Time
}
