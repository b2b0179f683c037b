package exam

import "time"

// Test is a bookable exam instance as listed on the portal.
type Test struct {
	Title          string
	ID             string
	Link           string
	OpenFrom       time.Time
	OpenTo         time.Time
	IsAvailable    bool
	AvailableDates []AvailableDate
}

// AvailableDate is one candidate day a test offers. ParsedDate is YYYY-MM-DD
// and Link points at the day's slot page.
type AvailableDate struct {
	ParsedDate string
	Link       string
}

// TimeSlot is a bookable clock time on a specific day.
type TimeSlot struct {
	DateTime time.Time
	Link     string
}

// Day returns the slot's calendar date as YYYY-MM-DD.
func (s TimeSlot) Day() string {
	return s.DateTime.Format("2006-01-02")
}

// DateSlots pairs a candidate date with the slots fetched from its page.
type DateSlots struct {
	Date  AvailableDate
	Slots []TimeSlot
}
