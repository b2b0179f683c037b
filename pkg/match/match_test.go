package match

import (
	"fmt"
	"testing"
	"time"

	"github.com/testovak/testovak/pkg/dates"
	"github.com/testovak/testovak/pkg/exam"
)

func available(days ...string) []exam.AvailableDate {
	var out []exam.AvailableDate
	for _, d := range days {
		out = append(out, exam.AvailableDate{ParsedDate: d, Link: "https://x.test/day.php?day=" + d})
	}
	return out
}

func slotAt(day string, hour, minute int) exam.TimeSlot {
	d, _ := dates.Parse(day)
	return exam.TimeSlot{
		DateTime: time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.Local),
		Link:     fmt.Sprintf("https://x.test/book.php?day=%s&t=%02d%02d", day, hour, minute),
	}
}

func TestFilterAndExactMatchInsideWindow(t *testing.T) {
	in := available("2024-03-10")

	got := FilterDatesInRange(in, "2024-03-09", "2024-03-11", DefaultToleranceDays, DefaultDisplayLimit)
	if len(got) != 1 || got[0].ParsedDate != "2024-03-10" {
		t.Fatalf("expected the one date, got %#v", got)
	}
	m, ok := FindExactMatch(in, "2024-03-09", "2024-03-11")
	if !ok || m.ParsedDate != "2024-03-10" {
		t.Fatalf("expected exact match on 2024-03-10, got %#v (%t)", m, ok)
	}
}

func TestFilterAndExactMatchOutsideTolerance(t *testing.T) {
	in := available("2024-03-10")

	if got := FilterDatesInRange(in, "2024-03-20", "2024-03-22", DefaultToleranceDays, DefaultDisplayLimit); len(got) != 0 {
		t.Fatalf("expected no dates, got %#v", got)
	}
	if _, ok := FindExactMatch(in, "2024-03-20", "2024-03-22"); ok {
		t.Fatalf("expected no exact match")
	}
}

func TestExactMatchStricterThanFilter(t *testing.T) {
	in := available("2024-03-08", "2024-03-13")

	if got := FilterDatesInRange(in, "2024-03-10", "2024-03-11", DefaultToleranceDays, DefaultDisplayLimit); len(got) != 2 {
		t.Fatalf("expected both dates inside tolerance, got %#v", got)
	}
	if _, ok := FindExactMatch(in, "2024-03-10", "2024-03-11"); ok {
		t.Fatalf("tolerance dates must not count as exact match")
	}
}

func TestFilterBounds(t *testing.T) {
	in := available("2024-03-04", "2024-03-05", "2024-03-06", "2024-03-07", "2024-03-08", "2024-03-09", "2024-03-10", "not-a-date")

	got := FilterDatesInRange(in, "2024-03-07", "", DefaultToleranceDays, 0)
	want := []string{"2024-03-05", "2024-03-06", "2024-03-07", "2024-03-08", "2024-03-09"}
	if len(got) != len(want) {
		t.Fatalf("expected %d dates, got %#v", len(want), got)
	}
	for i := range want {
		if got[i].ParsedDate != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], got[i].ParsedDate)
		}
	}

	capped := FilterDatesInRange(in, "2024-03-07", "", DefaultToleranceDays, DefaultDisplayLimit)
	if len(capped) != 3 || capped[0].ParsedDate != "2024-03-05" || capped[2].ParsedDate != "2024-03-07" {
		t.Fatalf("expected first three in source order, got %#v", capped)
	}
}

func TestFilterNeverExceedsLimitOrWindow(t *testing.T) {
	var days []string
	for d := 1; d <= 28; d++ {
		days = append(days, fmt.Sprintf("2024-02-%02d", d))
	}
	in := available(days...)
	for startDay := 1; startDay <= 28; startDay++ {
		start := fmt.Sprintf("2024-02-%02d", startDay)
		got := FilterDatesInRange(in, start, "", DefaultToleranceDays, DefaultDisplayLimit)
		if len(got) > DefaultDisplayLimit {
			t.Fatalf("start %s: more than %d entries", start, DefaultDisplayLimit)
		}
		s, _ := dates.Parse(start)
		lo, hi := dates.ExtendRange(s, s, DefaultToleranceDays)
		for _, d := range got {
			day, _ := dates.Parse(d.ParsedDate)
			if day.Before(lo) || day.After(hi) {
				t.Fatalf("start %s: %s is outside the tolerance window", start, d.ParsedDate)
			}
		}
	}
}

func TestFindExactMatchOpenEnd(t *testing.T) {
	in := available("2024-03-01", "2024-05-01")
	m, ok := FindExactMatch(in, "2024-03-02", "")
	if !ok || m.ParsedDate != "2024-05-01" {
		t.Fatalf("expected open-ended match on 2024-05-01, got %#v", m)
	}
}

func TestSlotInWindow(t *testing.T) {
	slot := slotAt("2024-03-10", 9, 0)
	if !SlotInWindow(slot, "08:00", "19:00") {
		t.Fatalf("expected 09:00 inside 08:00-19:00")
	}
	if SlotInWindow(slot, "10:00", "19:00") {
		t.Fatalf("expected 09:00 outside 10:00-19:00")
	}
	if !SlotInWindow(slot, "09:00", "19:00") || !SlotInWindow(slot, "07:00", "09:00") {
		t.Fatalf("window bounds must be inclusive")
	}
	if SlotInWindow(slot, "bad", "19:00") {
		t.Fatalf("unparseable bounds must not match")
	}
}

func TestFirstMatch(t *testing.T) {
	w := Window{StartDate: "2024-03-10", EndDate: "2024-03-11", StartTime: "08:00", EndTime: "12:00"}
	fetched := []exam.DateSlots{
		{Date: available("2024-03-09")[0], Slots: []exam.TimeSlot{slotAt("2024-03-09", 9, 0)}},
		{Date: available("2024-03-10")[0], Slots: []exam.TimeSlot{slotAt("2024-03-10", 14, 0), slotAt("2024-03-10", 11, 30)}},
		{Date: available("2024-03-11")[0], Slots: []exam.TimeSlot{slotAt("2024-03-11", 8, 0)}},
	}
	got, ok := FirstMatch(fetched, w)
	if !ok {
		t.Fatalf("expected a match")
	}
	if got.Day() != "2024-03-10" || got.DateTime.Hour() != 11 {
		t.Fatalf("expected 2024-03-10 11:30, got %v", got.DateTime)
	}

	if _, ok := FirstMatch(fetched[:1], w); ok {
		t.Fatalf("tolerance-only date must not produce a match")
	}
}

func TestWindowValidate(t *testing.T) {
	tests := []struct {
		w       Window
		wantErr bool
	}{
		{Window{"2024-03-10", "", "08:00", "19:00"}, false},
		{Window{"2024-03-10", "2024-03-12", "08:00", "08:00"}, false},
		{Window{"2024-03-10", "2024-03-09", "08:00", "19:00"}, true},
		{Window{"2024-03-10", "", "19:00", "08:00"}, true},
		{Window{"10.03.2024", "", "08:00", "19:00"}, true},
		{Window{"2024-03-10", "", "8am", "19:00"}, true},
	}
	for _, tt := range tests {
		if err := tt.w.Validate(); (err != nil) != tt.wantErr {
			t.Fatalf("Validate(%#v): wantErr=%t, got %v", tt.w, tt.wantErr, err)
		}
	}
}
