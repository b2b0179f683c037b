package extract

import (
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const listingPage = `<!DOCTYPE html>
<html><body>
<div role="main">
  <h2>Available tests</h2>
  <hr>
  <h3>Test: <a href="/mod/testovak/view.php?id=11">Mathematics I</a></h3>
  <table>
    <tr><td>Open from</td><td>01.03.2024 08:00</td></tr>
    <tr><td>Open to</td><td>30.04.2024 18:00</td></tr>
  </table>
  <span class="btn btn-primary" data-target="#test-11">Show dates</span>
  <div class="collapse" id="test-11">
    <a href="/mod/testovak/day.php?id=11&day=2024-03-10">10 March</a>
    <a href="/mod/testovak/day.php?id=11&day=2024-03-12">12 March</a>
    <a href="/mod/testovak/help.php">Help</a>
  </div>
  <hr>
  <h3>Test: <a href="/mod/testovak/view.php?id=12">Physics</a></h3>
  <table>
    <tr><td>Open from</td><td>01.01.2024 08:00</td></tr>
    <tr><td>Open to</td><td>01.02.2024 18:00</td></tr>
  </table>
  <div class="collapse" id="test-12"></div>
  <hr>
  <h3>Broken entry</h3>
</div>
</body></html>`

const dayPage = `<html><body><table>
<tr><td><a href="book.php?slot=1">09:00 - 09:30</a></td></tr>
<tr><td><a href="book.php?slot=2">10:30 - 11:00</a></td></tr>
<tr><td><a href="calendar.php">Back</a></td></tr>
</table>
<p><a href="book.php?slot=99">12:00 - 12:30</a></p>
</body></html>`

func mustDoc(t *testing.T, page, rawURL string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	if rawURL != "" {
		doc.Url, _ = url.Parse(rawURL)
	}
	return doc
}

func TestExtractTests(t *testing.T) {
	doc := mustDoc(t, listingPage, "https://moodle.example.edu/mod/testovak/index.php")
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.Local)

	tests := ExtractTests(doc, now)
	if len(tests) != 3 {
		t.Fatalf("expected 3 tests, got %d: %#v", len(tests), tests)
	}

	math := tests[0]
	if math.Title != "Mathematics I" {
		t.Fatalf("unexpected title %q", math.Title)
	}
	if math.ID != "test-11" {
		t.Fatalf("unexpected id %q", math.ID)
	}
	if math.Link != "https://moodle.example.edu/mod/testovak/view.php?id=11" {
		t.Fatalf("unexpected link %q", math.Link)
	}
	if want := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local); !math.OpenFrom.Equal(want) {
		t.Fatalf("unexpected openFrom %v", math.OpenFrom)
	}
	if want := time.Date(2024, 4, 30, 18, 0, 0, 0, time.Local); !math.OpenTo.Equal(want) {
		t.Fatalf("unexpected openTo %v", math.OpenTo)
	}
	if !math.IsAvailable {
		t.Fatalf("expected first test to be available")
	}

	var days []string
	for _, d := range math.AvailableDates {
		days = append(days, d.ParsedDate)
	}
	if want := []string{"2024-03-10", "2024-03-12"}; !reflect.DeepEqual(days, want) {
		t.Fatalf("unexpected dates.\nwant: %#v\ngot:  %#v", want, days)
	}
	if got := math.AvailableDates[0].Link; got != "https://moodle.example.edu/mod/testovak/day.php?id=11&day=2024-03-10" {
		t.Fatalf("unexpected date link %q", got)
	}

	if tests[1].IsAvailable {
		t.Fatalf("expected closed test to be unavailable")
	}
	if len(tests[1].AvailableDates) != 0 {
		t.Fatalf("expected no dates for closed test")
	}
}

func TestExtractTestsToleratesMissingFields(t *testing.T) {
	doc := mustDoc(t, listingPage, "")
	tests := ExtractTests(doc, time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local))

	broken := tests[2]
	if broken.Title != "Broken entry" {
		t.Fatalf("unexpected title %q", broken.Title)
	}
	if broken.ID != "" || broken.Link != "" || !broken.OpenTo.IsZero() {
		t.Fatalf("expected missing fields to stay empty, got %#v", broken)
	}
	if broken.IsAvailable {
		t.Fatalf("a test without id must not be available")
	}
	want := []string{"id", "link", "openFrom", "openTo"}
	if got := Gaps(broken); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected gaps.\nwant: %#v\ngot:  %#v", want, got)
	}
	if got := tests[0].Link; got != "/mod/testovak/view.php?id=11" {
		t.Fatalf("expected unresolved link without document url, got %q", got)
	}
}

func TestExtractTestsOnForeignPage(t *testing.T) {
	doc := mustDoc(t, `<html><body><div role="main"><p>Nothing here</p></div></body></html>`, "")
	if tests := ExtractTests(doc, time.Now()); len(tests) != 0 {
		t.Fatalf("expected no tests, got %d", len(tests))
	}
	if IsPortalPage(doc) {
		t.Fatalf("expected page without groups to be inactive")
	}
}

func TestExtractTimeSlots(t *testing.T) {
	pageURL := "https://moodle.example.edu/mod/testovak/day.php?id=11&day=2024-03-10"
	slots := ExtractTimeSlots(pageURL, mustDoc(t, dayPage, ""))
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d: %#v", len(slots), slots)
	}
	if want := time.Date(2024, 3, 10, 9, 0, 0, 0, time.Local); !slots[0].DateTime.Equal(want) {
		t.Fatalf("unexpected first slot %v", slots[0].DateTime)
	}
	if want := time.Date(2024, 3, 10, 10, 30, 0, 0, time.Local); !slots[1].DateTime.Equal(want) {
		t.Fatalf("unexpected second slot %v", slots[1].DateTime)
	}
	if slots[0].Link != "https://moodle.example.edu/mod/testovak/book.php?slot=1" {
		t.Fatalf("unexpected slot link %q", slots[0].Link)
	}
	for _, s := range slots {
		if s.Day() != "2024-03-10" {
			t.Fatalf("slot day %s does not match page day", s.Day())
		}
	}
}

func TestExtractTimeSlotsWithoutDay(t *testing.T) {
	if slots := ExtractTimeSlots("https://moodle.example.edu/mod/testovak/index.php", mustDoc(t, dayPage, "")); slots != nil {
		t.Fatalf("expected nil slots for non-day page, got %#v", slots)
	}
}

func TestDayFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://x.test/day.php?day=2024-03-10", "2024-03-10", true},
		{"https://x.test/day.php?id=1&day=2024-3-9&x=1", "2024-03-09", true},
		{"https://x.test/day.php?day=2024-02-30", "", false},
		{"https://x.test/index.php", "", false},
	}
	for _, tt := range tests {
		got, ok := DayFromURL(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("DayFromURL(%q): expected (%q, %t), got (%q, %t)", tt.in, tt.want, tt.ok, got, ok)
		}
	}
}

func TestPageTitle(t *testing.T) {
	doc := mustDoc(t, "<html><head><title>\n  Log in to the site\r\n</title></head><body></body></html>", "")
	if got := PageTitle(doc); got != "Log in to the site" {
		t.Fatalf("expected login title, got %q", got)
	}
	if got := PageTitle(mustDoc(t, dayPage, "")); got != "" {
		t.Fatalf("expected no title, got %q", got)
	}
}

func TestFindTest(t *testing.T) {
	tests := ExtractTests(mustDoc(t, listingPage, ""), time.Now())
	if got, ok := FindTest(tests, "test-12"); !ok || got.Title != "Physics" {
		t.Fatalf("expected Physics, got %#v", got)
	}
	if _, ok := FindTest(tests, ""); ok {
		t.Fatalf("empty id must not match the broken entry")
	}
}

func TestExtractTestsComposesTitles(t *testing.T) {
	// "s" followed by a combining caron.
	page := "<html><body><div role=\"main\"><hr><h3>Test: <a href=\"v.php\">Zkous\u030cka</a></h3>" +
		"<div class=\"collapse\" id=\"test-1\"></div></div></body></html>"
	tests := ExtractTests(mustDoc(t, page, "https://portal.example.edu/"), time.Now())
	if len(tests) != 1 {
		t.Fatalf("expected 1 test, got %d", len(tests))
	}
	if tests[0].Title != "Zkou\u0161ka" {
		t.Fatalf("expected composed title, got %q", tests[0].Title)
	}
}
