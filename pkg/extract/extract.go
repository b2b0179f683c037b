// Package extract turns portal pages into exam records.
//
// The listing page grammar is fixed by the host site:
//
//	listing := div[role=main] > ( hr element* )*
//	title   := first h3 text without the "Test: " label, NFC
//	id      := id of the first div.collapse
//	link    := href of the first a inside the h3
//	open    := first table, rows 1 and 2, cell 2, "DD.MM.YYYY HH:MM"
//	dates   := a[href*="day="] inside the div.collapse
//
// Everything that depends on the host page layout lives in this package.
package extract

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/testovak/testovak/pkg/dates"
	"github.com/testovak/testovak/pkg/exam"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

const (
	mainSelector     = `div[role="main"]`
	slotSelector     = `td a`
	titlePrefix      = "Test: "
	slotTimeSplitter = "-"
)

var dayParam = regexp.MustCompile(`day=(\d+-\d+-\d+)`)

// group is the run of sibling elements between two hr markers.
type group []*goquery.Selection

func (g group) first(sel string) *goquery.Selection {
	for _, el := range g {
		if el.Is(sel) {
			return el
		}
	}
	return nil
}

// segment splits the main container's children into one group per test.
// Elements before the first hr belong to no test.
func segment(doc *goquery.Document) []group {
	var groups []group
	doc.Find(mainSelector).Children().Each(func(_ int, el *goquery.Selection) {
		if el.Is("hr") {
			groups = append(groups, group{el})
			return
		}
		if len(groups) == 0 {
			return
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], el)
	})
	return groups
}

// ExtractTests parses every test group on a listing page. Missing fields are
// left at their zero value; a page without the listing structure yields an
// empty slice.
func ExtractTests(doc *goquery.Document, now time.Time) []exam.Test {
	groups := segment(doc)
	tests := make([]exam.Test, 0, len(groups))
	for _, g := range groups {
		tests = append(tests, parseGroup(doc.Url, g, now))
	}
	return tests
}

// IsPortalPage reports whether doc carries at least one test group.
func IsPortalPage(doc *goquery.Document) bool {
	return len(segment(doc)) > 0
}

// PageTitle returns the document's <title>, with line breaks removed. It helps
// tell a login or error page apart from an empty listing.
func PageTitle(doc *goquery.Document) string {
	for _, n := range doc.Nodes {
		if title, ok := traverse(n); ok {
			return strings.ToValidUTF8(strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(title, "\n", ""), "\r", "")), "")
		}
	}
	return ""
}

func isTitleElement(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Data == "title"
}

func traverse(n *html.Node) (string, bool) {
	if isTitleElement(n) {
		if n.FirstChild != nil {
			return n.FirstChild.Data, true
		}
		return "", true
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		result, ok := traverse(c)
		if ok {
			return result, ok
		}
	}

	return "", false
}

func parseGroup(base *url.URL, g group, now time.Time) exam.Test {
	var t exam.Test

	if h3 := g.first("h3"); h3 != nil {
		// Titles are compared and printed, keep them in composed form.
		t.Title = norm.NFC.String(strings.TrimSpace(strings.Replace(h3.Text(), titlePrefix, "", 1)))
		if href, ok := h3.Find("a").First().Attr("href"); ok {
			t.Link = resolve(base, href)
		}
	}

	collapse := g.first("div.collapse")
	if collapse != nil {
		t.ID, _ = collapse.Attr("id")
	}

	if table := g.first("table"); table != nil {
		rows := table.Find("tr")
		t.OpenFrom = cellTime(rows.Eq(0))
		t.OpenTo = cellTime(rows.Eq(1))
	}

	if collapse != nil {
		collapse.Find("a").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			day, ok := DayFromURL(href)
			if !ok {
				return
			}
			t.AvailableDates = append(t.AvailableDates, exam.AvailableDate{
				ParsedDate: day,
				Link:       resolve(base, href),
			})
		})
	}

	t.IsAvailable = t.OpenTo.After(now) && t.ID != ""
	return t
}

// cellTime reads the second cell of row as a portal timestamp.
func cellTime(row *goquery.Selection) time.Time {
	cell := row.Children().Eq(1)
	if cell.Length() == 0 || !cell.Is("td") {
		return time.Time{}
	}
	ts, err := dates.ParsePortalDateTime(cell.Text())
	if err != nil {
		return time.Time{}
	}
	return ts
}

// ExtractTimeSlots parses a day page. pageURL must carry the day parameter,
// otherwise the page is not a day page and nil is returned.
func ExtractTimeSlots(pageURL string, doc *goquery.Document) []exam.TimeSlot {
	day, ok := DayFromURL(pageURL)
	if !ok {
		return nil
	}
	midnight, err := dates.Parse(day)
	if err != nil {
		return nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		base = doc.Url
	}

	var slots []exam.TimeSlot
	doc.Find(slotSelector).Each(func(_ int, a *goquery.Selection) {
		clock, _, _ := strings.Cut(strings.TrimSpace(a.Text()), slotTimeSplitter)
		at, err := dates.AtClock(midnight, clock)
		if err != nil {
			return
		}
		href, _ := a.Attr("href")
		slots = append(slots, exam.TimeSlot{DateTime: at, Link: resolve(base, href)})
	})
	return slots
}

// DayFromURL extracts the zero-padded day parameter from a portal URL.
func DayFromURL(rawURL string) (string, bool) {
	m := dayParam.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return dates.Normalize(m[1])
}

// FindTest returns the test with the given id.
func FindTest(tests []exam.Test, id string) (exam.Test, bool) {
	for _, t := range tests {
		if t.ID != "" && t.ID == id {
			return t, true
		}
	}
	return exam.Test{}, false
}

// Gaps lists the fields the extractor could not fill for t.
func Gaps(t exam.Test) []string {
	var gaps []string
	if t.Title == "" {
		gaps = append(gaps, "title")
	}
	if t.ID == "" {
		gaps = append(gaps, "id")
	}
	if t.Link == "" {
		gaps = append(gaps, "link")
	}
	if t.OpenFrom.IsZero() {
		gaps = append(gaps, "openFrom")
	}
	if t.OpenTo.IsZero() {
		gaps = append(gaps, "openTo")
	}
	return gaps
}

func resolve(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	if base == nil {
		return href
	}
	u, err := base.Parse(href)
	if err != nil {
		return href
	}
	return u.String()
}
