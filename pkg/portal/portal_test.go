package portal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/testovak/testovak/pkg/extract"
)

const listing = `<html><body><div role="main">
<hr>
<h3>Test: <a href="view.php?id=7">Chemistry</a></h3>
<table><tr><td>From</td><td>01.01.2024 08:00</td></tr><tr><td>To</td><td>31.12.2099 18:00</td></tr></table>
<div class="collapse" id="test-7"><a href="day.php?id=7&day=2024-06-03">3 June</a></div>
</div></body></html>`

const day = `<html><body><table>
<tr><td><a href="book.php?slot=5">13:15 - 13:45</a></td></tr>
</table></body></html>`

func newPortal(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/mod/testovak/index.php", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listing))
	})
	mux.HandleFunc("/mod/testovak/day.php", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("day") == "2024-06-04" {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(day))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New(Config{ListingURL: srv.URL + "/mod/testovak/index.php", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	return srv, c
}

func TestFetchListingResolvesLinks(t *testing.T) {
	srv, c := newPortal(t)

	doc, err := c.FetchListing(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	tests := extract.ExtractTests(doc, time.Now())
	if len(tests) != 1 {
		t.Fatalf("expected 1 test, got %d", len(tests))
	}
	want := srv.URL + "/mod/testovak/day.php?id=7&day=2024-06-03"
	if got := tests[0].AvailableDates[0].Link; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFetchTimeSlots(t *testing.T) {
	srv, c := newPortal(t)

	slots, err := c.FetchTimeSlots(context.Background(), srv.URL+"/mod/testovak/day.php?id=7&day=2024-06-03")
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if want := time.Date(2024, 6, 3, 13, 15, 0, 0, time.Local); !slots[0].DateTime.Equal(want) {
		t.Fatalf("unexpected slot time %v", slots[0].DateTime)
	}
	if slots[0].Link != srv.URL+"/mod/testovak/book.php?slot=5" {
		t.Fatalf("unexpected slot link %q", slots[0].Link)
	}
}

func TestFetchTimeSlotsNetworkError(t *testing.T) {
	srv, c := newPortal(t)

	_, err := c.FetchTimeSlots(context.Background(), srv.URL+"/mod/testovak/day.php?id=7&day=2024-06-04")
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if ne.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", ne.StatusCode)
	}
	if !IsNetworkError(err) {
		t.Fatalf("IsNetworkError should be true")
	}
}

func TestFetchListingWithoutURL(t *testing.T) {
	c, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.FetchListing(context.Background()); err == nil {
		t.Fatalf("expected error for missing listing url")
	}
}

func TestFetchDocumentConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c, _ := New(Config{Timeout: time.Second})
	_, err := c.FetchDocument(context.Background(), addr)
	var ne *NetworkError
	if !errors.As(err, &ne) || ne.StatusCode != 0 {
		t.Fatalf("expected transport NetworkError, got %v", err)
	}
}
