// Package portal fetches and parses pages from the scheduling portal.
package portal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/testovak/testovak/pkg/exam"
	"github.com/testovak/testovak/pkg/extract"
	"github.com/testovak/testovak/pkg/whttp"
	"golang.org/x/time/rate"
)

// Config carries the portal connection settings.
type Config struct {
	ListingURL string
	Cookie     string
	UserAgent  string
	Timeout    time.Duration
	Retries    int
	QPS        float64
	Proxy      string
	// Logger is handed to the retryable client: a retryablehttp.Logger or
	// LeveledLogger, nil for silence.
	Logger interface{}
}

// NetworkError reports a failed fetch. StatusCode is zero when no response
// was received.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err is or wraps a *NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

type Client struct {
	cfg     Config
	http    *retryablehttp.Client
	limiter *rate.Limiter
}

func New(cfg Config) (*Client, error) {
	hc, err := whttp.NewClient(whttp.ClientOptions{
		Timeout:  cfg.Timeout,
		Retries:  cfg.Retries,
		ProxyURL: cfg.Proxy,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	limit := rate.Inf
	if cfg.QPS > 0 && !math.IsInf(cfg.QPS, 1) {
		limit = rate.Limit(cfg.QPS)
	}
	return &Client{cfg: cfg, http: hc, limiter: rate.NewLimiter(limit, 1)}, nil
}

// ListingURL returns the configured listing page.
func (c *Client) ListingURL() string {
	return c.cfg.ListingURL
}

// FetchDocument downloads rawURL and parses it. The document URL is the final
// URL after redirects so relative links resolve like in a browser.
func (c *Client) FetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		URL: rawURL,
		Headers: []whttp.WHTTPHeader{
			{Name: "User-Agent", Value: c.cfg.UserAgent},
			{Name: "Cookie", Value: c.cfg.Cookie},
		},
	}, c.http)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &NetworkError{URL: rawURL, StatusCode: res.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.BodyString))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	doc.Url = res.FinalURL
	return doc, nil
}

// FetchListing downloads the configured listing page.
func (c *Client) FetchListing(ctx context.Context) (*goquery.Document, error) {
	if c.cfg.ListingURL == "" {
		return nil, errors.New("portal listing url is not configured")
	}
	return c.FetchDocument(ctx, c.cfg.ListingURL)
}

// FetchTimeSlots downloads a day page and extracts its slots.
func (c *Client) FetchTimeSlots(ctx context.Context, dayURL string) ([]exam.TimeSlot, error) {
	doc, err := c.FetchDocument(ctx, dayURL)
	if err != nil {
		return nil, err
	}
	return extract.ExtractTimeSlots(dayURL, doc), nil
}
