package polling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/testovak/testovak/pkg/dates"
	"github.com/testovak/testovak/pkg/exam"
	"github.com/testovak/testovak/pkg/extract"
	"github.com/testovak/testovak/pkg/intent"
	"github.com/testovak/testovak/pkg/match"
	"github.com/testovak/testovak/pkg/navigate"
	"github.com/testovak/testovak/pkg/portal"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Source fetches portal pages. *portal.Client implements it.
type Source interface {
	FetchListing(ctx context.Context) (*goquery.Document, error)
	FetchTimeSlots(ctx context.Context, dayURL string) ([]exam.TimeSlot, error)
}

const (
	DefaultInterval   = 10 * time.Second
	DefaultFoundDelay = 3 * time.Second
	DefaultCancelPoll = time.Second
)

// Config holds everything a Runner needs.
type Config struct {
	Source    Source
	Store     intent.Store
	Navigator navigate.Navigator

	Interval   time.Duration // wait between passes; defaults to DefaultInterval
	FoundDelay time.Duration // shown before navigating to a match
	CancelPoll time.Duration // how often a waiting runner re-reads the intent

	ToleranceDays   int  // days added on both sides for nearby dates; 0 = none
	MaxDisplayDates int  // defaults to match.DefaultDisplayLimit if <= 0
	ScanAllDates    bool // look for the match past the display cap

	Now func() time.Time // optional; defaults to time.Now
	Log Logger           // optional; nil = no logging

	// OnPass is called after every completed pass, including the final
	// cancelled one. Nil = no callback.
	OnPass func(*PassResult)
}

// Runner drives the search for a single intent.
type Runner struct {
	cfg Config
	log Logger
}

func New(cfg Config) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.FoundDelay < 0 {
		cfg.FoundDelay = 0
	}
	if cfg.CancelPoll <= 0 {
		cfg.CancelPoll = DefaultCancelPoll
	}
	if cfg.ToleranceDays < 0 {
		cfg.ToleranceDays = 0
	}
	if cfg.MaxDisplayDates <= 0 {
		cfg.MaxDisplayDates = match.DefaultDisplayLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	return &Runner{cfg: cfg, log: log}
}

// RunPass loads the intent and performs one search over the portal. Store
// errors are returned as is: the runner never acts on an intent it could not
// read. Fetch failures are recorded in the result instead.
func (r *Runner) RunPass(ctx context.Context) (*PassResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := r.cfg.Now()
	res := &PassResult{State: StateIdle, StartedAt: now}

	in, err := intent.Load(ctx, r.cfg.Store)
	if err != nil {
		return nil, err
	}
	res.Intent = in
	if !in.IsRunning {
		r.log.Debugf("No search running")
		return r.finish(res), nil
	}
	res.State = StateSearching

	doc, err := r.cfg.Source.FetchListing(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.log.Warnf("Could not fetch the test listing: %v", err)
		res.State = StateExhausted
		res.Err = err
		return r.finish(res), nil
	}

	if !extract.IsPortalPage(doc) {
		r.log.Infof("No tests on the listing page (%q), nothing to do", extract.PageTitle(doc))
		res.State = StateInactive
		return r.finish(res), nil
	}
	tests := extract.ExtractTests(doc, now)

	t, ok := extract.FindTest(tests, in.TestID)
	if !ok {
		r.log.Warnf("Test %q is not on the listing page", in.TestID)
		res.State = StateExhausted
		res.Err = fmt.Errorf("test %q not found", in.TestID)
		return r.finish(res), nil
	}
	res.Test = t
	res.Display = r.display(in, t, now)

	res.Candidates = match.FilterDatesInRange(t.AvailableDates, in.StartDate, in.EndDate, r.cfg.ToleranceDays, r.cfg.MaxDisplayDates)
	scan := res.Candidates
	if r.cfg.ScanAllDates {
		scan = match.FilterDatesInRange(t.AvailableDates, in.StartDate, in.EndDate, r.cfg.ToleranceDays, 0)
	}

	// One date at a time; a failed date contributes no slots.
	for _, d := range scan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slots, err := r.cfg.Source.FetchTimeSlots(ctx, d.Link)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if portal.IsNetworkError(err) {
				r.log.Warnf("Could not fetch slots for %s: %v", d.ParsedDate, err)
			} else {
				r.log.Errorf("Could not read the slots page for %s: %v", d.ParsedDate, err)
			}
			res.DateFailures = append(res.DateFailures, DateFailure{Date: d, Err: err})
			res.Dates = append(res.Dates, exam.DateSlots{Date: d})
			continue
		}
		r.log.Debugf("%s: %d slots", d.ParsedDate, len(slots))
		res.Dates = append(res.Dates, exam.DateSlots{Date: d, Slots: slots})
	}

	if d, ok := match.FindExactMatch(scan, in.StartDate, in.EndDate); ok {
		res.ExactDate = &d
	}
	if s, ok := match.FirstMatch(res.Dates, in.Window()); ok {
		res.Match = &s
		res.State = StateFound
		r.log.Infof("Found a free slot at %s", s.DateTime.Format(dates.PortalLayout))
	} else {
		res.State = StateExhausted
	}
	return r.finish(res), nil
}

// Run repeats passes until the search ends. A found slot is booked after
// FoundDelay unless the intent was cancelled meanwhile; otherwise the runner
// waits Interval before the next pass and stops as soon as it sees the intent
// cancelled.
func (r *Runner) Run(ctx context.Context) (*PassResult, error) {
	for {
		res, err := r.RunPass(ctx)
		if err != nil {
			return res, err
		}

		switch res.State {
		case StateIdle, StateInactive:
			return res, nil

		case StateFound:
			return r.Finish(ctx, res)

		default:
			cancelled, err := r.waitNextPass(ctx)
			if err != nil {
				return res, err
			}
			if cancelled {
				r.log.Infof("Search cancelled")
				return r.cancelled(res), nil
			}
		}
	}
}

// Finish books the match of a found pass: it waits FoundDelay, then re-reads
// the intent and opens the slot only if the search is still running.
// Results in any other state are returned unchanged.
func (r *Runner) Finish(ctx context.Context, res *PassResult) (*PassResult, error) {
	if res == nil || res.State != StateFound || res.Match == nil {
		return res, nil
	}
	if err := sleep(ctx, r.cfg.FoundDelay); err != nil {
		return res, err
	}
	// The user may have cancelled while the match was on screen.
	running, err := intent.IsRunning(ctx, r.cfg.Store)
	if err != nil {
		return res, err
	}
	if !running {
		r.log.Infof("Search cancelled before booking")
		return r.cancelled(res), nil
	}
	if err := r.book(ctx, res.Match.Link); err != nil {
		return res, err
	}
	return res, nil
}

// Cancel stops the search.
func (r *Runner) Cancel(ctx context.Context) error {
	return intent.Stop(ctx, r.cfg.Store)
}

// SelectSlot stops the search and opens link right away.
func (r *Runner) SelectSlot(ctx context.Context, link string) error {
	return r.book(ctx, link)
}

func (r *Runner) book(ctx context.Context, link string) error {
	if r.cfg.Navigator == nil {
		return errors.New("no navigator configured")
	}
	// A link the navigator would refuse must not end the search.
	if c, ok := r.cfg.Navigator.(navigate.Checker); ok {
		if err := c.Check(link); err != nil {
			return err
		}
	}
	if err := intent.Stop(ctx, r.cfg.Store); err != nil {
		return err
	}
	if err := r.cfg.Navigator.NavigateTo(ctx, link); err != nil {
		return fmt.Errorf("navigate to %s: %w", link, err)
	}
	return nil
}

// waitNextPass waits for Interval, re-reading the intent every CancelPoll.
func (r *Runner) waitNextPass(ctx context.Context) (cancelled bool, err error) {
	deadline := time.NewTimer(r.cfg.Interval)
	defer deadline.Stop()
	poll := time.NewTicker(r.cfg.CancelPoll)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline.C:
			return false, nil
		case <-poll.C:
			running, err := intent.IsRunning(ctx, r.cfg.Store)
			if err != nil {
				return false, err
			}
			if !running {
				return true, nil
			}
		}
	}
}

func (r *Runner) cancelled(prev *PassResult) *PassResult {
	res := &PassResult{
		State:     StateCancelled,
		StartedAt: r.cfg.Now(),
		Intent:    prev.Intent,
		Test:      prev.Test,
		Display:   prev.Display,
	}
	res.Intent.IsRunning = false
	return r.finish(res)
}

func (r *Runner) finish(res *PassResult) *PassResult {
	if r.cfg.OnPass != nil {
		r.cfg.OnPass(res)
	}
	return res
}

func (r *Runner) display(in intent.SearchIntent, t exam.Test, now time.Time) DisplayInfo {
	d := DisplayInfo{
		Name:          t.Title,
		DateRange:     dates.FormatDisplayDate(in.StartDate),
		TimeRange:     fmt.Sprintf("%s - %s", in.StartTime, in.EndTime),
		ExtendedRange: dates.FormatDisplayRange(in.StartDate, in.EndDate, r.cfg.ToleranceDays),
	}
	if in.EndDate != "" && in.EndDate != in.StartDate {
		d.DateRange += " - " + dates.FormatDisplayDate(in.EndDate)
	}
	if !in.RunnerStartTime.IsZero() {
		d.Elapsed = dates.FormatElapsed(in.RunnerStartTime, now)
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
