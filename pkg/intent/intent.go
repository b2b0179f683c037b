// Package intent carries the user's search request between worker passes.
//
// The store is a flat key-value bag whose values are JSON literals, the same
// shape the portal extension kept in browser storage. Only Load, Save and Stop
// touch the store; everything downstream works on the SearchIntent value.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/testovak/testovak/pkg/match"
	"github.com/tidwall/gjson"
)

const (
	KeyIsRunning       = "isRunning"
	KeyStartDate       = "startDate"
	KeyEndDate         = "endDate"
	KeyStartTime       = "startTime"
	KeyEndTime         = "endTime"
	KeyTestID          = "testId"
	KeyRunnerStartTime = "runnerStartTime"
)

// Keys lists every key an intent occupies in the store.
var Keys = []string{
	KeyIsRunning,
	KeyStartDate,
	KeyEndDate,
	KeyStartTime,
	KeyEndTime,
	KeyTestID,
	KeyRunnerStartTime,
}

// Store is the external key-value service. Get omits absent keys from the
// result. Set is last-write-wins; keys written together are not guaranteed to
// become visible together.
type Store interface {
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	Set(ctx context.Context, values map[string]string) error
}

// SearchIntent is what the user asked the worker to look for.
type SearchIntent struct {
	IsRunning       bool
	StartDate       string
	EndDate         string
	StartTime       string
	EndTime         string
	TestID          string
	RunnerStartTime time.Time
}

// Window returns the date and clock bounds of the intent.
func (in SearchIntent) Window() match.Window {
	return match.Window{
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
	}
}

// StoreError wraps a failure of the intent store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("intent store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Load reads the intent. Missing keys decode to zero values, so an empty store
// yields a non-running intent.
func Load(ctx context.Context, s Store) (SearchIntent, error) {
	raw, err := s.Get(ctx, Keys...)
	if err != nil {
		return SearchIntent{}, &StoreError{Op: "get", Err: err}
	}
	get := func(key string) gjson.Result {
		v, ok := raw[key]
		if !ok {
			return gjson.Result{}
		}
		return gjson.Parse(v)
	}

	in := SearchIntent{
		IsRunning: get(KeyIsRunning).Bool(),
		StartDate: get(KeyStartDate).String(),
		EndDate:   get(KeyEndDate).String(),
		StartTime: get(KeyStartTime).String(),
		EndTime:   get(KeyEndTime).String(),
		TestID:    get(KeyTestID).String(),
	}
	if ms := get(KeyRunnerStartTime).Int(); ms > 0 {
		in.RunnerStartTime = time.UnixMilli(ms)
	}
	return in, nil
}

// Save writes the full intent, replacing any previous one.
func Save(ctx context.Context, s Store, in SearchIntent) error {
	values := map[string]string{
		KeyIsRunning:       strconv.FormatBool(in.IsRunning),
		KeyStartDate:       quote(in.StartDate),
		KeyEndDate:         "null",
		KeyStartTime:       quote(in.StartTime),
		KeyEndTime:         quote(in.EndTime),
		KeyTestID:          quote(in.TestID),
		KeyRunnerStartTime: strconv.FormatInt(in.RunnerStartTime.UnixMilli(), 10),
	}
	if in.EndDate != "" {
		values[KeyEndDate] = quote(in.EndDate)
	}
	if err := s.Set(ctx, values); err != nil {
		return &StoreError{Op: "set", Err: err}
	}
	return nil
}

// Stop clears the running flag and leaves the rest of the intent in place.
func Stop(ctx context.Context, s Store) error {
	if err := s.Set(ctx, map[string]string{KeyIsRunning: "false"}); err != nil {
		return &StoreError{Op: "set", Err: err}
	}
	return nil
}

// IsRunning re-reads only the running flag.
func IsRunning(ctx context.Context, s Store) (bool, error) {
	raw, err := s.Get(ctx, KeyIsRunning)
	if err != nil {
		return false, &StoreError{Op: "get", Err: err}
	}
	return gjson.Parse(raw[KeyIsRunning]).Bool(), nil
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
