package storage

import "time"

// timestampLayout sorts lexically in the same order as time.
const timestampLayout = "2006-01-02 15:04:05.000"

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// parseTimestamp accepts both SQLite CURRENT_TIMESTAMP and RFC3339 values.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return time.Time{}
}
