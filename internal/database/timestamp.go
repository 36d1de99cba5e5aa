package database

import (
	"net/url"
	"time"
)

// storedLayout is the layout timestamps are written with. Fixed-width
// fractional seconds keep UTC values sorting lexically in time order,
// which ListRuns relies on.
const storedLayout = "2006-01-02T15:04:05.000000000Z07:00"

// sqliteLayout is SQLite's datetime() layout, interpreted as UTC. Rows
// edited by hand with datetime('now') use it.
const sqliteLayout = "2006-01-02 15:04:05"

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(storedLayout)
}

// parseTimestamp reads a stored timestamp. Unreadable values become the
// zero time so one bad row cannot hide the rest of the history.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.ParseInLocation(sqliteLayout, s, time.UTC); err == nil {
		return t
	}
	return time.Time{}
}

// hostOf returns the host[:port] of rawURL, or "".
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
