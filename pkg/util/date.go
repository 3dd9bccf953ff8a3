package util

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidDate is wrapped by ParseOptionalTime for unparseable input.
var ErrInvalidDate = errors.New("invalid date")

// ParseTime accepts YYYY-MM-DD (midnight in loc), RFC3339, RFC3339Nano and
// unix seconds. Returns (t, true) if any worked.
func ParseTime(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, loc); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts >= 0 {
		return time.Unix(ts, 0).In(loc), true
	}
	return time.Time{}, false
}

// ParseOptionalTime returns nil for an empty string and an error for an
// unparseable one.
func ParseOptionalTime(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, ok := ParseTime(s, loc)
	if !ok {
		return nil, fmt.Errorf("%w %q: want YYYY-MM-DD, RFC3339 or unix seconds", ErrInvalidDate, s)
	}
	return &t, nil
}

// ParseTimeDefault parses time or returns def if empty/invalid.
func ParseTimeDefault(s string, loc *time.Location, def time.Time) time.Time {
	if t, ok := ParseTime(s, loc); ok {
		return t
	}
	return def
}
