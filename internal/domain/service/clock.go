package service

import "time"

// Clock supplies the current instant used to resolve relative periods.
// The location of the returned time defines the local calendar.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in Location (time.Local when nil).
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// NewSystemClock returns a SystemClock for the named IANA zone.
// An empty name selects time.Local.
func NewSystemClock(tz string) (SystemClock, error) {
	if tz == "" {
		return SystemClock{Location: time.Local}, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return SystemClock{}, err
	}
	return SystemClock{Location: loc}, nil
}
