package summary

import (
	"fmt"
	"time"

	domrepo "FinTrack/internal/domain/repository"
)

const endOfDayNanos = 999 * int(time.Millisecond)

// Window is an inclusive [Start, End] range of instants.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ResolveWindow maps a query's temporal intent to a concrete window.
// A named period wins over the explicit bounds. Without a period, a missing
// start falls back to the Unix epoch and a missing end to now.
func ResolveWindow(now time.Time, period domrepo.Period, start, end *time.Time) (Window, error) {
	if period != "" {
		return NamedWindow(now, period)
	}
	w := Window{Start: time.Unix(0, 0).In(now.Location()), End: now}
	if start != nil {
		w.Start = *start
	}
	if end != nil {
		w.End = *end
	}
	return w, nil
}

// NamedWindow resolves a relative period against now, in now's location.
func NamedWindow(now time.Time, period domrepo.Period) (Window, error) {
	today := StartOfDay(now)
	switch period {
	case domrepo.PeriodToday:
		return Window{Start: today, End: EndOfDay(now)}, nil
	case domrepo.PeriodYesterday:
		y := today.AddDate(0, 0, -1)
		return Window{Start: y, End: EndOfDay(y)}, nil
	case domrepo.PeriodThisWeek:
		return Window{Start: StartOfWeek(today), End: EndOfDay(now)}, nil
	case domrepo.PeriodLastWeek:
		mon := StartOfWeek(today).AddDate(0, 0, -7)
		return Window{Start: mon, End: EndOfDay(mon.AddDate(0, 0, 6))}, nil
	case domrepo.PeriodThisMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Window{Start: first, End: EndOfDay(now)}, nil
	case domrepo.PeriodLastMonth:
		first := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
		// day 0 of the current month is the last day of the previous one
		last := time.Date(now.Year(), now.Month(), 0, 0, 0, 0, 0, now.Location())
		return Window{Start: first, End: EndOfDay(last)}, nil
	case domrepo.PeriodThisYear:
		jan1 := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return Window{Start: jan1, End: EndOfDay(now)}, nil
	case domrepo.PeriodLastYear:
		jan1 := time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, now.Location())
		dec31 := time.Date(now.Year()-1, time.December, 31, 0, 0, 0, 0, now.Location())
		return Window{Start: jan1, End: EndOfDay(dec31)}, nil
	default:
		return Window{}, fmt.Errorf("%w: %q", domrepo.ErrUnsupportedPeriod, string(period))
	}
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, endOfDayNanos, t.Location())
}

// StartOfWeek returns midnight of the Monday starting t's week. Sunday
// belongs to the week that began six days earlier.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t).AddDate(0, 0, -offset)
}
