package repository

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedGroupBy    = errors.New("unsupported groupBy")
	ErrUnsupportedPeriod     = errors.New("unsupported period")
	ErrUnsupportedFilterMode = errors.New("unsupported filter mode")
)

// GroupBy is the calendar unit transactions are bucketed by.
type GroupBy string

const (
	GroupByDay   GroupBy = "day"
	GroupByWeek  GroupBy = "week"
	GroupByMonth GroupBy = "month"
	GroupByYear  GroupBy = "year"
)

// IsValid returns true if g is a supported grouping unit.
func (g GroupBy) IsValid() bool {
	switch g {
	case GroupByDay, GroupByWeek, GroupByMonth, GroupByYear:
		return true
	default:
		return false
	}
}

// DefaultGroupBy returns the grouping used when none is requested.
func DefaultGroupBy() GroupBy { return GroupByMonth }

// ParseGroupBy converts a raw value into a GroupBy. Empty input yields the default.
func ParseGroupBy(s string) (GroupBy, error) {
	if s == "" {
		return DefaultGroupBy(), nil
	}
	g := GroupBy(strings.ToLower(strings.TrimSpace(s)))
	if !g.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedGroupBy, s)
	}
	return g, nil
}

// Period names a date window relative to the current instant.
type Period string

const (
	PeriodToday     Period = "today"
	PeriodYesterday Period = "yesterday"
	PeriodThisWeek  Period = "thisweek"
	PeriodLastWeek  Period = "lastweek"
	PeriodThisMonth Period = "thismonth"
	PeriodLastMonth Period = "lastmonth"
	PeriodThisYear  Period = "thisyear"
	PeriodLastYear  Period = "lastyear"
)

func (p Period) IsValid() bool {
	switch p {
	case PeriodToday, PeriodYesterday, PeriodThisWeek, PeriodLastWeek,
		PeriodThisMonth, PeriodLastMonth, PeriodThisYear, PeriodLastYear:
		return true
	default:
		return false
	}
}

// ParsePeriod converts a raw value into a Period. Empty input means no named
// period and returns "" without error.
func ParsePeriod(s string) (Period, error) {
	if s == "" {
		return "", nil
	}
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPeriod, s)
	}
	return p, nil
}

// FilterMode selects which transactions take part in a summary.
type FilterMode string

const (
	ModeAll     FilterMode = "all"
	ModeIncome  FilterMode = "income"
	ModeExpense FilterMode = "expense"
)

func ParseFilterMode(s string) (FilterMode, error) {
	if s == "" {
		return ModeAll, nil
	}
	m := FilterMode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeAll, ModeIncome, ModeExpense:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFilterMode, s)
	}
}
