package summary

import (
	"fmt"
	"time"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"
)

// PeriodKey labels the bucket t falls into for the grouping unit g.
// Weeks use the ISO-8601 week-numbering year, so 2024-12-30 is "2025-W01".
func PeriodKey(t time.Time, g domrepo.GroupBy) (string, error) {
	switch g {
	case domrepo.GroupByDay:
		return t.Format("2006-01-02"), nil
	case domrepo.GroupByWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week), nil
	case domrepo.GroupByMonth:
		return t.Format("2006-01"), nil
	case domrepo.GroupByYear:
		return fmt.Sprintf("%04d", t.Year()), nil
	default:
		return "", fmt.Errorf("%w: %q", domrepo.ErrUnsupportedGroupBy, string(g))
	}
}

// orderedGroups keeps summaries in the order their keys were first seen.
type orderedGroups struct {
	index  map[string]int
	groups []models.GroupSummary
}

func newOrderedGroups() *orderedGroups {
	return &orderedGroups{index: make(map[string]int)}
}

func (o *orderedGroups) add(key string, t models.Transaction) {
	i, ok := o.index[key]
	if !ok {
		o.index[key] = len(o.groups)
		o.groups = append(o.groups, models.GroupSummary{
			Period:    key,
			Total:     t.Amount,
			Count:     1,
			StartDate: t.Date,
			EndDate:   t.Date,
		})
		return
	}
	g := &o.groups[i]
	g.Total = g.Total.Add(t.Amount)
	g.Count++
	if t.Date.Before(g.StartDate) {
		g.StartDate = t.Date
	}
	if t.Date.After(g.EndDate) {
		g.EndDate = t.Date
	}
}

// GroupAndSum buckets transactions by period key and reduces every bucket to
// its signed total, member count and date span. Groups are returned in
// first-seen order; empty input yields an empty, non-nil slice.
func GroupAndSum(txs []models.Transaction, g domrepo.GroupBy) ([]models.GroupSummary, error) {
	if !g.IsValid() {
		return nil, fmt.Errorf("%w: %q", domrepo.ErrUnsupportedGroupBy, string(g))
	}
	groups := newOrderedGroups()
	for _, t := range txs {
		key, err := PeriodKey(t.Date, g)
		if err != nil {
			return nil, err
		}
		groups.add(key, t)
	}
	if groups.groups == nil {
		return []models.GroupSummary{}, nil
	}
	return groups.groups, nil
}

// InLocation returns a copy of txs with every date converted to loc so that
// period keys follow that location's calendar.
func InLocation(txs []models.Transaction, loc *time.Location) []models.Transaction {
	if loc == nil {
		return txs
	}
	out := make([]models.Transaction, len(txs))
	for i, t := range txs {
		t.Date = t.Date.In(loc)
		out[i] = t
	}
	return out
}
