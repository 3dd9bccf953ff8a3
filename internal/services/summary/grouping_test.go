package summary

import (
	"fmt"
	"testing"
	"time"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(amount string, date time.Time) models.Transaction {
	return models.Transaction{
		ID:     uuid.New(),
		Amount: decimal.RequireFromString(amount),
		Date:   date,
	}
}

func TestPeriodKey(t *testing.T) {
	ts := time.Date(2024, time.March, 7, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		g    domrepo.GroupBy
		want string
	}{
		{domrepo.GroupByDay, "2024-03-07"},
		{domrepo.GroupByWeek, "2024-W10"},
		{domrepo.GroupByMonth, "2024-03"},
		{domrepo.GroupByYear, "2024"},
	}
	for _, tt := range tests {
		got, err := PeriodKey(ts, tt.g)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.g)
	}

	_, err := PeriodKey(ts, domrepo.GroupBy("INVALID"))
	assert.ErrorIs(t, err, domrepo.ErrUnsupportedGroupBy)
}

func TestPeriodKeyISOWeekYear(t *testing.T) {
	tests := map[string]string{
		"2023-12-30": "2023-W52",
		"2024-01-01": "2024-W01",
		"2021-01-03": "2020-W53",
		"2024-12-30": "2025-W01",
		"2026-01-01": "2026-W01",
	}
	for in, want := range tests {
		d, err := time.Parse("2006-01-02", in)
		require.NoError(t, err)
		got, err := PeriodKey(d, domrepo.GroupByWeek)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
}

func TestGroupAndSumWeekAcrossYearBoundary(t *testing.T) {
	// Monday 2024-12-30 opens the first ISO week of 2025.
	txs := []models.Transaction{
		tx("10", day(2024, 12, 30)),
		tx("5", day(2025, 1, 2)),
	}
	got, err := GroupAndSum(txs, domrepo.GroupByWeek)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2025-W01", got[0].Period)
	assert.Equal(t, "15", got[0].Total.String())
	assert.Equal(t, 2, got[0].Count)
}

func TestGroupAndSumMonthScenario(t *testing.T) {
	txs := []models.Transaction{
		tx("100", day(2024, 1, 10)),
		tx("-50", day(2024, 1, 20)),
		tx("200", day(2024, 2, 5)),
	}
	got, err := GroupAndSum(txs, domrepo.GroupByMonth)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "2024-01", got[0].Period)
	assert.True(t, got[0].Total.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, day(2024, 1, 10), got[0].StartDate)
	assert.Equal(t, day(2024, 1, 20), got[0].EndDate)

	assert.Equal(t, "2024-02", got[1].Period)
	assert.True(t, got[1].Total.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 1, got[1].Count)
	assert.Equal(t, got[1].StartDate, got[1].EndDate)
}

func TestGroupAndSumFirstSeenOrder(t *testing.T) {
	txs := []models.Transaction{
		tx("1", day(2024, 3, 1)),
		tx("1", day(2024, 1, 1)),
		tx("1", day(2024, 3, 2)),
		tx("1", day(2024, 2, 1)),
	}
	got, err := GroupAndSum(txs, domrepo.GroupByMonth)
	require.NoError(t, err)
	periods := make([]string, 0, len(got))
	for _, g := range got {
		periods = append(periods, g.Period)
	}
	assert.Equal(t, []string{"2024-03", "2024-01", "2024-02"}, periods)
}

func TestGroupAndSumMinMaxDates(t *testing.T) {
	txs := []models.Transaction{
		tx("1", day(2024, 1, 15)),
		tx("1", day(2024, 1, 3)),
		tx("1", day(2024, 1, 28)),
		tx("1", day(2024, 1, 10)),
	}
	got, err := GroupAndSum(txs, domrepo.GroupByMonth)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, day(2024, 1, 3), got[0].StartDate)
	assert.Equal(t, day(2024, 1, 28), got[0].EndDate)
}

func TestGroupAndSumEmpty(t *testing.T) {
	for _, g := range []domrepo.GroupBy{domrepo.GroupByDay, domrepo.GroupByWeek, domrepo.GroupByMonth, domrepo.GroupByYear} {
		got, err := GroupAndSum(nil, g)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestGroupAndSumInvalidGroupBy(t *testing.T) {
	_, err := GroupAndSum(nil, domrepo.GroupBy("INVALID"))
	assert.ErrorIs(t, err, domrepo.ErrUnsupportedGroupBy)

	_, err = GroupAndSum([]models.Transaction{tx("1", day(2024, 1, 1))}, domrepo.GroupBy(""))
	assert.ErrorIs(t, err, domrepo.ErrUnsupportedGroupBy)
}

func TestGroupAndSumYearCount(t *testing.T) {
	var txs []models.Transaction
	for y := 2015; y < 2025; y++ {
		txs = append(txs, tx("1", day(y, 6, 1)), tx("2", day(y, 12, 31)))
	}
	got, err := GroupAndSum(txs, domrepo.GroupByYear)
	require.NoError(t, err)
	require.Len(t, got, 10)
	for i, g := range got {
		assert.Equal(t, fmt.Sprintf("%d", 2015+i), g.Period)
		assert.Equal(t, "3", g.Total.String())
	}
}

func TestGroupAndSumConservesTotal(t *testing.T) {
	amounts := []string{"12.34", "-5.01", "0", "1000", "-999.99", "0.01", "-0.01", "42"}
	var txs []models.Transaction
	sum := decimal.Zero
	for i, a := range amounts {
		txs = append(txs, tx(a, day(2024, time.Month(i%12+1), i+1)))
		sum = sum.Add(decimal.RequireFromString(a))
	}

	for _, g := range []domrepo.GroupBy{domrepo.GroupByDay, domrepo.GroupByWeek, domrepo.GroupByMonth, domrepo.GroupByYear} {
		got, err := GroupAndSum(txs, g)
		require.NoError(t, err)
		total := decimal.Zero
		count := 0
		for _, s := range got {
			total = total.Add(s.Total)
			count += s.Count
		}
		assert.True(t, sum.Equal(total), "%s: want %s got %s", g, sum, total)
		assert.Equal(t, len(txs), count)
	}
}

func TestGroupAndSumSignsFollowFilter(t *testing.T) {
	txs := []models.Transaction{
		tx("5", day(2024, 1, 1)),
		tx("-7", day(2024, 1, 2)),
		tx("0", day(2024, 2, 1)),
		tx("-1", day(2024, 2, 3)),
	}
	income, err := Filter(txs, domrepo.ModeIncome)
	require.NoError(t, err)
	groups, err := GroupAndSum(income, domrepo.GroupByMonth)
	require.NoError(t, err)
	for _, g := range groups {
		assert.False(t, g.Total.IsNegative())
	}

	expense, err := Filter(txs, domrepo.ModeExpense)
	require.NoError(t, err)
	groups, err = GroupAndSum(expense, domrepo.GroupByMonth)
	require.NoError(t, err)
	for _, g := range groups {
		assert.False(t, g.Total.IsPositive())
	}
}

func TestGroupAndSumZeroAmountAndSameTimestamp(t *testing.T) {
	ts := time.Date(2024, time.May, 5, 9, 0, 0, 0, time.UTC)
	txs := []models.Transaction{tx("0", ts), tx("0", ts)}
	got, err := GroupAndSum(txs, domrepo.GroupByDay)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Total.IsZero())
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, ts, got[0].StartDate)
	assert.Equal(t, ts, got[0].EndDate)
}

func TestGroupAndSumIdempotent(t *testing.T) {
	txs := []models.Transaction{
		tx("3", day(2024, 4, 1)),
		tx("-2", day(2024, 4, 8)),
		tx("9", day(2024, 5, 1)),
	}
	a, err := GroupAndSum(txs, domrepo.GroupByWeek)
	require.NoError(t, err)
	b, err := GroupAndSum(txs, domrepo.GroupByWeek)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestInLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// 02:00 UTC on Feb 1 is still Jan 31 in UTC-5.
	txs := []models.Transaction{tx("1", time.Date(2024, time.February, 1, 2, 0, 0, 0, time.UTC))}
	local := InLocation(txs, loc)

	got, err := GroupAndSum(local, domrepo.GroupByMonth)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-01", got[0].Period)
	assert.Equal(t, time.UTC, txs[0].Date.Location())
}
