package summary

import (
	"testing"
	"time"

	domrepo "FinTrack/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-06-15 is a Sunday.
var sunday = time.Date(2025, time.June, 15, 14, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func eod(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 23, 59, 59, 999_000_000, time.UTC)
}

func TestNamedWindow(t *testing.T) {
	tests := []struct {
		period domrepo.Period
		now    time.Time
		want   Window
	}{
		{domrepo.PeriodToday, sunday, Window{day(2025, 6, 15), eod(2025, 6, 15)}},
		{domrepo.PeriodYesterday, sunday, Window{day(2025, 6, 14), eod(2025, 6, 14)}},
		{domrepo.PeriodThisWeek, sunday, Window{day(2025, 6, 9), eod(2025, 6, 15)}},
		{domrepo.PeriodLastWeek, sunday, Window{day(2025, 6, 2), eod(2025, 6, 8)}},
		{domrepo.PeriodThisMonth, sunday, Window{day(2025, 6, 1), eod(2025, 6, 15)}},
		{domrepo.PeriodLastMonth, sunday, Window{day(2025, 5, 1), eod(2025, 5, 31)}},
		{domrepo.PeriodThisYear, sunday, Window{day(2025, 1, 1), eod(2025, 6, 15)}},
		{domrepo.PeriodLastYear, sunday, Window{day(2024, 1, 1), eod(2024, 12, 31)}},
		// Monday is the first day of its own week.
		{domrepo.PeriodThisWeek, day(2025, 6, 9), Window{day(2025, 6, 9), eod(2025, 6, 9)}},
		// January rolls back into the previous year.
		{domrepo.PeriodLastMonth, day(2025, 1, 10), Window{day(2024, 12, 1), eod(2024, 12, 31)}},
		{domrepo.PeriodLastMonth, day(2024, 3, 31), Window{day(2024, 2, 1), eod(2024, 2, 29)}},
		{domrepo.PeriodYesterday, day(2025, 1, 1), Window{day(2024, 12, 31), eod(2024, 12, 31)}},
	}
	for _, tt := range tests {
		t.Run(string(tt.period)+"/"+tt.now.Format("2006-01-02"), func(t *testing.T) {
			got, err := NamedWindow(tt.now, tt.period)
			require.NoError(t, err)
			assert.True(t, tt.want.Start.Equal(got.Start), "start: want %s got %s", tt.want.Start, got.Start)
			assert.True(t, tt.want.End.Equal(got.End), "end: want %s got %s", tt.want.End, got.End)
		})
	}
}

func TestNamedWindowUsesClockLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 2025-06-15 20:00 UTC is already Monday 2025-06-16 in UTC+9.
	now := time.Date(2025, time.June, 15, 20, 0, 0, 0, time.UTC).In(loc)

	w, err := NamedWindow(now, domrepo.PeriodToday)
	require.NoError(t, err)
	assert.Equal(t, 16, w.Start.Day())
	assert.Equal(t, loc, w.Start.Location())
}

func TestResolveWindow(t *testing.T) {
	start := day(2024, 1, 1)
	end := day(2024, 2, 1)

	t.Run("period wins over explicit bounds", func(t *testing.T) {
		w, err := ResolveWindow(sunday, domrepo.PeriodToday, &start, &end)
		require.NoError(t, err)
		assert.True(t, w.Start.Equal(day(2025, 6, 15)))
	})

	t.Run("explicit bounds are used verbatim", func(t *testing.T) {
		w, err := ResolveWindow(sunday, "", &start, &end)
		require.NoError(t, err)
		assert.Equal(t, start, w.Start)
		assert.Equal(t, end, w.End)
	})

	t.Run("missing start defaults to epoch", func(t *testing.T) {
		w, err := ResolveWindow(sunday, "", nil, &end)
		require.NoError(t, err)
		assert.Equal(t, int64(0), w.Start.Unix())
		assert.Equal(t, end, w.End)
	})

	t.Run("missing end defaults to now", func(t *testing.T) {
		w, err := ResolveWindow(sunday, "", &start, nil)
		require.NoError(t, err)
		assert.Equal(t, start, w.Start)
		assert.Equal(t, sunday, w.End)
	})

	t.Run("unknown period", func(t *testing.T) {
		_, err := ResolveWindow(sunday, domrepo.Period("fortnight"), nil, nil)
		assert.ErrorIs(t, err, domrepo.ErrUnsupportedPeriod)
	})
}

func TestWindowContains(t *testing.T) {
	w := Window{Start: day(2025, 5, 1), End: eod(2025, 5, 31)}
	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(w.End))
	assert.True(t, w.Contains(day(2025, 5, 15)))
	assert.False(t, w.Contains(day(2025, 6, 1)))
	assert.False(t, w.Contains(w.Start.Add(-time.Millisecond)))
}

func TestStartOfWeekSundayBelongsToPreviousMonday(t *testing.T) {
	for d := 9; d <= 15; d++ {
		got := StartOfWeek(time.Date(2025, time.June, d, 12, 0, 0, 0, time.UTC))
		assert.True(t, got.Equal(day(2025, 6, 9)), "day %d -> %s", d, got)
	}
}
