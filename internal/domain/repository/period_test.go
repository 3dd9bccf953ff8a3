package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGroupBy(t *testing.T) {
	tests := []struct {
		in      string
		want    GroupBy
		wantErr bool
	}{
		{in: "", want: GroupByMonth},
		{in: "day", want: GroupByDay},
		{in: "WEEK", want: GroupByWeek},
		{in: " year ", want: GroupByYear},
		{in: "INVALID", wantErr: true},
		{in: "quarter", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGroupBy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnsupportedGroupBy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, Period(""), p)

	p, err = ParsePeriod("LastMonth")
	require.NoError(t, err)
	assert.Equal(t, PeriodLastMonth, p)

	_, err = ParsePeriod("fortnight")
	assert.ErrorIs(t, err, ErrUnsupportedPeriod)
}

func TestParseFilterMode(t *testing.T) {
	m, err := ParseFilterMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAll, m)

	m, err = ParseFilterMode("expense")
	require.NoError(t, err)
	assert.Equal(t, ModeExpense, m)

	_, err = ParseFilterMode("net")
	assert.ErrorIs(t, err, ErrUnsupportedFilterMode)
}
