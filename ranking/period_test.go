package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name    string
		year    string
		month   string
		want    Period
		wantErr bool
	}{
		{name: "empty is global", want: Global()},
		{name: "year only", year: "2024", want: ForYear(2024)},
		{name: "year and month", year: "2024", month: "3", want: ForMonth(2024, 3)},
		{name: "padded month", year: " 2024 ", month: "03", want: ForMonth(2024, 3)},
		{name: "month without year", month: "3", wantErr: true},
		{name: "month out of range", year: "2024", month: "13", wantErr: true},
		{name: "month zero", year: "2024", month: "0", wantErr: true},
		{name: "garbage year", year: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePeriod(tt.year, tt.month)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsInvalidPeriod(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPeriodBounds(t *testing.T) {
	start, end, ok := ForMonth(2024, 2).Bounds()
	require.True(t, ok)
	assert.Equal(t, date(2024, 2, 1), start)
	assert.Equal(t, date(2024, 2, 29), end)

	start, end, ok = ForYear(2023).Bounds()
	require.True(t, ok)
	assert.Equal(t, date(2023, 1, 1), start)
	assert.Equal(t, date(2023, 12, 31), end)

	_, _, ok = Global().Bounds()
	assert.False(t, ok)
}

func TestPeriodMatches(t *testing.T) {
	tests := []struct {
		name   string
		period Period
		start  time.Time
		end    time.Time
		want   bool
	}{
		{"global matches anything", Global(), date(1999, 1, 1), date(1999, 1, 2), true},
		{"inside month", ForMonth(2024, 3), date(2024, 3, 5), date(2024, 3, 20), true},
		{"starts in previous month", ForMonth(2024, 3), date(2024, 2, 20), date(2024, 3, 10), true},
		{"ends in next month", ForMonth(2024, 3), date(2024, 3, 25), date(2024, 4, 10), true},
		{"covers whole month", ForMonth(2024, 3), date(2024, 1, 1), date(2024, 6, 30), true},
		{"before month", ForMonth(2024, 3), date(2024, 1, 1), date(2024, 2, 29), false},
		{"after month", ForMonth(2024, 3), date(2024, 4, 1), date(2024, 4, 30), false},
		{"open window started earlier", ForMonth(2024, 3), date(2023, 12, 1), time.Time{}, true},
		{"open window starting later", ForMonth(2024, 3), date(2024, 5, 1), time.Time{}, false},
		{"year boundary", ForYear(2024), date(2023, 12, 15), date(2024, 1, 15), true},
		{"other year", ForYear(2024), date(2023, 1, 1), date(2023, 12, 31), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.period.Matches(tt.start, tt.end))
		})
	}
}

func TestPeriodKeyAndLabel(t *testing.T) {
	assert.Equal(t, "global", Global().Key())
	assert.Equal(t, "year:2024", ForYear(2024).Key())
	assert.Equal(t, "month:2024-03", ForMonth(2024, 3).Key())

	assert.Equal(t, "Global", Global().Label())
	assert.Equal(t, "Marzo 2024", ForMonth(2024, 3).Label())
	assert.Equal(t, "", MonthName(13))
}
