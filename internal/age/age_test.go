package age

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestYearsAroundBirthday(t *testing.T) {
	birth := date(2020, time.June, 15)

	require.Equal(t, 3, Years(birth, date(2024, time.June, 14)))
	require.Equal(t, 4, Years(birth, date(2024, time.June, 15)))
	require.Equal(t, 4, Years(birth, date(2024, time.June, 16)))
}

func TestYearsEarlierMonth(t *testing.T) {
	birth := date(2019, time.November, 2)
	require.Equal(t, 4, Years(birth, date(2024, time.March, 1)))
}

func TestMonthsHasNoDayAdjustment(t *testing.T) {
	birth := date(2023, time.January, 31)
	require.Equal(t, 2, Months(birth, date(2023, time.March, 1)))
}

func TestMonthsAcrossYears(t *testing.T) {
	birth := date(2022, time.October, 10)
	require.Equal(t, 15, Months(birth, date(2024, time.January, 5)))
}

func TestDaysIgnoresTimeOfDay(t *testing.T) {
	birth := time.Date(2024, time.January, 1, 23, 30, 0, 0, time.UTC)
	today := time.Date(2024, time.January, 3, 0, 5, 0, 0, time.UTC)
	require.Equal(t, 2, Days(birth, today))
}

func TestFutureBirthDateGoesNegative(t *testing.T) {
	birth := date(2030, time.January, 1)
	today := date(2024, time.June, 1)

	got := Compute(birth, today)
	require.Negative(t, got.Years)
	require.Negative(t, got.Months)
	require.Negative(t, got.Days)
}

func TestComputeAggregates(t *testing.T) {
	birth := date(2021, time.March, 10)
	today := date(2024, time.March, 10)

	got := Compute(birth, today)
	require.Equal(t, 3, got.Years)
	require.Equal(t, 36, got.Months)
	require.Equal(t, 1096, got.Days) // 2024 is a leap year
}
