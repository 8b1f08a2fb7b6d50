package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTypicalIntervalDays_RegularWeekly(t *testing.T) {
	dates := []time.Time{
		day(2026, 1, 4),
		day(2026, 1, 11),
		day(2026, 1, 18),
		day(2026, 1, 25),
		day(2026, 2, 1),
	}

	days, ok := TypicalIntervalDays(dates)
	assert.True(t, ok)
	assert.Equal(t, 7, days)
}

func TestTypicalIntervalDays_OutlierGapIgnored(t *testing.T) {
	// Daily issues with one month-long gap; the gap falls outside the
	// IQR fence and must not distort the estimate.
	dates := []time.Time{
		day(2026, 1, 1),
		day(2026, 1, 2),
		day(2026, 1, 3),
		day(2026, 1, 4),
		day(2026, 2, 3),
	}

	days, ok := TypicalIntervalDays(dates)
	assert.True(t, ok)
	assert.Equal(t, 1, days)
}

func TestTypicalIntervalDays_HourRemainderRoundsUp(t *testing.T) {
	// Deltas of 1, 2 and 2 days average to 1d16h, which reads as 2 days.
	dates := []time.Time{
		day(2026, 3, 1),
		day(2026, 3, 2),
		day(2026, 3, 4),
		day(2026, 3, 6),
	}

	days, ok := TypicalIntervalDays(dates)
	assert.True(t, ok)
	assert.Equal(t, 2, days)
}

func TestTypicalIntervalDays_SubDayBecomesOne(t *testing.T) {
	base := time.Date(2026, 5, 1, 6, 0, 0, 0, time.UTC)
	dates := []time.Time{base, base.Add(6 * time.Hour), base.Add(12 * time.Hour)}

	days, ok := TypicalIntervalDays(dates)
	assert.True(t, ok)
	assert.Equal(t, 1, days)
}

func TestTypicalIntervalDays_TooFewDates(t *testing.T) {
	_, ok := TypicalIntervalDays(nil)
	assert.False(t, ok)

	_, ok = TypicalIntervalDays([]time.Time{day(2026, 1, 1)})
	assert.False(t, ok)
}
