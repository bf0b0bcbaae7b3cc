package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kyiv(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Kiev")
	require.NoError(t, err)
	return loc
}

func TestIsReportDay(t *testing.T) {
	loc := kyiv(t)
	p := New(time.Friday, loc)

	// 2025-03-07 is a Friday.
	friday := time.Date(2025, 3, 7, 0, 0, 0, 0, loc)
	for hour := 0; hour < 24; hour++ {
		assert.True(t, p.IsReportDay(friday.Add(time.Duration(hour)*time.Hour)),
			"hour %d should still be the report day", hour)
	}

	assert.False(t, p.IsReportDay(friday.AddDate(0, 0, 1)))
	assert.False(t, p.IsReportDay(friday.AddDate(0, 0, -1)))
}

func TestIsReportDayRespectsTimezone(t *testing.T) {
	loc := kyiv(t)
	p := New(time.Friday, loc)

	// Thursday 23:00 UTC is already Friday 01:00 in Kyiv (UTC+2).
	lateThursdayUTC := time.Date(2025, 3, 6, 23, 0, 0, 0, time.UTC)
	assert.True(t, p.IsReportDay(lateThursdayUTC))
}

func TestUntilNextWindow(t *testing.T) {
	loc := kyiv(t)
	p := New(time.Friday, loc)

	// Wednesday 12:30 → Friday 00:00 is 1 day 11 hours 30 minutes away.
	wednesday := time.Date(2025, 3, 5, 12, 30, 0, 0, loc)
	cd := p.UntilNextWindow(wednesday)
	assert.Equal(t, Countdown{Days: 1, Hours: 11, Minutes: 30}, cd)
}

func TestUntilNextWindowRollsFullWeekOnReportDay(t *testing.T) {
	loc := kyiv(t)
	p := New(time.Friday, loc)

	// On the report day itself the next window is a full week out, never zero.
	friday := time.Date(2025, 3, 7, 0, 0, 0, 0, loc)
	cd := p.UntilNextWindow(friday)
	assert.Equal(t, Countdown{Days: 7, Hours: 0, Minutes: 0}, cd)

	lateFriday := time.Date(2025, 3, 7, 23, 45, 0, 0, loc)
	cd = p.UntilNextWindow(lateFriday)
	assert.Equal(t, Countdown{Days: 6, Hours: 0, Minutes: 15}, cd)
}

func TestUntilNextWindowAlwaysPositiveAndBounded(t *testing.T) {
	loc := kyiv(t)
	p := New(time.Friday, loc)

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, loc)
	for i := 0; i < 14*24; i++ {
		now := start.Add(time.Duration(i) * time.Hour)
		cd := p.UntilNextWindow(now)
		total := cd.Days*24*60 + cd.Hours*60 + cd.Minutes
		assert.Greater(t, total, 0, "countdown at %v must be positive", now)
		assert.LessOrEqual(t, total, 7*24*60, "countdown at %v must fit one period", now)
	}
}
