package jobs

import (
	"context"
	"time"
)

// Job is a named periodic task with its own schedule.
type Job interface {
	Name() string
	NextRun(now time.Time) time.Time
	Run(ctx context.Context) error
}

// nextWeekdayAt returns the next occurrence of weekday at hh:mm local
// time, rolling a full week forward when that moment already passed
// today.
func nextWeekdayAt(now time.Time, loc *time.Location, weekday time.Weekday, hour, minute int) time.Time {
	local := now.In(loc)

	days := (int(weekday) - int(local.Weekday()) + 7) % 7
	candidate := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc).AddDate(0, 0, days)
	if !candidate.After(local) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// nextDailyAt returns the next occurrence of hh:mm local time.
func nextDailyAt(now time.Time, loc *time.Location, hour, minute int) time.Time {
	local := now.In(loc)

	candidate := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !candidate.After(local) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}
