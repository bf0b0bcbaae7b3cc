package window

import (
	"time"
)

// DefaultGracePeriod is how long a report trigger waits before draining
// the photo buffer, so a burst of photos sent together finishes arriving.
const DefaultGracePeriod = 5 * time.Second

// Countdown is the time remaining until the next report window opens,
// decomposed for the user-facing reply.
type Countdown struct {
	Days    int
	Hours   int
	Minutes int
}

// Policy decides whether a moment falls inside the weekly reporting
// window. The window is the whole configured weekday in the configured
// timezone, opening at 00:00 local time.
type Policy struct {
	weekday time.Weekday
	loc     *time.Location
}

// New creates a policy for the given report weekday and timezone.
func New(weekday time.Weekday, loc *time.Location) *Policy {
	if loc == nil {
		loc = time.UTC
	}
	return &Policy{weekday: weekday, loc: loc}
}

// IsReportDay reports whether now falls on the report weekday,
// independent of time-of-day.
func (p *Policy) IsReportDay(now time.Time) bool {
	return now.In(p.loc).Weekday() == p.weekday
}

// UntilNextWindow computes the remaining time to the next opening of the
// report window (report weekday, 00:00 local). On the report day itself
// the current window is already open, so it rolls a full week forward,
// never returning zero.
func (p *Policy) UntilNextWindow(now time.Time) Countdown {
	local := now.In(p.loc)

	days := (int(p.weekday) - int(local.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}

	target := local.AddDate(0, 0, days)
	next := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, p.loc)

	remaining := next.Sub(local)
	totalMinutes := int(remaining.Minutes())
	return Countdown{
		Days:    totalMinutes / (24 * 60),
		Hours:   (totalMinutes / 60) % 24,
		Minutes: totalMinutes % 60,
	}
}

// Location returns the policy's timezone, shared with the jobs that
// schedule on local wall-clock time.
func (p *Policy) Location() *time.Location {
	return p.loc
}
