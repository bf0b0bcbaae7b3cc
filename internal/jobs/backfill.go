package jobs

import (
	"context"
	"log"
	"time"

	"photoreport-bot/internal/storage"
	"photoreport-bot/internal/window"
)

const backfillName = "empty-report-backfill"

// EmptyReportBackfill writes a zero-photo placeholder for every
// registered group that sent nothing on the report day, at 23:59 local
// time, so the admin views show an explicit ❌ instead of a gap.
// It never overwrites an accepted report.
type EmptyReportBackfill struct {
	registry *storage.Registry
	archive  *storage.Archive
	policy   *window.Policy
	weekday  time.Weekday
	clock    func() time.Time
}

// NewEmptyReportBackfill creates the backfill job. clock may be nil and
// defaults to time.Now.
func NewEmptyReportBackfill(registry *storage.Registry, archive *storage.Archive, policy *window.Policy, weekday time.Weekday, clock func() time.Time) *EmptyReportBackfill {
	if clock == nil {
		clock = time.Now
	}
	return &EmptyReportBackfill{
		registry: registry,
		archive:  archive,
		policy:   policy,
		weekday:  weekday,
		clock:    clock,
	}
}

func (j *EmptyReportBackfill) Name() string {
	return backfillName
}

func (j *EmptyReportBackfill) NextRun(now time.Time) time.Time {
	return nextWeekdayAt(now, j.policy.Location(), j.weekday, 23, 59)
}

func (j *EmptyReportBackfill) Run(_ context.Context) error {
	now := j.clock()
	// Guard against clock drift between scheduling and firing: only the
	// report day itself gets placeholders.
	if !j.policy.IsReportDay(now) {
		return nil
	}

	today := now.In(j.policy.Location()).Format(storage.DateLayout)
	created := 0
	for _, group := range j.registry.ListAll() {
		if j.archive.Has(group.ChatID, today) {
			continue
		}
		rep := storage.Report{
			GroupID:    group.ChatID,
			GroupName:  group.Name,
			ReportDate: today,
			ReportTime: storage.TimeNotSent,
			PhotoCount: 0,
		}
		if err := j.archive.Commit(rep); err != nil {
			return err
		}
		created++
	}
	if created > 0 {
		log.Printf("[Backfill] Created %d empty report(s) for %s", created, today)
	}
	return nil
}
