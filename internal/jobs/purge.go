package jobs

import (
	"context"
	"time"

	"photoreport-bot/internal/storage"
)

const purgeName = "archive-purge"

// ArchivePurge drops archived reports past the retention horizon,
// daily at 00:05 local time.
type ArchivePurge struct {
	archive   *storage.Archive
	retention time.Duration
	loc       *time.Location
}

// NewArchivePurge creates the retention job with the default 60-day
// horizon.
func NewArchivePurge(archive *storage.Archive, loc *time.Location) *ArchivePurge {
	return &ArchivePurge{
		archive:   archive,
		retention: storage.DefaultRetention,
		loc:       loc,
	}
}

func (j *ArchivePurge) Name() string {
	return purgeName
}

func (j *ArchivePurge) NextRun(now time.Time) time.Time {
	return nextDailyAt(now, j.loc, 0, 5)
}

func (j *ArchivePurge) Run(_ context.Context) error {
	return j.archive.PurgeOlderThan(time.Now(), j.retention)
}
