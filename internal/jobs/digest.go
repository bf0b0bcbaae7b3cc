package jobs

import (
	"context"
	"log"
	"time"

	"photoreport-bot/internal/auth"
	"photoreport-bot/internal/locales"
	"photoreport-bot/internal/report"
	"photoreport-bot/internal/storage"
	"photoreport-bot/pkg/telegoapi"

	tu "github.com/mymmrac/telego/telegoutil"
)

const digestName = "admin-digest"

// AdminDigest sends every admin the per-group status for the most recent
// report day, weekly on Sunday at 12:00 local time. A failure to reach
// one admin is logged and the loop continues: partial delivery is
// acceptable, there are no retries.
type AdminDigest struct {
	bot      telegoapi.BotAPI
	admins   *auth.AdminChecker
	registry *storage.Registry
	archive  *storage.Archive
	loc      *time.Location
}

// NewAdminDigest creates the weekly dispatch job.
func NewAdminDigest(bot telegoapi.BotAPI, admins *auth.AdminChecker, registry *storage.Registry, archive *storage.Archive, loc *time.Location) *AdminDigest {
	return &AdminDigest{
		bot:      bot,
		admins:   admins,
		registry: registry,
		archive:  archive,
		loc:      loc,
	}
}

func (j *AdminDigest) Name() string {
	return digestName
}

func (j *AdminDigest) NextRun(now time.Time) time.Time {
	return nextWeekdayAt(now, j.loc, time.Sunday, 12, 0)
}

func (j *AdminDigest) Run(ctx context.Context) error {
	localizer := locales.NewLocalizer(locales.DefaultLanguage)

	var text string
	if latest, ok := j.archive.LatestDate(); ok {
		text = report.FormatDay(localizer, latest, j.registry.ListAll(), j.archive.ByDate(latest))
	} else {
		text = locales.GetMessage(localizer, "MsgNoReportsToSend", nil, nil)
	}

	delivered := 0
	for _, adminID := range j.admins.AdminIDs() {
		if _, err := j.bot.SendMessage(ctx, tu.Message(tu.ID(adminID), text)); err != nil {
			log.Printf("[Digest Admin:%d] Delivery failed: %v", adminID, err)
			continue
		}
		delivered++
	}
	log.Printf("[Digest] Delivered to %d/%d admin(s)", delivered, len(j.admins.AdminIDs()))
	return nil
}
