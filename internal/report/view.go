package report

import (
	"sort"
	"strings"

	"photoreport-bot/internal/locales"
	"photoreport-bot/internal/storage"

	"github.com/nicksnyder/go-i18n/v2/i18n"
)

const blockSeparator = "-------------------------"

// FormatDay builds the admin view for one report date: a block per
// registered group showing whether its report landed. Groups are
// iterated from the registry so a missing report shows as ❌ instead of
// being silently omitted. Backfilled zero-photo placeholders render as
// missing too.
func FormatDay(localizer *i18n.Localizer, date string, groups []storage.Group, reports map[int64]storage.Report) string {
	sorted := make([]storage.Group, len(groups))
	copy(sorted, groups)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].ChatID < sorted[j].ChatID
	})

	var b strings.Builder
	b.WriteString(locales.GetMessage(localizer, "MsgReportsForDateHeader", map[string]interface{}{"Date": date}, nil))
	b.WriteString("\n\n")

	noData := locales.GetMessage(localizer, "MsgNoData", nil, nil)
	for _, group := range sorted {
		statusLine := locales.GetMessage(localizer, "MsgStatusMissing", nil, nil)
		lastReport := noData
		if rep, ok := reports[group.ChatID]; ok && rep.Accepted() {
			statusLine = locales.GetMessage(localizer, "MsgStatusReceived", map[string]interface{}{"PhotoCount": rep.PhotoCount}, nil)
			lastReport = rep.ReportTime
		}

		b.WriteString(locales.GetMessage(localizer, "MsgGroupLine", map[string]interface{}{"Name": group.Name}, nil))
		b.WriteString("\n")
		b.WriteString(statusLine)
		b.WriteString("\n")
		b.WriteString(locales.GetMessage(localizer, "MsgLastReportLine", map[string]interface{}{"Time": lastReport}, nil))
		b.WriteString("\n")
		b.WriteString(blockSeparator)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
