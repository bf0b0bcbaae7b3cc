package storage

import (
	"log"
	"sort"
	"strconv"
	"sync"
	"time"
)

const (
	// DateLayout is the calendar-day key format used in the archive file.
	DateLayout = "02-01-2006"
	// TimeLayout is the clock-time format of accepted reports.
	TimeLayout = "15:04"
	// TimeNotSent marks a backfilled placeholder record for a day with
	// no accepted report. Stored as data, so it survives in the file the
	// same way the original deployments wrote it.
	TimeNotSent = "Не отправлен"

	// DefaultRetention is how long archived reports are kept.
	DefaultRetention = 60 * 24 * time.Hour
)

// Report is an immutable archival record: one per chat and calendar day.
type Report struct {
	GroupID    int64  `json:"group_id"`
	GroupName  string `json:"group_name"`
	ReportDate string `json:"report_date"` // DateLayout
	ReportTime string `json:"report_time"` // TimeLayout or TimeNotSent
	PhotoCount int    `json:"photo_count"`
}

// Accepted reports whether the record carries actually received photos,
// as opposed to a backfilled placeholder.
func (r Report) Accepted() bool {
	return r.PhotoCount > 0
}

// Archive is the durable report store: a JSON object mapping chat ID to
// that chat's report history. All mutations rewrite the file atomically.
type Archive struct {
	mu      sync.Mutex
	path    string
	reports map[int64][]Report
}

// NewArchive loads the archive from path, creating an empty file if none
// exists. A corrupt file yields an empty archive with the original bytes
// preserved alongside.
func NewArchive(path string) (*Archive, error) {
	raw := make(map[string][]Report)
	if err := loadJSON(path, &raw); err != nil {
		return nil, err
	}

	reports := make(map[int64][]Report, len(raw))
	for key, history := range raw {
		chatID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			log.Printf("[Archive] Skipping history with bad chat ID %q: %v", key, err)
			continue
		}
		reports[chatID] = history
	}
	return &Archive{path: path, reports: reports}, nil
}

// Commit durably appends the report to the chat's history. At most one
// record exists per (chat, calendar day): a second commit on the same day
// replaces the first and is logged as an override.
func (a *Archive) Commit(rep Report) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	prev, had := a.reports[rep.GroupID]
	history := make([]Report, len(prev))
	copy(history, prev)

	replaced := false
	for i, existing := range history {
		if existing.ReportDate == rep.ReportDate {
			history[i] = rep
			replaced = true
			break
		}
	}
	if !replaced {
		history = append(history, rep)
	}
	a.reports[rep.GroupID] = history

	if err := a.flushLocked(); err != nil {
		// Memory and disk must agree: otherwise Has and ByDate would
		// report a record that was never persisted.
		if had {
			a.reports[rep.GroupID] = prev
		} else {
			delete(a.reports, rep.GroupID)
		}
		return err
	}
	if replaced {
		log.Printf("[Archive Chat:%d] Override: replaced report for %s (now %d photo(s))", rep.GroupID, rep.ReportDate, rep.PhotoCount)
	} else {
		log.Printf("[Archive Chat:%d] Committed report for %s (%d photo(s))", rep.GroupID, rep.ReportDate, rep.PhotoCount)
	}
	return nil
}

// Has reports whether the chat already has a record for the given day.
func (a *Archive) Has(chatID int64, date string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, rep := range a.reports[chatID] {
		if rep.ReportDate == date {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the archive holds no records at all.
func (a *Archive) IsEmpty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, history := range a.reports {
		if len(history) > 0 {
			return false
		}
	}
	return true
}

// ByDate returns, per chat, the record matching the given calendar day.
// Chats without a record for that day are simply absent; the view layer
// synthesizes the "no report" placeholder from the registry.
func (a *Archive) ByDate(date string) map[int64]Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	found := make(map[int64]Report)
	for chatID, history := range a.reports {
		for _, rep := range history {
			if rep.ReportDate == date {
				found[chatID] = rep
				break
			}
		}
	}
	return found
}

// MonthDates returns the distinct report dates falling within the given
// month, sorted chronologically. Records with unparseable dates are
// logged and skipped, never fatal.
func (a *Archive) MonthDates(year int, month time.Month) []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	seen := make(map[string]time.Time)
	for chatID, history := range a.reports {
		for _, rep := range history {
			day, err := time.Parse(DateLayout, rep.ReportDate)
			if err != nil {
				log.Printf("[Archive Chat:%d] Skipping record with bad date %q: %v", chatID, rep.ReportDate, err)
				continue
			}
			if day.Year() == year && day.Month() == month {
				seen[rep.ReportDate] = day
			}
		}
	}

	dates := make([]string, 0, len(seen))
	for date := range seen {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool {
		return seen[dates[i]].Before(seen[dates[j]])
	})
	return dates
}

// LatestDate returns the most recent report date across all chats,
// or false when the archive is empty.
func (a *Archive) LatestDate() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var latest time.Time
	var latestStr string
	for chatID, history := range a.reports {
		for _, rep := range history {
			day, err := time.Parse(DateLayout, rep.ReportDate)
			if err != nil {
				log.Printf("[Archive Chat:%d] Skipping record with bad date %q: %v", chatID, rep.ReportDate, err)
				continue
			}
			if latestStr == "" || day.After(latest) {
				latest = day
				latestStr = rep.ReportDate
			}
		}
	}
	return latestStr, latestStr != ""
}

// DeleteGroup removes the chat's entire history, the archive half of the
// unregister cascade.
func (a *Archive) DeleteGroup(chatID int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.reports[chatID]; !ok {
		return nil
	}
	delete(a.reports, chatID)
	return a.flushLocked()
}

// PurgeOlderThan deletes records older than the retention horizon. A
// chat's history entry is removed only when it becomes empty. Records
// with unparseable dates are dropped too, after logging.
func (a *Archive) PurgeOlderThan(now time.Time, retention time.Duration) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := now.Add(-retention)
	purged := 0
	for chatID, history := range a.reports {
		kept := history[:0]
		for _, rep := range history {
			day, err := time.Parse(DateLayout, rep.ReportDate)
			if err != nil {
				log.Printf("[Archive Chat:%d] Purging record with bad date %q: %v", chatID, rep.ReportDate, err)
				continue
			}
			if !day.Before(cutoff) {
				kept = append(kept, rep)
			}
		}
		purged += len(history) - len(kept)
		if len(kept) == 0 {
			delete(a.reports, chatID)
		} else {
			a.reports[chatID] = kept
		}
	}

	if purged == 0 {
		return nil
	}
	if err := a.flushLocked(); err != nil {
		return err
	}
	log.Printf("[Archive] Purged %d report(s) older than %s", purged, cutoff.Format(DateLayout))
	return nil
}

func (a *Archive) flushLocked() error {
	raw := make(map[string][]Report, len(a.reports))
	for chatID, history := range a.reports {
		raw[strconv.FormatInt(chatID, 10)] = history
	}
	return saveJSON(a.path, raw)
}
