package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := NewArchive(filepath.Join(t.TempDir(), "archive_reports.json"))
	require.NoError(t, err)
	return a
}

func TestCommitAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive_reports.json")

	a, err := NewArchive(path)
	require.NoError(t, err)

	rep := Report{GroupID: 100, GroupName: "Team A", ReportDate: "07-03-2025", ReportTime: "14:30", PhotoCount: 3}
	require.NoError(t, a.Commit(rep))

	a2, err := NewArchive(path)
	require.NoError(t, err)
	byDate := a2.ByDate("07-03-2025")
	require.Contains(t, byDate, int64(100))
	assert.Equal(t, rep, byDate[100])
}

func TestCommitRollsBackWhenFlushFails(t *testing.T) {
	dir := t.TempDir()
	a, err := NewArchive(filepath.Join(dir, "archive_reports.json"))
	require.NoError(t, err)
	require.NoError(t, a.Commit(Report{GroupID: 100, GroupName: "Team A", ReportDate: "07-03-2025", ReportTime: "14:30", PhotoCount: 3}))

	// Pull the directory out from under the store so the atomic rewrite
	// fails deterministically.
	require.NoError(t, os.RemoveAll(dir))

	// A failed replace keeps the persisted record.
	err = a.Commit(Report{GroupID: 100, GroupName: "Team A", ReportDate: "07-03-2025", ReportTime: "16:00", PhotoCount: 5})
	require.Error(t, err)
	byDate := a.ByDate("07-03-2025")
	require.Contains(t, byDate, int64(100))
	assert.Equal(t, 3, byDate[100].PhotoCount)
	assert.Equal(t, "14:30", byDate[100].ReportTime)

	// A failed append leaves no trace, so a later backfill still sees
	// the day as missing.
	err = a.Commit(Report{GroupID: 200, GroupName: "Team B", ReportDate: "07-03-2025", ReportTime: "17:00", PhotoCount: 1})
	require.Error(t, err)
	assert.False(t, a.Has(200, "07-03-2025"))
}

func TestCommitSameDayReplaces(t *testing.T) {
	a := newTestArchive(t)

	require.NoError(t, a.Commit(Report{GroupID: 100, GroupName: "Team A", ReportDate: "07-03-2025", ReportTime: "10:00", PhotoCount: 2}))
	require.NoError(t, a.Commit(Report{GroupID: 100, GroupName: "Team A", ReportDate: "07-03-2025", ReportTime: "16:45", PhotoCount: 5}))

	byDate := a.ByDate("07-03-2025")
	require.Contains(t, byDate, int64(100))
	assert.Equal(t, 5, byDate[100].PhotoCount)
	assert.Equal(t, "16:45", byDate[100].ReportTime)

	// Still exactly one record for the day.
	assert.Len(t, a.MonthDates(2025, time.March), 1)
}

func TestMonthDatesSortedAndFiltered(t *testing.T) {
	a := newTestArchive(t)

	require.NoError(t, a.Commit(Report{GroupID: 100, GroupName: "A", ReportDate: "21-03-2025", ReportTime: "12:00", PhotoCount: 1}))
	require.NoError(t, a.Commit(Report{GroupID: 200, GroupName: "B", ReportDate: "07-03-2025", ReportTime: "12:00", PhotoCount: 1}))
	require.NoError(t, a.Commit(Report{GroupID: 100, GroupName: "A", ReportDate: "14-03-2025", ReportTime: "12:00", PhotoCount: 1}))
	require.NoError(t, a.Commit(Report{GroupID: 100, GroupName: "A", ReportDate: "04-04-2025", ReportTime: "12:00", PhotoCount: 1}))

	dates := a.MonthDates(2025, time.March)
	assert.Equal(t, []string{"07-03-2025", "14-03-2025", "21-03-2025"}, dates)
}

func TestLatestDate(t *testing.T) {
	a := newTestArchive(t)

	_, ok := a.LatestDate()
	assert.False(t, ok)

	require.NoError(t, a.Commit(Report{GroupID: 100, GroupName: "A", ReportDate: "07-03-2025", ReportTime: "12:00", PhotoCount: 1}))
	require.NoError(t, a.Commit(Report{GroupID: 200, GroupName: "B", ReportDate: "28-02-2025", ReportTime: "12:00", PhotoCount: 1}))

	latest, ok := a.LatestDate()
	require.True(t, ok)
	assert.Equal(t, "07-03-2025", latest)
}

func TestPurgeOlderThan(t *testing.T) {
	a := newTestArchive(t)

	require.NoError(t, a.Commit(Report{GroupID: 100, GroupName: "A", ReportDate: "03-01-2025", ReportTime: "12:00", PhotoCount: 1}))
	require.NoError(t, a.Commit(Report{GroupID: 100, GroupName: "A", ReportDate: "07-03-2025", ReportTime: "12:00", PhotoCount: 2}))
	require.NoError(t, a.Commit(Report{GroupID: 200, GroupName: "B", ReportDate: "03-01-2025", ReportTime: "12:00", PhotoCount: 1}))

	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, a.PurgeOlderThan(now, DefaultRetention))

	// Chat 100 keeps its recent record; chat 200's history emptied and
	// the chat entry is gone.
	assert.True(t, a.Has(100, "07-03-2025"))
	assert.False(t, a.Has(100, "03-01-2025"))
	assert.Empty(t, a.ByDate("03-01-2025"))
	assert.False(t, a.Has(200, "03-01-2025"))
}

func TestPurgeDropsUnparseableDates(t *testing.T) {
	a := newTestArchive(t)

	require.NoError(t, a.Commit(Report{GroupID: 100, GroupName: "A", ReportDate: "not-a-date", ReportTime: "12:00", PhotoCount: 1}))
	require.NoError(t, a.Commit(Report{GroupID: 100, GroupName: "A", ReportDate: "07-03-2025", ReportTime: "12:00", PhotoCount: 1}))

	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, a.PurgeOlderThan(now, DefaultRetention))

	assert.False(t, a.Has(100, "not-a-date"))
	assert.True(t, a.Has(100, "07-03-2025"))
}

func TestQueryPathsSkipBadDates(t *testing.T) {
	a := newTestArchive(t)

	require.NoError(t, a.Commit(Report{GroupID: 100, GroupName: "A", ReportDate: "garbage", ReportTime: "12:00", PhotoCount: 1}))
	require.NoError(t, a.Commit(Report{GroupID: 100, GroupName: "A", ReportDate: "07-03-2025", ReportTime: "12:00", PhotoCount: 1}))

	assert.NotPanics(t, func() {
		assert.Equal(t, []string{"07-03-2025"}, a.MonthDates(2025, time.March))
		latest, ok := a.LatestDate()
		assert.True(t, ok)
		assert.Equal(t, "07-03-2025", latest)
	})
}

func TestDeleteGroupCascade(t *testing.T) {
	a := newTestArchive(t)

	require.NoError(t, a.Commit(Report{GroupID: 100, GroupName: "A", ReportDate: "07-03-2025", ReportTime: "12:00", PhotoCount: 1}))
	require.NoError(t, a.DeleteGroup(100))

	assert.Empty(t, a.ByDate("07-03-2025"))
	assert.True(t, a.IsEmpty())
}

func TestArchiveCorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive_reports.json")
	require.NoError(t, os.WriteFile(path, []byte("[broken"), 0o644))

	a, err := NewArchive(path)
	require.NoError(t, err)
	assert.True(t, a.IsEmpty())

	_, err = os.Stat(path + ".corrupt")
	assert.NoError(t, err)
}
