package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"photoreport-bot/internal/auth"
	"photoreport-bot/internal/locales"
	"photoreport-bot/internal/storage"
	"photoreport-bot/internal/window"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	locales.Init()
	os.Exit(m.Run())
}

// MockBot is a mock implementing the telegoapi.BotAPI interface.
type MockBot struct {
	mock.Mock
}

func (m *MockBot) SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*telego.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) SetMyCommands(ctx context.Context, params *telego.SetMyCommandsParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockBot) AnswerCallbackQuery(ctx context.Context, params *telego.AnswerCallbackQueryParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func kyiv(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Kiev")
	require.NoError(t, err)
	return loc
}

func TestNextWeekdayAt(t *testing.T) {
	loc := kyiv(t)

	// Wednesday → coming Sunday 12:00.
	wednesday := time.Date(2025, 3, 5, 9, 0, 0, 0, loc)
	next := nextWeekdayAt(wednesday, loc, time.Sunday, 12, 0)
	assert.Equal(t, time.Date(2025, 3, 9, 12, 0, 0, 0, loc), next)

	// Sunday after 12:00 → a full week forward, never today.
	lateSunday := time.Date(2025, 3, 9, 13, 0, 0, 0, loc)
	next = nextWeekdayAt(lateSunday, loc, time.Sunday, 12, 0)
	assert.Equal(t, time.Date(2025, 3, 16, 12, 0, 0, 0, loc), next)

	// Sunday exactly at 12:00 also rolls forward.
	atNoon := time.Date(2025, 3, 9, 12, 0, 0, 0, loc)
	next = nextWeekdayAt(atNoon, loc, time.Sunday, 12, 0)
	assert.Equal(t, time.Date(2025, 3, 16, 12, 0, 0, 0, loc), next)
}

func TestNextDailyAt(t *testing.T) {
	loc := kyiv(t)

	beforeMidnightRun := time.Date(2025, 3, 5, 0, 1, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 3, 5, 0, 5, 0, 0, loc), nextDailyAt(beforeMidnightRun, loc, 0, 5))

	afterMidnightRun := time.Date(2025, 3, 5, 0, 10, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 3, 6, 0, 5, 0, 0, loc), nextDailyAt(afterMidnightRun, loc, 0, 5))
}

func newBackfillFixture(t *testing.T, clock func() time.Time) (*EmptyReportBackfill, *storage.Registry, *storage.Archive) {
	t.Helper()
	dir := t.TempDir()
	registry, err := storage.NewRegistry(filepath.Join(dir, "registered_groups.json"))
	require.NoError(t, err)
	archive, err := storage.NewArchive(filepath.Join(dir, "archive_reports.json"))
	require.NoError(t, err)

	policy := window.New(time.Friday, kyiv(t))
	job := NewEmptyReportBackfill(registry, archive, policy, time.Friday, clock)
	return job, registry, archive
}

func TestBackfillCreatesPlaceholdersOnReportDay(t *testing.T) {
	loc := kyiv(t)
	friday := time.Date(2025, 3, 7, 23, 59, 0, 0, loc)
	job, registry, archive := newBackfillFixture(t, func() time.Time { return friday })

	require.NoError(t, registry.Register(100, "Team A"))
	require.NoError(t, registry.Register(200, "Team B"))

	// Team A already reported today; it must keep its accepted record.
	require.NoError(t, archive.Commit(storage.Report{
		GroupID: 100, GroupName: "Team A", ReportDate: "07-03-2025", ReportTime: "14:30", PhotoCount: 3,
	}))

	require.NoError(t, job.Run(context.Background()))

	byDate := archive.ByDate("07-03-2025")
	require.Contains(t, byDate, int64(100))
	require.Contains(t, byDate, int64(200))
	assert.Equal(t, 3, byDate[100].PhotoCount)
	assert.Equal(t, "14:30", byDate[100].ReportTime)
	assert.Equal(t, 0, byDate[200].PhotoCount)
	assert.Equal(t, storage.TimeNotSent, byDate[200].ReportTime)
}

func TestBackfillSkipsNonReportDay(t *testing.T) {
	loc := kyiv(t)
	saturday := time.Date(2025, 3, 8, 0, 0, 30, 0, loc)
	job, registry, archive := newBackfillFixture(t, func() time.Time { return saturday })

	require.NoError(t, registry.Register(100, "Team A"))
	require.NoError(t, job.Run(context.Background()))

	assert.True(t, archive.IsEmpty())
}

func TestBackfillNextRun(t *testing.T) {
	loc := kyiv(t)
	job, _, _ := newBackfillFixture(t, nil)

	wednesday := time.Date(2025, 3, 5, 9, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 3, 7, 23, 59, 0, 0, loc), job.NextRun(wednesday))
}

func TestAdminDigestDeliversLatestDay(t *testing.T) {
	dir := t.TempDir()
	registry, err := storage.NewRegistry(filepath.Join(dir, "registered_groups.json"))
	require.NoError(t, err)
	archive, err := storage.NewArchive(filepath.Join(dir, "archive_reports.json"))
	require.NoError(t, err)

	require.NoError(t, registry.Register(100, "Team A"))
	require.NoError(t, archive.Commit(storage.Report{
		GroupID: 100, GroupName: "Team A", ReportDate: "07-03-2025", ReportTime: "14:30", PhotoCount: 3,
	}))

	admins, err := auth.NewAdminChecker([]int64{1, 2})
	require.NoError(t, err)

	mockBot := new(MockBot)
	// Delivery to the first admin fails; the loop continues to the second.
	mockBot.On("SendMessage", mock.Anything, mock.MatchedBy(func(p *telego.SendMessageParams) bool {
		return p.ChatID.ID == 1
	})).Return(nil, errors.New("blocked by user")).Once()
	mockBot.On("SendMessage", mock.Anything, mock.MatchedBy(func(p *telego.SendMessageParams) bool {
		return p.ChatID.ID == 2
	})).Return(&telego.Message{MessageID: 10}, nil).Once()

	job := NewAdminDigest(mockBot, admins, registry, archive, kyiv(t))
	require.NoError(t, job.Run(context.Background()))

	mockBot.AssertExpectations(t)
	sent := mockBot.Calls[1].Arguments.Get(1).(*telego.SendMessageParams)
	assert.Contains(t, sent.Text, "07-03-2025")
	assert.Contains(t, sent.Text, "Team A")
}

func TestAdminDigestEmptyArchive(t *testing.T) {
	dir := t.TempDir()
	registry, err := storage.NewRegistry(filepath.Join(dir, "registered_groups.json"))
	require.NoError(t, err)
	archive, err := storage.NewArchive(filepath.Join(dir, "archive_reports.json"))
	require.NoError(t, err)

	admins, err := auth.NewAdminChecker([]int64{1})
	require.NoError(t, err)

	mockBot := new(MockBot)
	mockBot.On("SendMessage", mock.Anything, mock.Anything).Return(&telego.Message{MessageID: 1}, nil).Once()

	job := NewAdminDigest(mockBot, admins, registry, archive, kyiv(t))
	require.NoError(t, job.Run(context.Background()))

	sent := mockBot.Calls[0].Arguments.Get(1).(*telego.SendMessageParams)
	assert.Contains(t, sent.Text, "Нет архивных отчетов")
}
