package analytics

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	clockedIn []ClockedInEntry
	daily     []DailyStat
	weekly    []StaffHours
	managers  []int64

	clockedInCalls int
	dailyCalls     int
	weeklyCalls    int
}

func (m *mockRepo) ClockedInStaff(ctx context.Context, managerID int64) ([]ClockedInEntry, error) {
	m.clockedInCalls++
	return m.clockedIn, nil
}

func (m *mockRepo) DailyStats(ctx context.Context, managerID int64, from, to time.Time) ([]DailyStat, error) {
	m.dailyCalls++
	return m.daily, nil
}

func (m *mockRepo) WeeklyHours(ctx context.Context, managerID int64, from, to time.Time) ([]StaffHours, error) {
	m.weeklyCalls++
	return m.weekly, nil
}

func (m *mockRepo) ManagerIDs(ctx context.Context) ([]int64, error) {
	return m.managers, nil
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, NewCache(client, time.Minute))
}

func TestDailyCaches(t *testing.T) {
	repo := &mockRepo{daily: []DailyStat{{ClockIns: 4, CompletedShifts: 3, AvgHours: 7.9}}}
	svc := newTestService(t, repo)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	first, err := svc.Daily(context.Background(), 2, now)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, int64(4), first[0].ClockIns)

	second, err := svc.Daily(context.Background(), 2, now)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.dailyCalls)
}

func TestInvalidateBumpsVersion(t *testing.T) {
	repo := &mockRepo{daily: []DailyStat{{ClockIns: 4}}}
	svc := newTestService(t, repo)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	_, err := svc.Daily(context.Background(), 2, now)
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(context.Background()))

	_, err = svc.Daily(context.Background(), 2, now)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.dailyCalls)
}

func TestClockedInNeverCached(t *testing.T) {
	since := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := &mockRepo{clockedIn: []ClockedInEntry{{UserID: 7, ShiftID: 1, Since: since}}}
	svc := newTestService(t, repo)

	entries, err := svc.ClockedIn(context.Background(), 2, since.Add(2*time.Hour+15*time.Minute))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2h 15m", entries[0].Duration)

	_, err = svc.ClockedIn(context.Background(), 2, since.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, repo.clockedInCalls)
}

func TestDashboardAssemblesPanels(t *testing.T) {
	since := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := &mockRepo{
		clockedIn: []ClockedInEntry{{UserID: 7, Since: since}},
		daily:     []DailyStat{{ClockIns: 2}},
		weekly:    []StaffHours{{UserID: 7, TotalHours: 32.5}},
	}
	svc := newTestService(t, repo)

	dash, err := svc.Dashboard(context.Background(), 2, since.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, dash.ClockedIn, 1)
	assert.Len(t, dash.Daily, 1)
	assert.Len(t, dash.WeeklyHours, 1)
}

func TestDashboardEmptyPanelsNotNil(t *testing.T) {
	svc := newTestService(t, &mockRepo{})

	dash, err := svc.Dashboard(context.Background(), 2, time.Now().UTC())
	require.NoError(t, err)
	assert.NotNil(t, dash.ClockedIn)
	assert.NotNil(t, dash.Daily)
	assert.NotNil(t, dash.WeeklyHours)
}

func TestWarmupSweepsManagers(t *testing.T) {
	repo := &mockRepo{managers: []int64{2, 3}, daily: []DailyStat{}, weekly: []StaffHours{}}
	svc := newTestService(t, repo)

	n, err := svc.Warmup(context.Background(), time.Date(2025, 3, 10, 4, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, repo.dailyCalls)
	assert.Equal(t, 2, repo.weeklyCalls)
}

func TestWeekStart(t *testing.T) {
	// 2025-03-12 is a Wednesday; the week starts Monday 2025-03-10.
	got := weekStart(time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), got)

	// Sunday belongs to the week that started the previous Monday.
	got = weekStart(time.Date(2025, 3, 16, 1, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), got)
}
