package analytics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shiftgate/shiftgate/internal/clock"
)

const dailyWindowDays = 7

// Repository exposes the aggregate queries the dashboard relies on.
type Repository interface {
	ClockedInStaff(ctx context.Context, managerID int64) ([]ClockedInEntry, error)
	DailyStats(ctx context.Context, managerID int64, from, to time.Time) ([]DailyStat, error)
	WeeklyHours(ctx context.Context, managerID int64, from, to time.Time) ([]StaffHours, error)
	ManagerIDs(ctx context.Context) ([]int64, error)
}

// Service coordinates dashboard query execution with the cache layer.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// ClockedIn returns the live clocked-in board. Never cached: `Since` feeds a
// running duration display.
func (s *Service) ClockedIn(ctx context.Context, managerID int64, now time.Time) ([]ClockedInEntry, error) {
	entries, err := s.repo.ClockedInStaff(ctx, managerID)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Duration = clock.FormatDuration(entries[i].Since, now)
	}
	return entries, nil
}

// Daily returns per-day stats for the trailing window ending today.
func (s *Service) Daily(ctx context.Context, managerID int64, now time.Time) ([]DailyStat, error) {
	day := now.UTC().Truncate(24 * time.Hour)
	from := day.AddDate(0, 0, -(dailyWindowDays - 1))
	to := day.AddDate(0, 0, 1)

	key, err := s.cache.BuildKey(ctx, keyDailyStats(managerID, day))
	if err != nil {
		return nil, err
	}
	var stats []DailyStat
	err = s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (interface{}, error) {
		return s.repo.DailyStats(ctx, managerID, from, to)
	})
	return stats, err
}

// Weekly returns per-worker hours for the ISO week containing now.
func (s *Service) Weekly(ctx context.Context, managerID int64, now time.Time) ([]StaffHours, error) {
	start := weekStart(now)
	key, err := s.cache.BuildKey(ctx, keyWeeklyHours(managerID, start))
	if err != nil {
		return nil, err
	}
	var hours []StaffHours
	err = s.cache.FetchJSON(ctx, key, &hours, func(ctx context.Context) (interface{}, error) {
		return s.repo.WeeklyHours(ctx, managerID, start, start.AddDate(0, 0, 7))
	})
	return hours, err
}

// Dashboard loads all three panels concurrently.
func (s *Service) Dashboard(ctx context.Context, managerID int64, now time.Time) (*Dashboard, error) {
	dash := &Dashboard{GeneratedAt: now}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, err := s.ClockedIn(ctx, managerID, now)
		if err != nil {
			return err
		}
		dash.ClockedIn = entries
		return nil
	})
	g.Go(func() error {
		stats, err := s.Daily(ctx, managerID, now)
		if err != nil {
			return err
		}
		dash.Daily = stats
		return nil
	})
	g.Go(func() error {
		hours, err := s.Weekly(ctx, managerID, now)
		if err != nil {
			return err
		}
		dash.WeeklyHours = hours
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if dash.ClockedIn == nil {
		dash.ClockedIn = []ClockedInEntry{}
	}
	if dash.Daily == nil {
		dash.Daily = []DailyStat{}
	}
	if dash.WeeklyHours == nil {
		dash.WeeklyHours = []StaffHours{}
	}
	return dash, nil
}

// Warmup precomputes the cacheable panels for every active manager. Run by
// the background worker.
func (s *Service) Warmup(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.repo.ManagerIDs(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if _, err := s.Daily(ctx, id, now); err != nil {
			return 0, err
		}
		if _, err := s.Weekly(ctx, id, now); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

// Invalidate bumps the cache version so the next reads recompute.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func weekStart(now time.Time) time.Time {
	day := now.UTC().Truncate(24 * time.Hour)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, -(weekday - 1))
}
