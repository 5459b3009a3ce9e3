package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftgate/shiftgate/internal/shared"
)

// PgRepository runs the dashboard aggregate queries against PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// ClockedInStaff lists workers with an in-progress shift, oldest clock-in
// first.
func (r *PgRepository) ClockedInStaff(ctx context.Context, managerID int64) ([]ClockedInEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.first_name, u.last_name, s.id, ci.recorded_at
		 FROM shifts s
		 JOIN users u ON u.id = s.user_id
		 JOIN LATERAL (
			SELECT recorded_at FROM clock_events
			WHERE shift_id = s.id AND kind = 'IN'
			ORDER BY recorded_at DESC LIMIT 1
		 ) ci ON TRUE
		 WHERE s.status = $2 AND u.manager_id = $1
		 ORDER BY ci.recorded_at`,
		managerID, "IN_PROGRESS")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []ClockedInEntry
	for rows.Next() {
		var e ClockedInEntry
		if err := rows.Scan(&e.UserID, &e.FirstName, &e.LastName, &e.ShiftID, &e.Since); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DailyStats aggregates clock-in counts, completed pairs and average shift
// length per day over [from, to).
func (r *PgRepository) DailyStats(ctx context.Context, managerID int64, from, to time.Time) ([]DailyStat, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT date_trunc('day', ci.recorded_at)::date AS day,
		        COUNT(ci.id) AS clock_ins,
		        COUNT(co.id) AS completed,
		        COALESCE(AVG(EXTRACT(EPOCH FROM (co.recorded_at - ci.recorded_at)) / 3600.0), 0) AS avg_hours
		 FROM clock_events ci
		 JOIN users u ON u.id = ci.user_id AND u.manager_id = $1
		 LEFT JOIN clock_events co ON co.shift_id = ci.shift_id AND co.kind = 'OUT'
		 WHERE ci.kind = 'IN' AND ci.recorded_at >= $2 AND ci.recorded_at < $3
		 GROUP BY 1
		 ORDER BY 1`,
		managerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stats []DailyStat
	for rows.Next() {
		var s DailyStat
		if err := rows.Scan(&s.Day, &s.ClockIns, &s.CompletedShifts, &s.AvgHours); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// WeeklyHours sums completed in/out pairs per worker over [from, to).
// Workers with no completed pairs still appear with zero hours.
func (r *PgRepository) WeeklyHours(ctx context.Context, managerID int64, from, to time.Time) ([]StaffHours, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.first_name, u.last_name,
		        COALESCE(SUM(EXTRACT(EPOCH FROM (co.recorded_at - ci.recorded_at)) / 3600.0), 0) AS total_hours,
		        COUNT(co.id) AS completed
		 FROM users u
		 LEFT JOIN clock_events ci
		   ON ci.user_id = u.id AND ci.kind = 'IN'
		  AND ci.recorded_at >= $2 AND ci.recorded_at < $3
		 LEFT JOIN clock_events co
		   ON co.shift_id = ci.shift_id AND co.kind = 'OUT'
		 WHERE u.manager_id = $1 AND u.role = $4
		 GROUP BY u.id, u.first_name, u.last_name
		 ORDER BY total_hours DESC, u.last_name`,
		managerID, from, to, shared.RoleCareWorker)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var hours []StaffHours
	for rows.Next() {
		var h StaffHours
		if err := rows.Scan(&h.UserID, &h.FirstName, &h.LastName, &h.TotalHours, &h.CompletedShifts); err != nil {
			return nil, err
		}
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

// ManagerIDs lists all active manager accounts, for warmup sweeps.
func (r *PgRepository) ManagerIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM users WHERE role = $1 AND is_active`, shared.RoleManager)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
