package shifts

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftgate/shiftgate/internal/platform/db"
	"github.com/shiftgate/shiftgate/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const shiftColumns = `id, user_id, start_time, end_time, status, created_at, updated_at`

func scanShift(row pgx.Row) (*Shift, error) {
	var s Shift
	if err := row.Scan(&s.ID, &s.UserID, &s.StartTime, &s.EndTime, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func collectShifts(rows pgx.Rows) ([]Shift, error) {
	defer rows.Close()
	var list []Shift
	for rows.Next() {
		var s Shift
		if err := rows.Scan(&s.ID, &s.UserID, &s.StartTime, &s.EndTime, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Get fetches one shift.
func (r *Repository) Get(ctx context.Context, id int64) (*Shift, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1`, id)
	return scanShift(row)
}

// ListByUser returns a worker's shifts, most recent first.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Shift, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE user_id = $1 ORDER BY start_time DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectShifts(rows)
}

// ListByManager returns shifts of all workers managed by a manager.
func (r *Repository) ListByManager(ctx context.Context, managerID int64) ([]Shift, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.user_id, s.start_time, s.end_time, s.status, s.created_at, s.updated_at
		 FROM shifts s JOIN users u ON u.id = s.user_id
		 WHERE u.manager_id = $1
		 ORDER BY s.start_time DESC`, managerID)
	if err != nil {
		return nil, err
	}
	return collectShifts(rows)
}

// FindEligibleShift resolves the shift a clock-in/out applies to: the
// worker's IN_PROGRESS shift when one exists (regardless of its scheduled
// window, so a late clock-out still finds it), else the SCHEDULED shift
// whose window contains now with the latest start. Returns
// shared.ErrNotFound when neither exists.
func (r *Repository) FindEligibleShift(ctx context.Context, userID int64, now time.Time) (*Shift, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+shiftColumns+` FROM shifts
		 WHERE user_id = $1
		   AND (status = 'IN_PROGRESS'
		     OR (status = 'SCHEDULED' AND start_time <= $2 AND end_time >= $2))
		 ORDER BY (status = 'IN_PROGRESS') DESC, start_time DESC
		 LIMIT 1`, userID, now)
	return scanShift(row)
}

// Create inserts a scheduled shift.
func (r *Repository) Create(ctx context.Context, s Shift) (*Shift, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO shifts (user_id, start_time, end_time, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+shiftColumns,
		s.UserID, s.StartTime, s.EndTime, s.Status)
	return scanShift(row)
}

// UpdateWindow reschedules a shift's start/end times.
func (r *Repository) UpdateWindow(ctx context.Context, id int64, start, end time.Time) (*Shift, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE shifts SET start_time = $2, end_time = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+shiftColumns,
		id, start, end)
	return scanShift(row)
}

// TransitionStatus performs the compare-and-swap state change all status
// mutations go through. It succeeds only when the shift is still in the
// expected state, so concurrent writers cannot silently overwrite each
// other; the returned shift is nil with ok=false when the swap lost.
// endTime, when non-nil, replaces the scheduled end (clock-out).
func (r *Repository) TransitionStatus(ctx context.Context, id int64, from, to ShiftStatus, endTime *time.Time) (*Shift, bool, error) {
	var row pgx.Row
	if endTime != nil {
		row = r.pool.QueryRow(ctx,
			`UPDATE shifts SET status = $3, end_time = $4, updated_at = now()
			 WHERE id = $1 AND status = $2
			 RETURNING `+shiftColumns,
			id, from, to, *endTime)
	} else {
		row = r.pool.QueryRow(ctx,
			`UPDATE shifts SET status = $3, updated_at = now()
			 WHERE id = $1 AND status = $2
			 RETURNING `+shiftColumns,
			id, from, to)
	}
	shift, err := scanShift(row)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return shift, true, nil
}

// HasInProgress reports whether the worker already has an active shift.
func (r *Repository) HasInProgress(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM shifts WHERE user_id = $1 AND status = 'IN_PROGRESS')`, userID).Scan(&exists)
	return exists, err
}

// Delete removes a shift. The event re-check and the delete run in one
// repeatable-read transaction so a clock-in landing between the service
// check and the delete still blocks removal.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var hasEvents bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM clock_events WHERE shift_id = $1)`, id).Scan(&hasEvents); err != nil {
			return err
		}
		if hasEvents {
			return ErrShiftHasEvents
		}
		tag, err := tx.Exec(ctx, `DELETE FROM shifts WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}
