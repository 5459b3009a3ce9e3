package clock

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftgate/shiftgate/internal/shared"
)

// Repository provides PostgreSQL backed persistence for clock events.
// Events are insert-only: no update or delete paths exist.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventColumns = `id, user_id, shift_id, kind, latitude, longitude, location_id, distance_meters, notes, recorded_at`

func scanEvent(row pgx.Row) (*ClockEvent, error) {
	var ev ClockEvent
	if err := row.Scan(&ev.ID, &ev.UserID, &ev.ShiftID, &ev.Kind, &ev.Latitude, &ev.Longitude, &ev.LocationID, &ev.DistanceMeters, &ev.Notes, &ev.Timestamp); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ev, nil
}

// Create inserts a clock event.
func (r *Repository) Create(ctx context.Context, ev ClockEvent) (*ClockEvent, error) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO clock_events (id, user_id, shift_id, kind, latitude, longitude, location_id, distance_meters, notes, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+eventColumns,
		ev.ID, ev.UserID, ev.ShiftID, ev.Kind, ev.Latitude, ev.Longitude, ev.LocationID, ev.DistanceMeters, ev.Notes, ev.Timestamp)
	return scanEvent(row)
}

// HasClockOut reports whether the shift already has a clock-out event.
func (r *Repository) HasClockOut(ctx context.Context, shiftID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM clock_events WHERE shift_id = $1 AND kind = 'OUT')`, shiftID).Scan(&exists)
	return exists, err
}

// HasEventsForShift reports whether any clock event references the shift.
func (r *Repository) HasEventsForShift(ctx context.Context, shiftID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM clock_events WHERE shift_id = $1)`, shiftID).Scan(&exists)
	return exists, err
}

// LastOfKind returns the most recent event of a kind for a shift.
func (r *Repository) LastOfKind(ctx context.Context, shiftID int64, kind EventKind) (*ClockEvent, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM clock_events
		 WHERE shift_id = $1 AND kind = $2
		 ORDER BY recorded_at DESC LIMIT 1`, shiftID, kind)
	return scanEvent(row)
}

// ListByUser returns a worker's events, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64, limit int) ([]ClockEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM clock_events
		 WHERE user_id = $1
		 ORDER BY recorded_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []ClockEvent
	for rows.Next() {
		var ev ClockEvent
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.ShiftID, &ev.Kind, &ev.Latitude, &ev.Longitude, &ev.LocationID, &ev.DistanceMeters, &ev.Notes, &ev.Timestamp); err != nil {
			return nil, err
		}
		list = append(list, ev)
	}
	return list, rows.Err()
}
