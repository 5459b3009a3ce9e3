package locations

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

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

const locationColumns = `id, manager_id, latitude, longitude, radius_meters, address, created_at, updated_at`

func scanLocation(row pgx.Row) (*Location, error) {
	var l Location
	if err := row.Scan(&l.ID, &l.ManagerID, &l.Latitude, &l.Longitude, &l.RadiusMeters, &l.Address, &l.CreatedAt, &l.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Get fetches one location.
func (r *Repository) Get(ctx context.Context, id int64) (*Location, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id)
	return scanLocation(row)
}

// ListByManager returns all locations registered by a manager.
func (r *Repository) ListByManager(ctx context.Context, managerID int64) ([]Location, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+locationColumns+` FROM locations WHERE manager_id = $1 ORDER BY id`, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.ManagerID, &l.Latitude, &l.Longitude, &l.RadiusMeters, &l.Address, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// Create inserts a location.
func (r *Repository) Create(ctx context.Context, l Location) (*Location, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO locations (manager_id, latitude, longitude, radius_meters, address)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+locationColumns,
		l.ManagerID, l.Latitude, l.Longitude, l.RadiusMeters, l.Address)
	return scanLocation(row)
}

// Update persists changed fields.
func (r *Repository) Update(ctx context.Context, l Location) (*Location, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE locations
		 SET latitude = $2, longitude = $3, radius_meters = $4, address = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING `+locationColumns,
		l.ID, l.Latitude, l.Longitude, l.RadiusMeters, l.Address)
	return scanLocation(row)
}

// Delete removes a location.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ReferenceCount reports how many clock events recorded this location as
// their nearest anchor.
func (r *Repository) ReferenceCount(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clock_events WHERE location_id = $1`, id).Scan(&count)
	return count, err
}
