package staff

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftgate/shiftgate/internal/shared"
)

// ErrEmailTaken indicates an attempt to create a worker with an email that
// already has an account.
var ErrEmailTaken = errors.New("staff: email already registered")

// Repository provides PostgreSQL backed persistence for the staff directory.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const memberColumns = `id, email, first_name, last_name, manager_id, is_active, created_at`

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	if err := row.Scan(&m.ID, &m.Email, &m.FirstName, &m.LastName, &m.ManagerID, &m.IsActive, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListByManager returns all workers reporting to a manager, active first.
func (r *Repository) ListByManager(ctx context.Context, managerID int64) ([]Member, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+memberColumns+` FROM users
		 WHERE manager_id = $1 AND role = $2
		 ORDER BY is_active DESC, last_name, first_name`,
		managerID, shared.RoleCareWorker)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// Get fetches a single worker row.
func (r *Repository) Get(ctx context.Context, id int64) (*Member, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM users WHERE id = $1 AND role = $2`,
		id, shared.RoleCareWorker)
	return scanMember(row)
}

// Create inserts a worker account under the given manager, mapping the
// unique email violation to ErrEmailTaken.
func (r *Repository) Create(ctx context.Context, managerID int64, req CreateStaffRequest, passwordHash string) (*Member, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name, role, manager_id, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		 RETURNING `+memberColumns,
		req.Email, passwordHash, req.FirstName, req.LastName, shared.RoleCareWorker, managerID)
	member, err := scanMember(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return member, nil
}

// SetActive flips a worker's active flag.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) (*Member, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET is_active = $2, updated_at = NOW()
		 WHERE id = $1 AND role = $3
		 RETURNING `+memberColumns,
		id, active, shared.RoleCareWorker)
	return scanMember(row)
}

// IsManagedBy reports whether the worker reports to the given manager.
func (r *Repository) IsManagedBy(ctx context.Context, userID, managerID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND manager_id = $2 AND role = $3)`,
		userID, managerID, shared.RoleCareWorker).Scan(&exists)
	return exists, err
}
