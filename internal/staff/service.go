package staff

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/shiftgate/shiftgate/internal/shared"
)

// RepositoryPort defines data access methods for the staff directory.
type RepositoryPort interface {
	ListByManager(ctx context.Context, managerID int64) ([]Member, error)
	Get(ctx context.Context, id int64) (*Member, error)
	Create(ctx context.Context, managerID int64, req CreateStaffRequest, passwordHash string) (*Member, error)
	SetActive(ctx context.Context, id int64, active bool) (*Member, error)
	IsManagedBy(ctx context.Context, userID, managerID int64) (bool, error)
}

// Service handles staff directory business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns the manager's workers.
func (s *Service) List(ctx context.Context, managerID int64) ([]Member, error) {
	return s.repo.ListByManager(ctx, managerID)
}

// Create adds a worker account reporting to the manager.
func (s *Service) Create(ctx context.Context, managerID int64, req CreateStaffRequest) (*Member, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.repo.Create(ctx, managerID, req, string(hash))
}

// Deactivate disables a worker's account. The worker must report to the
// calling manager.
func (s *Service) Deactivate(ctx context.Context, managerID, staffID int64) (*Member, error) {
	return s.setActive(ctx, managerID, staffID, false)
}

// Reactivate re-enables a previously deactivated worker.
func (s *Service) Reactivate(ctx context.Context, managerID, staffID int64) (*Member, error) {
	return s.setActive(ctx, managerID, staffID, true)
}

func (s *Service) setActive(ctx context.Context, managerID, staffID int64, active bool) (*Member, error) {
	member, err := s.repo.Get(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if member.ManagerID != managerID {
		return nil, shared.ErrForbidden
	}
	return s.repo.SetActive(ctx, staffID, active)
}

// IsManagedBy reports whether a worker reports to a manager. Satisfies the
// shift scheduler's directory port.
func (s *Service) IsManagedBy(ctx context.Context, userID, managerID int64) (bool, error) {
	return s.repo.IsManagedBy(ctx, userID, managerID)
}
