package locations

import (
	"context"
	"errors"

	"github.com/shiftgate/shiftgate/internal/geo"
	"github.com/shiftgate/shiftgate/internal/shared"
)

// ErrLocationInUse refuses deletion while clock events reference the
// location.
var ErrLocationInUse = errors.New("locations: location referenced by clock events")

// RepositoryPort defines data access methods for locations.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (*Location, error)
	ListByManager(ctx context.Context, managerID int64) ([]Location, error)
	Create(ctx context.Context, l Location) (*Location, error)
	Update(ctx context.Context, l Location) (*Location, error)
	Delete(ctx context.Context, id int64) error
	ReferenceCount(ctx context.Context, id int64) (int64, error)
}

// Service handles geofence anchor administration.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns the manager's registered locations.
func (s *Service) List(ctx context.Context, managerID int64) ([]Location, error) {
	return s.repo.ListByManager(ctx, managerID)
}

// Create registers a geofence anchor, applying the default radius when
// none is supplied.
func (s *Service) Create(ctx context.Context, managerID int64, req CreateLocationRequest) (*Location, error) {
	point := geo.Point{Lat: req.Latitude, Lng: req.Longitude}
	if err := point.Validate(); err != nil {
		return nil, err
	}
	radius := DefaultRadiusMeters
	if req.RadiusMeters != nil {
		radius = *req.RadiusMeters
	}
	return s.repo.Create(ctx, Location{
		ManagerID:    managerID,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMeters: radius,
		Address:      req.Address,
	})
}

// Update applies a partial edit to a manager's own location.
func (s *Service) Update(ctx context.Context, managerID, id int64, req UpdateLocationRequest) (*Location, error) {
	existing, err := s.owned(ctx, managerID, id)
	if err != nil {
		return nil, err
	}
	if req.Latitude != nil {
		existing.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		existing.Longitude = *req.Longitude
	}
	if err := (geo.Point{Lat: existing.Latitude, Lng: existing.Longitude}).Validate(); err != nil {
		return nil, err
	}
	if req.RadiusMeters != nil {
		existing.RadiusMeters = *req.RadiusMeters
	}
	if req.Address != nil {
		existing.Address = req.Address
	}
	return s.repo.Update(ctx, *existing)
}

// Delete removes a location unless clock events still reference it.
func (s *Service) Delete(ctx context.Context, managerID, id int64) error {
	if _, err := s.owned(ctx, managerID, id); err != nil {
		return err
	}
	refs, err := s.repo.ReferenceCount(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return ErrLocationInUse
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) owned(ctx context.Context, managerID, id int64) (*Location, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.ManagerID != managerID {
		return nil, shared.ErrForbidden
	}
	return existing, nil
}
