package locations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftgate/shiftgate/internal/geo"
	"github.com/shiftgate/shiftgate/internal/shared"
)

type mockRepo struct {
	locations map[int64]*Location
	nextID    int64
	refs      map[int64]int64
}

func newMockRepo(list ...Location) *mockRepo {
	m := &mockRepo{locations: make(map[int64]*Location), refs: make(map[int64]int64), nextID: 100}
	for i := range list {
		l := list[i]
		m.locations[l.ID] = &l
	}
	return m
}

func (m *mockRepo) Get(ctx context.Context, id int64) (*Location, error) {
	l, ok := m.locations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *l
	return &copied, nil
}

func (m *mockRepo) ListByManager(ctx context.Context, managerID int64) ([]Location, error) {
	var list []Location
	for _, l := range m.locations {
		if l.ManagerID == managerID {
			list = append(list, *l)
		}
	}
	return list, nil
}

func (m *mockRepo) Create(ctx context.Context, l Location) (*Location, error) {
	m.nextID++
	l.ID = m.nextID
	m.locations[l.ID] = &l
	copied := l
	return &copied, nil
}

func (m *mockRepo) Update(ctx context.Context, l Location) (*Location, error) {
	if _, ok := m.locations[l.ID]; !ok {
		return nil, shared.ErrNotFound
	}
	m.locations[l.ID] = &l
	copied := l
	return &copied, nil
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.locations[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.locations, id)
	return nil
}

func (m *mockRepo) ReferenceCount(ctx context.Context, id int64) (int64, error) {
	return m.refs[id], nil
}

func TestCreateAppliesDefaultRadius(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	loc, err := svc.Create(context.Background(), 2, CreateLocationRequest{Latitude: 51.5, Longitude: -0.12})
	require.NoError(t, err)
	assert.Equal(t, DefaultRadiusMeters, loc.RadiusMeters)
	assert.Equal(t, int64(2), loc.ManagerID)
}

func TestCreateKeepsExplicitRadius(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	radius := 250.0

	loc, err := svc.Create(context.Background(), 2, CreateLocationRequest{Latitude: 51.5, Longitude: -0.12, RadiusMeters: &radius})
	require.NoError(t, err)
	assert.Equal(t, 250.0, loc.RadiusMeters)
}

func TestCreateRejectsInvalidCoordinate(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.Create(context.Background(), 2, CreateLocationRequest{Latitude: 95, Longitude: 0})
	var invalid *geo.InvalidCoordinateError
	assert.ErrorAs(t, err, &invalid)
}

func TestUpdatePartial(t *testing.T) {
	repo := newMockRepo(Location{ID: 10, ManagerID: 2, Latitude: 51.5, Longitude: -0.12, RadiusMeters: 100})
	svc := NewService(repo)
	lat := 52.0

	loc, err := svc.Update(context.Background(), 2, 10, UpdateLocationRequest{Latitude: &lat})
	require.NoError(t, err)
	assert.Equal(t, 52.0, loc.Latitude)
	assert.Equal(t, -0.12, loc.Longitude)
	assert.Equal(t, 100.0, loc.RadiusMeters)
}

func TestUpdateRevalidatesCoordinates(t *testing.T) {
	repo := newMockRepo(Location{ID: 10, ManagerID: 2, Latitude: 51.5, Longitude: -0.12, RadiusMeters: 100})
	svc := NewService(repo)
	lng := 200.0

	_, err := svc.Update(context.Background(), 2, 10, UpdateLocationRequest{Longitude: &lng})
	var invalid *geo.InvalidCoordinateError
	assert.ErrorAs(t, err, &invalid)
	assert.Equal(t, -0.12, repo.locations[10].Longitude)
}

func TestUpdateForeignLocationForbidden(t *testing.T) {
	repo := newMockRepo(Location{ID: 10, ManagerID: 9, Latitude: 51.5, Longitude: -0.12, RadiusMeters: 100})
	svc := NewService(repo)
	lat := 52.0

	_, err := svc.Update(context.Background(), 2, 10, UpdateLocationRequest{Latitude: &lat})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestDeleteReferencedLocationRejected(t *testing.T) {
	repo := newMockRepo(Location{ID: 10, ManagerID: 2, Latitude: 51.5, Longitude: -0.12, RadiusMeters: 100})
	repo.refs[10] = 3
	svc := NewService(repo)

	err := svc.Delete(context.Background(), 2, 10)
	assert.ErrorIs(t, err, ErrLocationInUse)
	assert.Contains(t, repo.locations, int64(10))
}

func TestDeleteUnreferencedLocation(t *testing.T) {
	repo := newMockRepo(Location{ID: 10, ManagerID: 2, Latitude: 51.5, Longitude: -0.12, RadiusMeters: 100})
	svc := NewService(repo)

	require.NoError(t, svc.Delete(context.Background(), 2, 10))
	assert.NotContains(t, repo.locations, int64(10))
}
