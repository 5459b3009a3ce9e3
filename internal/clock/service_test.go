package clock

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftgate/shiftgate/internal/geo"
	"github.com/shiftgate/shiftgate/internal/locations"
	"github.com/shiftgate/shiftgate/internal/shared"
	"github.com/shiftgate/shiftgate/internal/shifts"
)

// ============================================================================
// MOCK STORES
// ============================================================================

type mockShiftStore struct {
	mu     sync.Mutex
	shifts map[int64]*shifts.Shift

	findErr error
}

func newMockShiftStore(list ...shifts.Shift) *mockShiftStore {
	m := &mockShiftStore{shifts: make(map[int64]*shifts.Shift)}
	for i := range list {
		s := list[i]
		m.shifts[s.ID] = &s
	}
	return m
}

func (m *mockShiftStore) FindEligibleShift(ctx context.Context, userID int64, now time.Time) (*shifts.Shift, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *shifts.Shift
	for _, s := range m.shifts {
		if s.UserID != userID {
			continue
		}
		eligible := s.Status == shifts.StatusInProgress ||
			(s.Status == shifts.StatusScheduled && !s.StartTime.After(now) && !s.EndTime.Before(now))
		if !eligible {
			continue
		}
		if best == nil {
			best = s
			continue
		}
		if s.Status == shifts.StatusInProgress && best.Status != shifts.StatusInProgress {
			best = s
		} else if s.Status == best.Status && s.StartTime.After(best.StartTime) {
			best = s
		}
	}
	if best == nil {
		return nil, shared.ErrNotFound
	}
	copied := *best
	return &copied, nil
}

func (m *mockShiftStore) TransitionStatus(ctx context.Context, id int64, from, to shifts.ShiftStatus, endTime *time.Time) (*shifts.Shift, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shifts[id]
	if !ok || s.Status != from {
		return nil, false, nil
	}
	s.Status = to
	if endTime != nil {
		s.EndTime = *endTime
	}
	copied := *s
	return &copied, true, nil
}

func (m *mockShiftStore) get(id int64) shifts.Shift {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.shifts[id]
}

type mockLocationStore struct {
	list []locations.Location
	err  error
}

func (m *mockLocationStore) ListByManager(ctx context.Context, managerID int64) ([]locations.Location, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.list, nil
}

type mockEventStore struct {
	mu     sync.Mutex
	events []ClockEvent

	createErr error
	forcedOut bool
}

func (m *mockEventStore) Create(ctx context.Context, ev ClockEvent) (*ClockEvent, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return &ev, nil
}

func (m *mockEventStore) HasClockOut(ctx context.Context, shiftID int64) (bool, error) {
	if m.forcedOut {
		return true, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.events {
		if ev.ShiftID == shiftID && ev.Kind == KindOut {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEventStore) LastOfKind(ctx context.Context, shiftID int64, kind EventKind) (*ClockEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].ShiftID == shiftID && m.events[i].Kind == kind {
			ev := m.events[i]
			return &ev, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockEventStore) ListByUser(ctx context.Context, userID int64, limit int) ([]ClockEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []ClockEvent
	for i := len(m.events) - 1; i >= 0 && len(list) < limit; i-- {
		if m.events[i].UserID == userID {
			list = append(list, m.events[i])
		}
	}
	return list, nil
}

func (m *mockEventStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// mockLocker serialises acquirers the way the redis lock does, blocking
// until the holder releases.
type mockLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newMockLocker() *mockLocker {
	return &mockLocker{locks: make(map[string]*sync.Mutex)}
}

func (m *mockLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	m.mu.Unlock()
	l.Lock()
	return func(context.Context) error {
		l.Unlock()
		return nil
	}, nil
}

// ============================================================================
// FIXTURES
// ============================================================================

var siteCenter = geo.Point{Lat: 40.7128, Lng: -74.0060}

func offsetNorth(p geo.Point, meters float64) geo.Point {
	return geo.Point{Lat: p.Lat + meters/geo.EarthRadiusMeters*180/math.Pi, Lng: p.Lng}
}

func registeredLocations() *mockLocationStore {
	return &mockLocationStore{list: []locations.Location{{
		ID:           10,
		ManagerID:    2,
		Latitude:     siteCenter.Lat,
		Longitude:    siteCenter.Lng,
		RadiusMeters: 500,
	}}}
}

func scheduledShift(t *testing.T) (shifts.Shift, time.Time) {
	t.Helper()
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	return shifts.Shift{
		ID:        1,
		UserID:    7,
		StartTime: day.Add(9 * time.Hour),
		EndTime:   day.Add(17 * time.Hour),
		Status:    shifts.StatusScheduled,
	}, day
}

func newService(shiftStore *mockShiftStore, locationStore *mockLocationStore, eventStore *mockEventStore) *Service {
	return NewService(shiftStore, locationStore, eventStore, newMockLocker())
}

// ============================================================================
// CLOCK IN
// ============================================================================

func TestClockInSuccess(t *testing.T) {
	shift, day := scheduledShift(t)
	shiftStore := newMockShiftStore(shift)
	eventStore := &mockEventStore{}
	svc := newService(shiftStore, registeredLocations(), eventStore)

	now := day.Add(9*time.Hour + 5*time.Minute)
	result, err := svc.ClockIn(context.Background(), 7, 2, ClockRequest{Position: offsetNorth(siteCenter, 300)}, now)
	require.NoError(t, err)

	assert.Equal(t, shifts.StatusInProgress, result.Shift.Status)
	assert.Equal(t, KindIn, result.Event.Kind)
	assert.Equal(t, now, result.Event.Timestamp)
	require.NotNil(t, result.Event.LocationID)
	assert.Equal(t, int64(10), *result.Event.LocationID)
	require.NotNil(t, result.Event.DistanceMeters)
	assert.InDelta(t, 300, *result.Event.DistanceMeters, 5)
	assert.Equal(t, shifts.StatusInProgress, shiftStore.get(1).Status)
}

func TestClockInNoActiveShift(t *testing.T) {
	_, day := scheduledShift(t)
	svc := newService(newMockShiftStore(), registeredLocations(), &mockEventStore{})

	_, err := svc.ClockIn(context.Background(), 7, 2, ClockRequest{Position: siteCenter}, day.Add(10*time.Hour))
	var noShift *NoActiveShiftError
	require.ErrorAs(t, err, &noShift)
	assert.Equal(t, int64(7), noShift.UserID)
}

func TestClockInBeforeWindow(t *testing.T) {
	shift, day := scheduledShift(t)
	svc := newService(newMockShiftStore(shift), registeredLocations(), &mockEventStore{})

	_, err := svc.ClockIn(context.Background(), 7, 2, ClockRequest{Position: siteCenter}, day.Add(8*time.Hour))
	var noShift *NoActiveShiftError
	require.ErrorAs(t, err, &noShift)
}

func TestClockInAlreadyInProgress(t *testing.T) {
	shift, day := scheduledShift(t)
	shift.Status = shifts.StatusInProgress
	svc := newService(newMockShiftStore(shift), registeredLocations(), &mockEventStore{})

	_, err := svc.ClockIn(context.Background(), 7, 2, ClockRequest{Position: siteCenter}, day.Add(10*time.Hour))
	var already *AlreadyClockedInError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, int64(1), already.ShiftID)
}

func TestClockInOutsidePerimeter(t *testing.T) {
	shift, day := scheduledShift(t)
	shiftStore := newMockShiftStore(shift)
	eventStore := &mockEventStore{}
	svc := newService(shiftStore, registeredLocations(), eventStore)

	_, err := svc.ClockIn(context.Background(), 7, 2, ClockRequest{Position: offsetNorth(siteCenter, 800)}, day.Add(10*time.Hour))
	var outside *OutsidePerimeterError
	require.ErrorAs(t, err, &outside)
	assert.Equal(t, int64(10), outside.NearestLocationID)
	require.NotNil(t, outside.DistanceMeters)
	assert.InDelta(t, 800, *outside.DistanceMeters, 5)

	// The rejection must leave shift state untouched and record nothing.
	assert.Equal(t, shifts.StatusScheduled, shiftStore.get(1).Status)
	assert.Zero(t, eventStore.count())
}

func TestClockInNoRegisteredLocations(t *testing.T) {
	shift, day := scheduledShift(t)
	svc := newService(newMockShiftStore(shift), &mockLocationStore{}, &mockEventStore{})

	_, err := svc.ClockIn(context.Background(), 7, 2, ClockRequest{Position: siteCenter}, day.Add(10*time.Hour))
	var outside *OutsidePerimeterError
	require.ErrorAs(t, err, &outside)
	assert.Nil(t, outside.DistanceMeters)
	assert.Zero(t, outside.NearestLocationID)
}

func TestClockInInvalidCoordinate(t *testing.T) {
	shift, day := scheduledShift(t)
	svc := newService(newMockShiftStore(shift), registeredLocations(), &mockEventStore{})

	_, err := svc.ClockIn(context.Background(), 7, 2, ClockRequest{Position: geo.Point{Lat: 91, Lng: 0}}, day.Add(10*time.Hour))
	var invalid *geo.InvalidCoordinateError
	require.ErrorAs(t, err, &invalid)
}

func TestClockInRepeatedRejected(t *testing.T) {
	shift, day := scheduledShift(t)
	svc := newService(newMockShiftStore(shift), registeredLocations(), &mockEventStore{})
	pos := offsetNorth(siteCenter, 100)

	_, err := svc.ClockIn(context.Background(), 7, 2, ClockRequest{Position: pos}, day.Add(10*time.Hour))
	require.NoError(t, err)

	_, err = svc.ClockIn(context.Background(), 7, 2, ClockRequest{Position: pos}, day.Add(10*time.Hour+time.Minute))
	var already *AlreadyClockedInError
	require.ErrorAs(t, err, &already)
}

func TestClockInConcurrentAttemptsExactlyOneWins(t *testing.T) {
	shift, day := scheduledShift(t)
	shiftStore := newMockShiftStore(shift)
	eventStore := &mockEventStore{}
	svc := newService(shiftStore, registeredLocations(), eventStore)

	now := day.Add(9*time.Hour + 5*time.Minute)
	pos := offsetNorth(siteCenter, 100)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.ClockIn(context.Background(), 7, 2, ClockRequest{Position: pos}, now)
		}(i)
	}
	wg.Wait()

	var successes, duplicates int
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		var already *AlreadyClockedInError
		require.ErrorAs(t, err, &already)
		duplicates++
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, duplicates)
	assert.Equal(t, 1, eventStore.count())
	assert.Equal(t, shifts.StatusInProgress, shiftStore.get(1).Status)
}

// ============================================================================
// CLOCK OUT
// ============================================================================

func TestClockOutSuccessOverridesEndTime(t *testing.T) {
	shift, day := scheduledShift(t)
	shift.Status = shifts.StatusInProgress
	shiftStore := newMockShiftStore(shift)
	eventStore := &mockEventStore{}
	svc := newService(shiftStore, registeredLocations(), eventStore)

	clockedInAt := day.Add(9*time.Hour + 5*time.Minute)
	_, err := eventStore.Create(context.Background(), ClockEvent{UserID: 7, ShiftID: 1, Kind: KindIn, Timestamp: clockedInAt})
	require.NoError(t, err)

	// 17:10 is past the scheduled 17:00 end; the shift must still resolve
	// and its end time must become the actual departure.
	now := day.Add(17*time.Hour + 10*time.Minute)
	result, err := svc.ClockOut(context.Background(), 7, 2, ClockRequest{Position: offsetNorth(siteCenter, 100)}, now)
	require.NoError(t, err)

	assert.Equal(t, shifts.StatusCompleted, result.Shift.Status)
	assert.Equal(t, now, result.Shift.EndTime)
	assert.Equal(t, KindOut, result.Event.Kind)
	assert.Equal(t, "8h 5m", FormatDuration(clockedInAt, result.Event.Timestamp))
}

func TestClockOutWithoutClockIn(t *testing.T) {
	shift, day := scheduledShift(t)
	svc := newService(newMockShiftStore(shift), registeredLocations(), &mockEventStore{})

	_, err := svc.ClockOut(context.Background(), 7, 2, ClockRequest{Position: siteCenter}, day.Add(10*time.Hour))
	var noShift *NoActiveShiftError
	require.ErrorAs(t, err, &noShift)
}

func TestClockOutNoShiftAtAll(t *testing.T) {
	_, day := scheduledShift(t)
	svc := newService(newMockShiftStore(), registeredLocations(), &mockEventStore{})

	_, err := svc.ClockOut(context.Background(), 7, 2, ClockRequest{Position: siteCenter}, day.Add(10*time.Hour))
	var noShift *NoActiveShiftError
	require.ErrorAs(t, err, &noShift)
}

func TestClockOutDuplicateRejected(t *testing.T) {
	shift, day := scheduledShift(t)
	shift.Status = shifts.StatusInProgress
	eventStore := &mockEventStore{forcedOut: true}
	svc := newService(newMockShiftStore(shift), registeredLocations(), eventStore)

	_, err := svc.ClockOut(context.Background(), 7, 2, ClockRequest{Position: siteCenter}, day.Add(17*time.Hour))
	var already *AlreadyClockedOutError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, int64(1), already.ShiftID)
}

func TestClockOutOutsidePerimeterStillSucceeds(t *testing.T) {
	shift, day := scheduledShift(t)
	shift.Status = shifts.StatusInProgress
	svc := newService(newMockShiftStore(shift), registeredLocations(), &mockEventStore{})

	result, err := svc.ClockOut(context.Background(), 7, 2, ClockRequest{Position: offsetNorth(siteCenter, 5000)}, day.Add(17*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, shifts.StatusCompleted, result.Shift.Status)
}

func TestClockOutUnusableCoordinatesStillCompletes(t *testing.T) {
	shift, day := scheduledShift(t)
	shift.Status = shifts.StatusInProgress
	shiftStore := newMockShiftStore(shift)
	svc := newService(shiftStore, registeredLocations(), &mockEventStore{})

	// A broken GPS fix must not trap the worker on shift. The clock-out
	// goes through; the event simply carries no position.
	now := day.Add(17 * time.Hour)
	result, err := svc.ClockOut(context.Background(), 7, 2, ClockRequest{Position: geo.Point{Lat: 91, Lng: 0}}, now)
	require.NoError(t, err)

	assert.Equal(t, shifts.StatusCompleted, result.Shift.Status)
	assert.Equal(t, KindOut, result.Event.Kind)
	assert.Nil(t, result.Event.Latitude)
	assert.Nil(t, result.Event.Longitude)
	assert.Nil(t, result.Event.LocationID)
	assert.Equal(t, shifts.StatusCompleted, shiftStore.get(1).Status)
}

func TestClockOutRecordsPosition(t *testing.T) {
	shift, day := scheduledShift(t)
	shift.Status = shifts.StatusInProgress
	svc := newService(newMockShiftStore(shift), registeredLocations(), &mockEventStore{})

	pos := offsetNorth(siteCenter, 100)
	result, err := svc.ClockOut(context.Background(), 7, 2, ClockRequest{Position: pos}, day.Add(17*time.Hour))
	require.NoError(t, err)

	require.NotNil(t, result.Event.Latitude)
	assert.Equal(t, pos.Lat, *result.Event.Latitude)
	require.NotNil(t, result.Event.Longitude)
	assert.Equal(t, pos.Lng, *result.Event.Longitude)
	require.NotNil(t, result.Event.LocationID)
	assert.Equal(t, int64(10), *result.Event.LocationID)
}

// ============================================================================
// PERIMETER QUERY & STATUS
// ============================================================================

func TestCheckPerimeterScenario(t *testing.T) {
	svc := newService(newMockShiftStore(), registeredLocations(), &mockEventStore{})

	inside, err := svc.CheckPerimeter(context.Background(), 2, offsetNorth(siteCenter, 300))
	require.NoError(t, err)
	assert.True(t, inside.IsWithinPerimeter)
	require.NotNil(t, inside.NearestLocation)
	assert.Equal(t, int64(10), inside.NearestLocation.ID)

	outside, err := svc.CheckPerimeter(context.Background(), 2, offsetNorth(siteCenter, 800))
	require.NoError(t, err)
	assert.False(t, outside.IsWithinPerimeter)
	require.NotNil(t, outside.NearestLocation)
	assert.Equal(t, int64(10), outside.NearestLocation.ID)
	require.NotNil(t, outside.DistanceMeters)
	assert.InDelta(t, 800, *outside.DistanceMeters, 5)
}

func TestCheckPerimeterEmpty(t *testing.T) {
	svc := newService(newMockShiftStore(), &mockLocationStore{}, &mockEventStore{})

	res, err := svc.CheckPerimeter(context.Background(), 2, siteCenter)
	require.NoError(t, err)
	assert.False(t, res.IsWithinPerimeter)
	assert.Nil(t, res.NearestLocation)
	assert.Nil(t, res.DistanceMeters)
}

func TestStatusWhileClockedIn(t *testing.T) {
	shift, day := scheduledShift(t)
	shift.Status = shifts.StatusInProgress
	eventStore := &mockEventStore{}
	svc := newService(newMockShiftStore(shift), registeredLocations(), eventStore)

	clockedInAt := day.Add(9 * time.Hour)
	_, err := eventStore.Create(context.Background(), ClockEvent{UserID: 7, ShiftID: 1, Kind: KindIn, Timestamp: clockedInAt})
	require.NoError(t, err)

	status, err := svc.Status(context.Background(), 7, day.Add(17*time.Hour+30*time.Minute))
	require.NoError(t, err)
	assert.True(t, status.ClockedIn)
	require.NotNil(t, status.Duration)
	assert.Equal(t, "8h 30m", *status.Duration)
}

func TestStatusIdle(t *testing.T) {
	svc := newService(newMockShiftStore(), registeredLocations(), &mockEventStore{})

	status, err := svc.Status(context.Background(), 7, time.Now())
	require.NoError(t, err)
	assert.False(t, status.ClockedIn)
	assert.Nil(t, status.Shift)
}
