package clock

import (
	"context"
	"errors"
	"time"

	"github.com/shiftgate/shiftgate/internal/geo"
	"github.com/shiftgate/shiftgate/internal/locations"
	"github.com/shiftgate/shiftgate/internal/shared"
	"github.com/shiftgate/shiftgate/internal/shifts"
)

// ShiftStore is the slice of shift persistence the controller needs.
type ShiftStore interface {
	FindEligibleShift(ctx context.Context, userID int64, now time.Time) (*shifts.Shift, error)
	TransitionStatus(ctx context.Context, id int64, from, to shifts.ShiftStatus, endTime *time.Time) (*shifts.Shift, bool, error)
}

// LocationStore supplies the registered geofence anchors for a manager.
type LocationStore interface {
	ListByManager(ctx context.Context, managerID int64) ([]locations.Location, error)
}

// EventStore persists immutable clock events.
type EventStore interface {
	Create(ctx context.Context, ev ClockEvent) (*ClockEvent, error)
	HasClockOut(ctx context.Context, shiftID int64) (bool, error)
	LastOfKind(ctx context.Context, shiftID int64, kind EventKind) (*ClockEvent, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]ClockEvent, error)
}

// Locker serialises clock operations per worker. Acquire returns a release
// function, or shared.ErrLockHeld when another request holds the lock.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(context.Context) error, error)
}

// Service is the shift clock controller: it decides whether a clock-in or
// clock-out is permitted and what state transition and event record result.
// It holds no state of its own; every operation is a transaction against
// the injected stores, with a per-worker lock plus a conditional status
// update guarding against concurrent duplicates.
type Service struct {
	shifts    ShiftStore
	locations LocationStore
	events    EventStore
	locker    Locker
}

// NewService builds Service instance.
func NewService(shiftStore ShiftStore, locationStore LocationStore, eventStore EventStore, locker Locker) *Service {
	return &Service{shifts: shiftStore, locations: locationStore, events: eventStore, locker: locker}
}

// ClockIn validates and executes a clock-in for the worker. The position
// must fall within the radius of at least one of the manager's registered
// locations; rejection leaves shift state untouched.
func (s *Service) ClockIn(ctx context.Context, userID, managerID int64, req ClockRequest, now time.Time) (*ClockResult, error) {
	if err := req.Position.Validate(); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, shared.ClockLockKey(userID))
	if err != nil {
		if errors.Is(err, shared.ErrLockHeld) {
			return nil, &AlreadyClockedInError{}
		}
		return nil, err
	}
	defer func() { _ = release(ctx) }()

	shift, err := s.shifts.FindEligibleShift(ctx, userID, now)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, &NoActiveShiftError{UserID: userID, At: now}
		}
		return nil, err
	}
	if shift.Status == shifts.StatusInProgress {
		return nil, &AlreadyClockedInError{ShiftID: shift.ID}
	}

	fences, err := s.locations.ListByManager(ctx, managerID)
	if err != nil {
		return nil, err
	}
	check, err := geo.CheckPerimeter(req.Position, locations.Fences(fences))
	if err != nil {
		return nil, err
	}
	if !check.Within {
		outside := &OutsidePerimeterError{DistanceMeters: check.DistanceMeters}
		if check.Nearest != nil {
			outside.NearestLocationID = check.Nearest.ID
		}
		return nil, outside
	}

	updated, ok, err := s.shifts.TransitionStatus(ctx, shift.ID, shifts.StatusScheduled, shifts.StatusInProgress, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		// A concurrent clock-in won the swap.
		return nil, &AlreadyClockedInError{ShiftID: shift.ID}
	}

	event, err := s.events.Create(ctx, s.buildEvent(userID, shift.ID, KindIn, &req.Position, req.Notes, check, now))
	if err != nil {
		return nil, err
	}
	return &ClockResult{Event: *event, Shift: *updated}, nil
}

// ClockOut executes a clock-out. No perimeter check applies: workers may
// need to leave the area before logging departure. Unusable coordinates do
// not block the clock-out either; the event is recorded without a position
// so a worker with a broken GPS fix can still end the shift. The shift's
// end time is rewritten to the actual clock-out time.
func (s *Service) ClockOut(ctx context.Context, userID, managerID int64, req ClockRequest, now time.Time) (*ClockResult, error) {
	pos := &req.Position
	if err := req.Position.Validate(); err != nil {
		pos = nil
	}

	release, err := s.locker.Acquire(ctx, shared.ClockLockKey(userID))
	if err != nil {
		if errors.Is(err, shared.ErrLockHeld) {
			return nil, &AlreadyClockedOutError{}
		}
		return nil, err
	}
	defer func() { _ = release(ctx) }()

	shift, err := s.shifts.FindEligibleShift(ctx, userID, now)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, &NoActiveShiftError{UserID: userID, At: now}
		}
		return nil, err
	}
	if shift.Status != shifts.StatusInProgress {
		// A shift that was never clocked into cannot be clocked out of.
		return nil, &NoActiveShiftError{UserID: userID, At: now}
	}

	// Unreachable through the state machine, but guards against manual
	// edits and double-submits that slipped past the lock.
	hasOut, err := s.events.HasClockOut(ctx, shift.ID)
	if err != nil {
		return nil, err
	}
	if hasOut {
		return nil, &AlreadyClockedOutError{ShiftID: shift.ID}
	}

	// Nearest-location metadata is recorded for parity with clock-in even
	// though membership is not enforced here.
	var check geo.Result
	if pos != nil {
		fences, err := s.locations.ListByManager(ctx, managerID)
		if err != nil {
			return nil, err
		}
		check, err = geo.CheckPerimeter(*pos, locations.Fences(fences))
		if err != nil {
			return nil, err
		}
	}

	updated, ok, err := s.shifts.TransitionStatus(ctx, shift.ID, shifts.StatusInProgress, shifts.StatusCompleted, &now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &AlreadyClockedOutError{ShiftID: shift.ID}
	}

	event, err := s.events.Create(ctx, s.buildEvent(userID, shift.ID, KindOut, pos, req.Notes, check, now))
	if err != nil {
		return nil, err
	}
	return &ClockResult{Event: *event, Shift: *updated}, nil
}

// CheckPerimeter classifies a position against a manager's registered
// locations without touching any shift state.
func (s *Service) CheckPerimeter(ctx context.Context, managerID int64, pos geo.Point) (*PerimeterCheck, error) {
	list, err := s.locations.ListByManager(ctx, managerID)
	if err != nil {
		return nil, err
	}
	check, err := geo.CheckPerimeter(pos, locations.Fences(list))
	if err != nil {
		return nil, err
	}
	result := &PerimeterCheck{
		IsWithinPerimeter: check.Within,
		DistanceMeters:    check.DistanceMeters,
	}
	if check.Nearest != nil {
		for i := range list {
			if list[i].ID == check.Nearest.ID {
				result.NearestLocation = &list[i]
				break
			}
		}
	}
	return result, nil
}

// Status reports the worker's live clock state, including the running
// duration while a shift is in progress.
func (s *Service) Status(ctx context.Context, userID int64, now time.Time) (*ClockStatus, error) {
	shift, err := s.shifts.FindEligibleShift(ctx, userID, now)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &ClockStatus{}, nil
		}
		return nil, err
	}
	status := &ClockStatus{Shift: shift}
	if shift.Status != shifts.StatusInProgress {
		return status, nil
	}
	last, err := s.events.LastOfKind(ctx, shift.ID, KindIn)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return status, nil
		}
		return nil, err
	}
	status.ClockedIn = true
	status.Since = &last.Timestamp
	duration := FormatDuration(last.Timestamp, now)
	status.Duration = &duration
	return status, nil
}

// History returns a worker's recent clock events, newest first.
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]ClockEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.events.ListByUser(ctx, userID, limit)
}

func (s *Service) buildEvent(userID, shiftID int64, kind EventKind, pos *geo.Point, notes *string, check geo.Result, now time.Time) ClockEvent {
	ev := ClockEvent{
		UserID:    userID,
		ShiftID:   shiftID,
		Kind:      kind,
		Notes:     notes,
		Timestamp: now,
	}
	if pos != nil {
		ev.Latitude = &pos.Lat
		ev.Longitude = &pos.Lng
	}
	if check.Nearest != nil {
		id := check.Nearest.ID
		ev.LocationID = &id
		ev.DistanceMeters = check.DistanceMeters
	}
	return ev
}
