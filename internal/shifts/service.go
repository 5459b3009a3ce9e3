package shifts

import (
	"context"
	"errors"
	"time"

	"github.com/shiftgate/shiftgate/internal/shared"
)

// ErrNotCancellable indicates a cancel on a completed or already cancelled
// shift.
var ErrNotCancellable = errors.New("shifts: shift is not cancellable")

// ErrShiftHasEvents refuses deletion of shifts with recorded clock events.
var ErrShiftHasEvents = errors.New("shifts: shift referenced by clock events")

// RepositoryPort defines data access methods for shifts.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (*Shift, error)
	ListByUser(ctx context.Context, userID int64) ([]Shift, error)
	ListByManager(ctx context.Context, managerID int64) ([]Shift, error)
	FindEligibleShift(ctx context.Context, userID int64, now time.Time) (*Shift, error)
	Create(ctx context.Context, s Shift) (*Shift, error)
	UpdateWindow(ctx context.Context, id int64, start, end time.Time) (*Shift, error)
	TransitionStatus(ctx context.Context, id int64, from, to ShiftStatus, endTime *time.Time) (*Shift, bool, error)
	HasInProgress(ctx context.Context, userID int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// Directory answers manager/worker ownership questions. Implemented by the
// staff repository.
type Directory interface {
	IsManagedBy(ctx context.Context, userID, managerID int64) (bool, error)
}

// EventLookup reports whether clock events reference a shift. Implemented
// by the clock event repository.
type EventLookup interface {
	HasEventsForShift(ctx context.Context, shiftID int64) (bool, error)
}

// Service handles manager scheduling and worker shift queries.
type Service struct {
	repo      RepositoryPort
	directory Directory
	events    EventLookup
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, directory Directory, events EventLookup) *Service {
	return &Service{repo: repo, directory: directory, events: events}
}

// Create schedules a shift for a worker the manager manages.
func (s *Service) Create(ctx context.Context, managerID int64, req CreateShiftRequest) (*Shift, error) {
	if err := s.requireManaged(ctx, req.UserID, managerID); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, Shift{
		UserID:    req.UserID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    StatusScheduled,
	})
}

// Update reschedules a shift's window.
func (s *Service) Update(ctx context.Context, managerID, shiftID int64, req UpdateShiftRequest) (*Shift, error) {
	shift, err := s.managedShift(ctx, managerID, shiftID)
	if err != nil {
		return nil, err
	}
	start := shift.StartTime
	end := shift.EndTime
	if req.StartTime != nil {
		start = *req.StartTime
	}
	if req.EndTime != nil {
		end = *req.EndTime
	}
	if !end.After(start) {
		return nil, errors.New("shifts: end time must follow start time")
	}
	return s.repo.UpdateWindow(ctx, shiftID, start, end)
}

// Cancel moves a SCHEDULED or IN_PROGRESS shift to CANCELLED. This is the
// manager-driven transition; clock events never cancel.
func (s *Service) Cancel(ctx context.Context, managerID, shiftID int64) (*Shift, error) {
	shift, err := s.managedShift(ctx, managerID, shiftID)
	if err != nil {
		return nil, err
	}
	for _, from := range []ShiftStatus{StatusScheduled, StatusInProgress} {
		cancelled, ok, err := s.repo.TransitionStatus(ctx, shift.ID, from, StatusCancelled, nil)
		if err != nil {
			return nil, err
		}
		if ok {
			return cancelled, nil
		}
	}
	return nil, ErrNotCancellable
}

// Delete removes a shift that has no recorded clock events.
func (s *Service) Delete(ctx context.Context, managerID, shiftID int64) error {
	shift, err := s.managedShift(ctx, managerID, shiftID)
	if err != nil {
		return err
	}
	has, err := s.events.HasEventsForShift(ctx, shift.ID)
	if err != nil {
		return err
	}
	if has {
		return ErrShiftHasEvents
	}
	return s.repo.Delete(ctx, shift.ID)
}

// ListForManager returns shifts across the manager's staff.
func (s *Service) ListForManager(ctx context.Context, managerID int64) ([]Shift, error) {
	return s.repo.ListByManager(ctx, managerID)
}

// ListForWorker returns the worker's own shifts.
func (s *Service) ListForWorker(ctx context.Context, userID int64) ([]Shift, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Current resolves the worker's currently eligible shift, mirroring the
// clock controller's resolution so the UI and the gate agree.
func (s *Service) Current(ctx context.Context, userID int64, now time.Time) (*Shift, error) {
	return s.repo.FindEligibleShift(ctx, userID, now)
}

func (s *Service) managedShift(ctx context.Context, managerID, shiftID int64) (*Shift, error) {
	shift, err := s.repo.Get(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManaged(ctx, shift.UserID, managerID); err != nil {
		return nil, err
	}
	return shift, nil
}

func (s *Service) requireManaged(ctx context.Context, userID, managerID int64) error {
	managed, err := s.directory.IsManagedBy(ctx, userID, managerID)
	if err != nil {
		return err
	}
	if !managed {
		return shared.ErrForbidden
	}
	return nil
}
