package clock

import (
	"fmt"
	"time"
)

// Business-rule error kinds. These are expected, user-facing outcomes of
// legitimate requests, not bugs; the transport layer maps them to distinct
// problem responses and the caller must not retry them.
const (
	ErrKindNoActiveShift     = "NoActiveShift"
	ErrKindAlreadyClockedIn  = "AlreadyClockedIn"
	ErrKindAlreadyClockedOut = "AlreadyClockedOut"
	ErrKindOutsidePerimeter  = "OutsidePerimeter"
)

// BusinessError is implemented by all clock business-rule errors.
type BusinessError interface {
	error
	Kind() string
}

// NoActiveShiftError indicates no eligible shift exists for the worker at
// the requested time.
type NoActiveShiftError struct {
	UserID int64
	At     time.Time
}

func (e *NoActiveShiftError) Error() string {
	return fmt.Sprintf("clock: no active shift for user %d at %s", e.UserID, e.At.Format(time.RFC3339))
}

func (e *NoActiveShiftError) Kind() string { return ErrKindNoActiveShift }

// AlreadyClockedInError indicates a clock-in while a prior clock-in is
// still unmatched by a clock-out. ShiftID is zero when the duplicate was
// detected before the shift could be resolved (concurrent attempt).
type AlreadyClockedInError struct {
	ShiftID int64
}

func (e *AlreadyClockedInError) Error() string {
	if e.ShiftID == 0 {
		return "clock: already clocked in"
	}
	return fmt.Sprintf("clock: shift %d is already in progress", e.ShiftID)
}

func (e *AlreadyClockedInError) Kind() string { return ErrKindAlreadyClockedIn }

// AlreadyClockedOutError indicates a clock-out on a shift that already has
// one recorded.
type AlreadyClockedOutError struct {
	ShiftID int64
}

func (e *AlreadyClockedOutError) Error() string {
	if e.ShiftID == 0 {
		return "clock: already clocked out"
	}
	return fmt.Sprintf("clock: shift %d already has a clock-out", e.ShiftID)
}

func (e *AlreadyClockedOutError) Kind() string { return ErrKindAlreadyClockedOut }

// OutsidePerimeterError rejects a clock-in from outside every registered
// location's radius. Distance and location fields are nil/zero when the
// manager has no registered locations at all.
type OutsidePerimeterError struct {
	NearestLocationID int64
	DistanceMeters    *float64
}

func (e *OutsidePerimeterError) Error() string {
	if e.DistanceMeters == nil {
		return "clock: position outside all registered perimeters"
	}
	return fmt.Sprintf("clock: position is %.0fm from the nearest registered location", *e.DistanceMeters)
}

func (e *OutsidePerimeterError) Kind() string { return ErrKindOutsidePerimeter }
