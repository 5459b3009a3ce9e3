package shifts

import "time"

// ShiftStatus is the lifecycle state of a scheduled work period.
type ShiftStatus string

const (
	StatusScheduled  ShiftStatus = "SCHEDULED"
	StatusInProgress ShiftStatus = "IN_PROGRESS"
	StatusCompleted  ShiftStatus = "COMPLETED"
	StatusCancelled  ShiftStatus = "CANCELLED"
)

// Valid reports whether the status is one of the known states.
func (s ShiftStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Shift represents a scheduled work period for one care worker. At most one
// shift per worker is IN_PROGRESS at a time; the clock controller moves
// SCHEDULED shifts to IN_PROGRESS on clock-in and IN_PROGRESS shifts to
// COMPLETED on clock-out, rewriting EndTime to the actual departure.
type Shift struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	StartTime time.Time   `json:"start_time"`
	EndTime   time.Time   `json:"end_time"`
	Status    ShiftStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// CreateShiftRequest is the payload for scheduling a shift.
type CreateShiftRequest struct {
	UserID    int64     `json:"user_id" validate:"required,gt=0"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
}

// UpdateShiftRequest is the payload for rescheduling a shift.
type UpdateShiftRequest struct {
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}
