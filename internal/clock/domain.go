package clock

import (
	"time"

	"github.com/google/uuid"

	"github.com/shiftgate/shiftgate/internal/geo"
	"github.com/shiftgate/shiftgate/internal/locations"
	"github.com/shiftgate/shiftgate/internal/shifts"
)

// EventKind distinguishes clock-in from clock-out records.
type EventKind string

const (
	KindIn  EventKind = "IN"
	KindOut EventKind = "OUT"
)

// ClockEvent is an immutable record of a clock-in or clock-out occurrence.
// LocationID and DistanceMeters describe the nearest registered location at
// the recorded position, when one existed. Latitude and Longitude are absent
// when a clock-out arrived with unusable coordinates.
type ClockEvent struct {
	ID             uuid.UUID `json:"id"`
	UserID         int64     `json:"user_id"`
	ShiftID        int64     `json:"shift_id"`
	Kind           EventKind `json:"kind"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	LocationID     *int64    `json:"location_id,omitempty"`
	DistanceMeters *float64  `json:"distance_meters,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// ClockRequest is the payload for clock-in and clock-out.
type ClockRequest struct {
	Position geo.Point `json:"position"`
	Notes    *string   `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// ClockResult pairs the created event with the updated shift.
type ClockResult struct {
	Event ClockEvent   `json:"event"`
	Shift shifts.Shift `json:"shift"`
}

// PerimeterCheck is the response of the standalone perimeter query.
type PerimeterCheck struct {
	IsWithinPerimeter bool                `json:"is_within_perimeter"`
	NearestLocation   *locations.Location `json:"nearest_location"`
	DistanceMeters    *float64            `json:"distance_meters"`
}

// ClockStatus reports a worker's live clock state for dashboard display.
type ClockStatus struct {
	Shift     *shifts.Shift `json:"shift"`
	ClockedIn bool          `json:"clocked_in"`
	Since     *time.Time    `json:"since,omitempty"`
	Duration  *string       `json:"duration,omitempty"`
}
