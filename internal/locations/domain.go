package locations

import (
	"time"

	"github.com/shiftgate/shiftgate/internal/geo"
)

// DefaultRadiusMeters applies when a manager registers a location without
// an explicit radius.
const DefaultRadiusMeters = 100.0

// Location is a registered geofence anchor owned by a manager. Workers may
// clock in only within the radius of at least one of their manager's
// locations.
type Location struct {
	ID           int64     `json:"id"`
	ManagerID    int64     `json:"manager_id"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	RadiusMeters float64   `json:"radius_meters"`
	Address      *string   `json:"address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fence converts the location into its geometric form.
func (l Location) Fence() geo.Fence {
	return geo.Fence{
		ID:           l.ID,
		Center:       geo.Point{Lat: l.Latitude, Lng: l.Longitude},
		RadiusMeters: l.RadiusMeters,
	}
}

// Fences converts a location list for the perimeter checker.
func Fences(list []Location) []geo.Fence {
	fences := make([]geo.Fence, len(list))
	for i, l := range list {
		fences[i] = l.Fence()
	}
	return fences
}

// CreateLocationRequest is the payload for registering a geofence anchor.
type CreateLocationRequest struct {
	Latitude     float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude    float64  `json:"longitude" validate:"gte=-180,lte=180"`
	RadiusMeters *float64 `json:"radius_meters,omitempty" validate:"omitempty,gt=0,lte=100000"`
	Address      *string  `json:"address,omitempty" validate:"omitempty,max=300"`
}

// UpdateLocationRequest is the payload for adjusting an anchor.
type UpdateLocationRequest struct {
	Latitude     *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	RadiusMeters *float64 `json:"radius_meters,omitempty" validate:"omitempty,gt=0,lte=100000"`
	Address      *string  `json:"address,omitempty" validate:"omitempty,max=300"`
}
