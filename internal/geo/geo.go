// Package geo implements the perimeter membership check used to gate
// clock-ins. It is a pure leaf package: distances are great-circle
// (haversine) against registered fence centers, and the only failure mode
// is a malformed coordinate.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Fence is a circular geofence anchored at Center.
type Fence struct {
	ID           int64
	Center       Point
	RadiusMeters float64
}

// Result reports perimeter membership for a point against a fence set.
// Nearest and DistanceMeters are nil when the fence set is empty.
type Result struct {
	Within         bool
	Nearest        *Fence
	DistanceMeters *float64
}

// InvalidCoordinateError rejects non-finite or out-of-range coordinates
// before they can produce nonsense distances.
type InvalidCoordinateError struct {
	Lat float64
	Lng float64
}

func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("geo: invalid coordinate lat=%v lng=%v", e.Lat, e.Lng)
}

// Validate checks that the point is a well-formed WGS84 coordinate.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return &InvalidCoordinateError{Lat: p.Lat, Lng: p.Lng}
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return &InvalidCoordinateError{Lat: p.Lat, Lng: p.Lng}
	}
	return nil
}

// Distance returns the great-circle distance between two points in meters.
func Distance(a, b Point) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// CheckPerimeter classifies a point against the fence set. The point is
// within the perimeter when at least one fence's distance is inside that
// fence's own radius; this is independent of which fence is nearest, so a
// point can satisfy a far, wide fence while sitting just outside a close,
// narrow one.
func CheckPerimeter(p Point, fences []Fence) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	result := Result{}
	best := math.Inf(1)
	for i := range fences {
		fence := fences[i]
		if err := fence.Center.Validate(); err != nil {
			return Result{}, err
		}
		d := Distance(p, fence.Center)
		if d < best {
			best = d
			result.Nearest = &fence
			result.DistanceMeters = &d
		}
		if d <= fence.RadiusMeters {
			result.Within = true
		}
	}
	return result, nil
}
