package clock

import (
	"fmt"
	"time"
)

// FormatDuration renders the elapsed time between two clock events the way
// the dashboards display it, e.g. "8h 30m". Hours and minutes are floored
// from the millisecond difference; seconds never round a minute up.
func FormatDuration(from, to time.Time) string {
	diffMs := to.Sub(from).Milliseconds()
	if diffMs < 0 {
		diffMs = 0
	}
	hours := diffMs / 3_600_000
	minutes := (diffMs % 3_600_000) / 60_000
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
