package analytics

import "time"

// ClockedInEntry is one currently clocked-in worker on the live board.
type ClockedInEntry struct {
	UserID    int64     `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	ShiftID   int64     `json:"shift_id"`
	Since     time.Time `json:"since"`
	Duration  string    `json:"duration"`
}

// DailyStat aggregates one day of clock activity for a manager's team.
type DailyStat struct {
	Day             time.Time `json:"day"`
	ClockIns        int64     `json:"clock_ins"`
	CompletedShifts int64     `json:"completed_shifts"`
	AvgHours        float64   `json:"avg_hours"`
}

// StaffHours is one worker's accumulated hours over a week.
type StaffHours struct {
	UserID          int64   `json:"user_id"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	TotalHours      float64 `json:"total_hours"`
	CompletedShifts int64   `json:"completed_shifts"`
}

// Dashboard bundles the three manager panels.
type Dashboard struct {
	ClockedIn   []ClockedInEntry `json:"clocked_in"`
	Daily       []DailyStat      `json:"daily"`
	WeeklyHours []StaffHours     `json:"weekly_hours"`
	GeneratedAt time.Time        `json:"generated_at"`
}
