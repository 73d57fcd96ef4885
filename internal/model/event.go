package model

import "time"

// Event mirrors the `events` table. Attendance may only be recorded while
// IsActive is true.
type Event struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      *string   `json:"description"`
	Category         string    `json:"category"`
	OrganizingEntity string    `json:"organizingEntity"`
	Location         string    `json:"location"`
	Date             time.Time `json:"date"`      // events.event_date
	StartTime        string    `json:"startTime"` // HH:MM
	EndTime          *string   `json:"endTime"`
	IsActive         bool      `json:"isActive"`
	CreatedBy        string    `json:"createdBy"` // admins.id
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`

	// AttendanceCount is filled by list/get queries, not stored.
	AttendanceCount int64 `json:"attendanceCount"`
}
