package model

import "time"

// Attendance mirrors the `attendances` table. (EventID, MemberID) is unique.
type Attendance struct {
	ID        string    `json:"id"`
	EventID   string    `json:"eventId"`
	MemberID  string    `json:"memberId"`
	ScannedBy string    `json:"scannedBy"`
	ScannedAt time.Time `json:"scannedAt"`
}

// AttendanceRow is one line of an event's attendance list.
type AttendanceRow struct {
	ID          string         `json:"id"`
	ScannedAt   time.Time      `json:"scannedAt"`
	Member      MemberSnapshot `json:"member"`
	ScannerID   string         `json:"scannedBy"`
	ScannerName string         `json:"scannerName"` // "" when the admin was deleted
}
