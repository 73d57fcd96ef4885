// Package queue defines the messages exchanged over RabbitMQ, the publisher
// used by the registration and scan flows, and the activity-log consumer.
package queue

// Queue names. Both queues are durable and use the default exchange.
const (
    MemberRegisteredQueue   = "member.registered"
    AttendanceRecordedQueue = "attendance.recorded"
)

// MemberRegisteredEvent is published after a member row is created. It
// carries enough for downstream consumers to log or notify without querying
// the database.
type MemberRegisteredEvent struct {
    MemberID     string `json:"member_id"`
    MemberNumber string `json:"member_number"`
    FullNameAr   string `json:"full_name_ar"`
    Governorate  string `json:"governorate"`
    EntityName   string `json:"entity_name"`
    MemberType   string `json:"member_type"`
    QRPending    bool   `json:"qr_pending"` // QR back-fill failed
    RegisteredAt string `json:"registered_at"`
}

// AttendanceRecordedEvent is published when a scan creates an attendance row.
// Duplicate scans publish nothing.
type AttendanceRecordedEvent struct {
    AttendanceID string `json:"attendance_id"`
    EventID      string `json:"event_id"`
    EventName    string `json:"event_name"`
    MemberID     string `json:"member_id"`
    MemberNumber string `json:"member_number"`
    ScannedBy    string `json:"scanned_by"`
    ScannedAt    string `json:"scanned_at"`
}
