package model

// Stats is the admin dashboard summary.
type Stats struct {
	TotalMembers           int64              `json:"totalMembers"`
	TodayNew               int64              `json:"todayNew"`
	WeekNew                int64              `json:"weekNew"`
	MonthNew               int64              `json:"monthNew"`
	TotalEvents            int64              `json:"totalEvents"`
	ActiveEvents           int64              `json:"activeEvents"`
	TotalAttendance        int64              `json:"totalAttendance"`
	MembersByGovernorate   []GovernorateCount `json:"membersByGovernorate"`
	MemberTypeDistribution map[string]int64   `json:"memberTypeDistribution"` // student, graduate
	AttendanceTrend        []DateCount        `json:"attendanceTrend"`
}

type GovernorateCount struct {
	Governorate string `json:"governorate"`
	Count       int64  `json:"count"`
}

type DateCount struct {
	Date  string `json:"date"` // YYYY-MM-DD, Cairo calendar
	Count int64  `json:"count"`
}
