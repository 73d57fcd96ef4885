package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/odwyaty/internal/calendar"
	"github.com/iliyamo/odwyaty/internal/catalog"
	"github.com/iliyamo/odwyaty/internal/model"
)

// TrendDays is the length of the attendance trend window.
const TrendDays = 30

// StatsRepo runs the dashboard aggregate queries.
type StatsRepo struct{ db *sql.DB }

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// Dashboard computes the admin summary as of now, using loc for day, week and
// month boundaries and for bucketing the attendance trend.
func (r *StatsRepo) Dashboard(ctx context.Context, now time.Time, loc *time.Location) (model.Stats, error) {
	st := model.Stats{
		MembersByGovernorate:   []model.GovernorateCount{},
		MemberTypeDistribution: map[string]int64{catalog.MemberTypeStudent: 0, catalog.MemberTypeGraduate: 0},
	}

	counts := []struct {
		dst  *int64
		q    string
		args []any
	}{
		{&st.TotalMembers, "SELECT COUNT(*) FROM members", nil},
		{&st.TodayNew, "SELECT COUNT(*) FROM members WHERE created_at >= ?", []any{calendar.DayStart(now, loc)}},
		{&st.WeekNew, "SELECT COUNT(*) FROM members WHERE created_at >= ?", []any{calendar.WeekStart(now, loc)}},
		{&st.MonthNew, "SELECT COUNT(*) FROM members WHERE created_at >= ?", []any{calendar.MonthStart(now, loc)}},
		{&st.TotalEvents, "SELECT COUNT(*) FROM events", nil},
		{&st.ActiveEvents, "SELECT COUNT(*) FROM events WHERE is_active = 1", nil},
		{&st.TotalAttendance, "SELECT COUNT(*) FROM attendances", nil},
	}
	for _, c := range counts {
		if err := r.db.QueryRowContext(ctx, c.q, c.args...).Scan(c.dst); err != nil {
			return st, fmt.Errorf("stats count: %w", err)
		}
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT governorate, COUNT(*) AS n FROM members GROUP BY governorate ORDER BY n DESC, governorate")
	if err != nil {
		return st, fmt.Errorf("stats governorates: %w", err)
	}
	for rows.Next() {
		var g model.GovernorateCount
		if err := rows.Scan(&g.Governorate, &g.Count); err != nil {
			rows.Close()
			return st, err
		}
		st.MembersByGovernorate = append(st.MembersByGovernorate, g)
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx, "SELECT member_type, COUNT(*) FROM members GROUP BY member_type")
	if err != nil {
		return st, fmt.Errorf("stats member types: %w", err)
	}
	for rows.Next() {
		var t string
		var n int64
		if err := rows.Scan(&t, &n); err != nil {
			rows.Close()
			return st, err
		}
		st.MemberTypeDistribution[t] = n
	}
	rows.Close()

	days := calendar.Days(now, loc, TrendDays)
	since := calendar.DayStart(now, loc).AddDate(0, 0, -(TrendDays - 1))
	// Hourly UTC buckets keep the result small while still mapping exactly
	// onto local days (Cairo offsets are whole hours).
	rows, err = r.db.QueryContext(ctx,
		`SELECT DATE_FORMAT(scanned_at, '%Y-%m-%d %H:00:00') AS h, COUNT(*)
		 FROM attendances WHERE scanned_at >= ? GROUP BY h`, since)
	if err != nil {
		return st, fmt.Errorf("stats trend: %w", err)
	}
	defer rows.Close()
	hourly := map[time.Time]int64{}
	for rows.Next() {
		var h string
		var n int64
		if err := rows.Scan(&h, &n); err != nil {
			return st, err
		}
		t, err := time.ParseInLocation(time.DateTime, h, time.UTC)
		if err != nil {
			return st, fmt.Errorf("stats trend bucket %q: %w", h, err)
		}
		hourly[t] += n
	}
	if err := rows.Err(); err != nil {
		return st, err
	}
	st.AttendanceTrend = BucketTrend(days, hourly, loc)
	return st, nil
}

// BucketTrend folds UTC hour buckets into the given local dates; hours that
// fall outside days are dropped.
func BucketTrend(days []string, hourly map[time.Time]int64, loc *time.Location) []model.DateCount {
	idx := make(map[string]int, len(days))
	out := make([]model.DateCount, len(days))
	for i, d := range days {
		idx[d] = i
		out[i] = model.DateCount{Date: d}
	}
	for h, n := range hourly {
		if i, ok := idx[calendar.LocalDate(h, loc)]; ok {
			out[i].Count += n
		}
	}
	return out
}
