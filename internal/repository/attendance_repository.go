package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/odwyaty/internal/database"
	"github.com/iliyamo/odwyaty/internal/model"
)

// AttendanceRepo owns the attendances table.
type AttendanceRepo struct{ db *sql.DB }

func NewAttendanceRepo(db *sql.DB) *AttendanceRepo { return &AttendanceRepo{db: db} }

// Find returns the attendance of memberID at eventID.
func (r *AttendanceRepo) Find(ctx context.Context, eventID, memberID string) (model.Attendance, error) {
	var a model.Attendance
	err := r.db.QueryRowContext(ctx,
		`SELECT id, event_id, member_id, scanned_by, scanned_at
		 FROM attendances WHERE event_id=? AND member_id=? LIMIT 1`, eventID, memberID).
		Scan(&a.ID, &a.EventID, &a.MemberID, &a.ScannedBy, &a.ScannedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

// Insert creates an attendance row. A concurrent insert for the same
// (event, member) pair loses on uq_attendances_event_member and gets
// ErrDuplicate.
func (r *AttendanceRepo) Insert(ctx context.Context, a model.Attendance) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO attendances (id, event_id, member_id, scanned_by, scanned_at) VALUES (?,?,?,?,?)",
		a.ID, a.EventID, a.MemberID, a.ScannedBy, a.ScannedAt)
	if err != nil {
		if database.IsDuplicateKey(err, "uq_attendances_event_member") {
			return ErrDuplicate
		}
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

// ListByEvent pages through an event's attendance, newest scan first. search
// matches member names and member number.
func (r *AttendanceRepo) ListByEvent(ctx context.Context, eventID, search string, page, limit int) ([]model.AttendanceRow, int64, error) {
	cond := "a.event_id = ?"
	args := []any{eventID}
	if search != "" {
		cond += " AND (m.full_name_ar LIKE ? OR LOWER(m.full_name_en) LIKE ? OR LOWER(m.member_number) LIKE ?)"
		lower := "%" + strings.ToLower(search) + "%"
		args = append(args, "%"+search+"%", lower, lower)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM attendances a JOIN members m ON m.id = a.member_id WHERE "+cond, args...).
		Scan(&total); err != nil {
		return nil, 0, err
	}

	lim, offset := pageWindow(page, limit)
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.scanned_at, a.scanned_by, COALESCE(ad.name, ''),
			m.id, m.full_name_ar, m.full_name_en, m.member_number, m.entity_name, m.profile_image, m.governorate
		 FROM attendances a
		 JOIN members m      ON m.id = a.member_id
		 LEFT JOIN admins ad ON ad.id = a.scanned_by
		 WHERE `+cond+`
		 ORDER BY a.scanned_at DESC
		 LIMIT ? OFFSET ?`,
		append(append([]any{}, args...), lim, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.AttendanceRow, 0, lim)
	for rows.Next() {
		var row model.AttendanceRow
		m := &row.Member
		if err := rows.Scan(&row.ID, &row.ScannedAt, &row.ScannerID, &row.ScannerName,
			&m.ID, &m.FullNameAr, &m.FullNameEn, &m.MemberNumber, &m.EntityName, &m.ProfileImage, &m.Governorate); err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
