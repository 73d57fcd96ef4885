package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/odwyaty/internal/database"
	"github.com/iliyamo/odwyaty/internal/model"
)

// MemberRepo owns the members table.
type MemberRepo struct{ db *sql.DB }

func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

const memberColumns = `id, member_number, national_id, full_name_ar, full_name_en, governorate,
	member_type, entity_name, role, payment_method, coordinator_name, instapay_ref,
	amount_paid, payment_receipt, profile_image, qr_code, COALESCE(password_hash, ''),
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(s rowScanner) (model.Member, error) {
	var m model.Member
	var coord, insta sql.NullString
	err := s.Scan(&m.ID, &m.MemberNumber, &m.NationalID, &m.FullNameAr, &m.FullNameEn, &m.Governorate,
		&m.MemberType, &m.EntityName, &m.Role, &m.PaymentMethod, &coord, &insta,
		&m.AmountPaid, &m.PaymentReceipt, &m.ProfileImage, &m.QRCode, &m.PasswordHash,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return m, err
	}
	m.CoordinatorName = nullToPtr(coord)
	m.InstapayRef = nullToPtr(insta)
	return m, nil
}

func nullToPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// Create inserts m. The national-id unique key is the backstop for the
// caller's pre-check: a race between two registrations surfaces here as
// ErrNationalIDExists.
func (r *MemberRepo) Create(ctx context.Context, m model.Member) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (id, member_number, national_id, full_name_ar, full_name_en, governorate,
			member_type, entity_name, role, payment_method, coordinator_name, instapay_ref,
			amount_paid, payment_receipt, profile_image, qr_code, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		m.ID, m.MemberNumber, m.NationalID, m.FullNameAr, m.FullNameEn, m.Governorate,
		m.MemberType, m.EntityName, m.Role, m.PaymentMethod, m.CoordinatorName, m.InstapayRef,
		m.AmountPaid, m.PaymentReceipt, m.ProfileImage, m.QRCode, m.CreatedAt, m.CreatedAt)
	if err != nil {
		switch {
		case database.IsDuplicateKey(err, "uq_members_national_id"):
			return ErrNationalIDExists
		case database.IsDuplicateKey(err):
			return fmt.Errorf("insert member: %w", ErrDuplicate)
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// GetByID fetches a member by id.
func (r *MemberRepo) GetByID(ctx context.Context, id string) (model.Member, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	return m, err
}

// GetByNationalID fetches a member by national id.
func (r *MemberRepo) GetByNationalID(ctx context.Context, nationalID string) (model.Member, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE national_id=? LIMIT 1", nationalID))
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	return m, err
}

// Snapshot returns the fields shown alongside a scan result.
func (r *MemberRepo) Snapshot(ctx context.Context, id string) (model.MemberSnapshot, error) {
	var s model.MemberSnapshot
	err := r.db.QueryRowContext(ctx,
		`SELECT id, full_name_ar, full_name_en, member_number, entity_name, profile_image, governorate
		 FROM members WHERE id=? LIMIT 1`, id).
		Scan(&s.ID, &s.FullNameAr, &s.FullNameEn, &s.MemberNumber, &s.EntityName, &s.ProfileImage, &s.Governorate)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

// ExistsNationalID reports whether nationalID belongs to a member other than
// excludeID (pass "" to check all members).
func (r *MemberRepo) ExistsNationalID(ctx context.Context, nationalID, excludeID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM members WHERE national_id=? AND id<>? LIMIT 1", nationalID, excludeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MemberQuery defines filters & pagination for listing members.
type MemberQuery struct {
	Search      string    // names, national id, member number
	Governorate string
	EntityName  string
	CreatedFrom time.Time // zero means no lower bound
	Page        int
	Limit       int
}

func (q MemberQuery) where() (string, []any) {
	where := []string{}
	args := []any{}

	if q.Search != "" {
		where = append(where, "(full_name_ar LIKE ? OR LOWER(full_name_en) LIKE ? OR national_id LIKE ? OR LOWER(member_number) LIKE ?)")
		like := "%" + q.Search + "%"
		lower := "%" + strings.ToLower(q.Search) + "%"
		args = append(args, like, lower, like, lower)
	}
	if q.Governorate != "" {
		where = append(where, "governorate = ?")
		args = append(args, q.Governorate)
	}
	if q.EntityName != "" {
		where = append(where, "entity_name = ?")
		args = append(args, q.EntityName)
	}
	if !q.CreatedFrom.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, q.CreatedFrom.UTC())
	}

	if len(where) == 0 {
		return "1=1", args
	}
	return strings.Join(where, " AND "), args
}

// Count returns how many members match q's filters (paging is ignored).
func (r *MemberRepo) Count(ctx context.Context, q MemberQuery) (int64, error) {
	cond, args := q.where()
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM members WHERE "+cond, args...).Scan(&n)
	return n, err
}

func (r *MemberRepo) List(ctx context.Context, q MemberQuery) ([]model.Member, int64, error) {
	cond, args := q.where()
	total, err := r.Count(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	limit, offset := pageWindow(q.Page, q.Limit)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE "+cond+" ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		append(append([]any{}, args...), limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Member, 0, limit)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// MemberUpdate is a partial update; nil fields are left unchanged.
type MemberUpdate struct {
	NationalID      *string
	FullNameAr      *string
	FullNameEn      *string
	Governorate     *string
	MemberType      *string
	EntityName      *string
	Role            *string
	PaymentMethod   *string
	CoordinatorName *string
	InstapayRef     *string
	AmountPaid      *float64
	ProfileImage    *string
	PaymentReceipt  *string
}

// Update applies u to member id and returns the updated row. Governorate
// changes do not touch member_number: numbers are allocate-once.
func (r *MemberRepo) Update(ctx context.Context, id string, u MemberUpdate) (model.Member, error) {
	sets := []string{}
	args := []any{}
	add := func(col string, v any) {
		sets = append(sets, col+"=?")
		args = append(args, v)
	}
	if u.NationalID != nil {
		add("national_id", *u.NationalID)
	}
	if u.FullNameAr != nil {
		add("full_name_ar", *u.FullNameAr)
	}
	if u.FullNameEn != nil {
		add("full_name_en", *u.FullNameEn)
	}
	if u.Governorate != nil {
		add("governorate", *u.Governorate)
	}
	if u.MemberType != nil {
		add("member_type", *u.MemberType)
	}
	if u.EntityName != nil {
		add("entity_name", *u.EntityName)
	}
	if u.Role != nil {
		add("role", *u.Role)
	}
	if u.PaymentMethod != nil {
		add("payment_method", *u.PaymentMethod)
	}
	if u.CoordinatorName != nil {
		add("coordinator_name", emptyToNull(*u.CoordinatorName))
	}
	if u.InstapayRef != nil {
		add("instapay_ref", emptyToNull(*u.InstapayRef))
	}
	if u.AmountPaid != nil {
		add("amount_paid", *u.AmountPaid)
	}
	if u.ProfileImage != nil {
		add("profile_image", *u.ProfileImage)
	}
	if u.PaymentReceipt != nil {
		add("payment_receipt", *u.PaymentReceipt)
	}
	if len(sets) == 0 {
		return model.Member{}, ErrNoChange
	}

	args = append(args, id)
	res, err := r.db.ExecContext(ctx, "UPDATE members SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil {
		if database.IsDuplicateKey(err, "uq_members_national_id") {
			return model.Member{}, ErrNationalIDExists
		}
		return model.Member{}, fmt.Errorf("update member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 for a no-op update too; tell the two apart.
		if _, err := r.GetByID(ctx, id); err != nil {
			return model.Member{}, err
		}
	}
	return r.GetByID(ctx, id)
}

func emptyToNull(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// Delete removes a member; attendance rows go with it (FK cascade). The
// member's number is not returned to the pool.
func (r *MemberRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM members WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetQRCode back-fills the QR payload after creation.
func (r *MemberRepo) SetQRCode(ctx context.Context, id, qr string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE members SET qr_code=? WHERE id=?", qr, id)
	if err != nil {
		return fmt.Errorf("set qr code: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// SetPassword stores a bcrypt hash for member self-service login.
func (r *MemberRepo) SetPassword(ctx context.Context, id, hash string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE members SET password_hash=? WHERE id=?", hash, id)
	if err != nil {
		return fmt.Errorf("set member password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListIDs returns every member id, oldest first.
func (r *MemberRepo) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM members ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// pageWindow converts 1-based page/limit into LIMIT/OFFSET.
func pageWindow(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return limit, (page - 1) * limit
}
