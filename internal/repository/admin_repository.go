package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/odwyaty/internal/database"
	"github.com/iliyamo/odwyaty/internal/model"
	"github.com/iliyamo/odwyaty/internal/utils"
)

// DefaultAdminName is used when an admin is created without a name.
const DefaultAdminName = "مسؤول جديد"

type AdminRepo struct{ DB *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

const adminColumns = "id, email, password_hash, name, created_at, updated_at"

func scanAdmin(s rowScanner) (model.Admin, error) {
	var a model.Admin
	err := s.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// Create hashes password and inserts an admin.
func (r *AdminRepo) Create(ctx context.Context, email, password, name string, cost int) (model.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultAdminName
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.Admin{}, err
	}
	now := time.Now().UTC()
	a := model.Admin{ID: uuid.NewString(), Email: email, PasswordHash: hash, Name: name, CreatedAt: now, UpdatedAt: now}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO admins (id, email, password_hash, name, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		a.ID, a.Email, a.PasswordHash, a.Name, now, now)
	if err != nil {
		if database.IsDuplicateKey(err, "uq_admins_email") {
			return model.Admin{}, ErrEmailExists
		}
		return model.Admin{}, fmt.Errorf("insert admin: %w", err)
	}
	return a, nil
}

// GetByEmail fetches an admin by normalized email.
func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (model.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	a, err := scanAdmin(r.DB.QueryRowContext(ctx,
		"SELECT "+adminColumns+" FROM admins WHERE email=? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

// GetByID fetches an admin by id.
func (r *AdminRepo) GetByID(ctx context.Context, id string) (model.Admin, error) {
	a, err := scanAdmin(r.DB.QueryRowContext(ctx,
		"SELECT "+adminColumns+" FROM admins WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

func (r *AdminRepo) List(ctx context.Context) ([]model.Admin, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+adminColumns+" FROM admins ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Admin{}
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AdminRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM admins").Scan(&n)
	return n, err
}

// AdminUpdate is a partial update. Password is plain text and is hashed here.
type AdminUpdate struct {
	Email    *string
	Name     *string
	Password *string
}

func (r *AdminRepo) Update(ctx context.Context, id string, u AdminUpdate, cost int) (model.Admin, error) {
	sets := []string{}
	args := []any{}
	if u.Email != nil {
		sets = append(sets, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*u.Email)))
	}
	if u.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, strings.TrimSpace(*u.Name))
	}
	if u.Password != nil {
		hash, err := utils.HashPassword(*u.Password, cost)
		if err != nil {
			return model.Admin{}, err
		}
		sets = append(sets, "password_hash=?")
		args = append(args, hash)
	}
	if len(sets) == 0 {
		return model.Admin{}, ErrNoChange
	}
	args = append(args, id)
	if _, err := r.DB.ExecContext(ctx, "UPDATE admins SET "+strings.Join(sets, ", ")+" WHERE id=?", args...); err != nil {
		if database.IsDuplicateKey(err, "uq_admins_email") {
			return model.Admin{}, ErrEmailExists
		}
		return model.Admin{}, fmt.Errorf("update admin: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Delete removes an admin unless it is the last one. The count and the
// delete run in one transaction with the admin rows locked, so two
// concurrent deletes cannot both pass the guard.
func (r *AdminRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var ids []string
	rows, err := tx.QueryContext(ctx, "SELECT id FROM admins FOR UPDATE")
	if err != nil {
		return err
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	found := false
	for _, v := range ids {
		if v == id {
			found = true
			break
		}
	}
	if !found {
		return ErrNotFound
	}
	if len(ids) <= 1 {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM admins WHERE id=?", id); err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// EnsureSeed creates the bootstrap admin when no admin with email exists.
// It reports whether a row was created.
func (r *AdminRepo) EnsureSeed(ctx context.Context, email, password, name string, cost int) (bool, error) {
	if _, err := r.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if _, err := r.Create(ctx, email, password, name, cost); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
