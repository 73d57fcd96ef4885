package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/odwyaty/internal/model"
)

// SettingsRepo reads and writes the single settings row.
type SettingsRepo struct{ db *sql.DB }

func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{db: db} }

// Get returns the settings row, creating it with defaults on first read.
func (r *SettingsRepo) Get(ctx context.Context) (model.Settings, error) {
	s, err := r.get(ctx)
	if !errors.Is(err, sql.ErrNoRows) {
		return s, err
	}
	d := model.DefaultSettings()
	if _, err := r.db.ExecContext(ctx,
		`INSERT IGNORE INTO settings (id, platform_name, platform_subtitle, primary_color, membership_fee, enable_registration)
		 VALUES (?,?,?,?,?,?)`,
		d.ID, d.PlatformName, d.PlatformSubtitle, d.PrimaryColor, d.MembershipFee, d.EnableRegistration); err != nil {
		return model.Settings{}, fmt.Errorf("create default settings: %w", err)
	}
	return r.get(ctx)
}

func (r *SettingsRepo) get(ctx context.Context) (model.Settings, error) {
	var s model.Settings
	var logo, num, name sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, platform_name, platform_subtitle, primary_color, membership_fee, enable_registration,
			logo_url, instapay_number, instapay_name, updated_at
		 FROM settings WHERE id=? LIMIT 1`, model.SettingsID).
		Scan(&s.ID, &s.PlatformName, &s.PlatformSubtitle, &s.PrimaryColor, &s.MembershipFee, &s.EnableRegistration,
			&logo, &num, &name, &s.UpdatedAt)
	if err != nil {
		return s, err
	}
	s.LogoURL = nullToPtr(logo)
	s.InstapayNumber = nullToPtr(num)
	s.InstapayName = nullToPtr(name)
	return s, nil
}

// Upsert writes s as the settings row and returns the stored version.
func (r *SettingsRepo) Upsert(ctx context.Context, s model.Settings) (model.Settings, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (id, platform_name, platform_subtitle, primary_color, membership_fee,
			enable_registration, logo_url, instapay_number, instapay_name, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE
			platform_name=VALUES(platform_name), platform_subtitle=VALUES(platform_subtitle),
			primary_color=VALUES(primary_color), membership_fee=VALUES(membership_fee),
			enable_registration=VALUES(enable_registration), logo_url=VALUES(logo_url),
			instapay_number=VALUES(instapay_number), instapay_name=VALUES(instapay_name),
			updated_at=VALUES(updated_at)`,
		model.SettingsID, s.PlatformName, s.PlatformSubtitle, s.PrimaryColor, s.MembershipFee,
		s.EnableRegistration, s.LogoURL, s.InstapayNumber, s.InstapayName, time.Now().UTC())
	if err != nil {
		return model.Settings{}, fmt.Errorf("upsert settings: %w", err)
	}
	return r.get(ctx)
}
