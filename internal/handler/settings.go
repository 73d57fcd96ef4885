package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/odwyaty/internal/model"
	"github.com/iliyamo/odwyaty/internal/validator"
)

type SettingsStore interface {
	Get(ctx context.Context) (model.Settings, error)
	Upsert(ctx context.Context, s model.Settings) (model.Settings, error)
}

type SettingsHandler struct {
	Settings SettingsStore
	Validate *validator.Validator
	// Invalidate drops cached public responses after a change. May be nil.
	Invalidate func(ctx context.Context) error
	Log        *slog.Logger
}

func NewSettingsHandler(s SettingsStore, v *validator.Validator, invalidate func(context.Context) error, log *slog.Logger) *SettingsHandler {
	return &SettingsHandler{Settings: s, Validate: v, Invalidate: invalidate, Log: logOrDefault(log)}
}

// Get serves both GET /v1/settings/public and GET /v1/admin/settings.
func (h *SettingsHandler) Get(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	s, err := h.Settings.Get(ctx)
	if err != nil {
		return serverError(c, h.Log, err, "حدث خطأ أثناء جلب الإعدادات")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": s})
}

type settingsPatch struct {
	PlatformName       *string  `json:"platformName"`
	PlatformSubtitle   *string  `json:"platformSubtitle"`
	PrimaryColor       *string  `json:"primaryColor"`
	MembershipFee      *float64 `json:"membershipFee"`
	EnableRegistration *bool    `json:"enableRegistration"`
	LogoURL            *string  `json:"logoUrl"`
	InstapayNumber     *string  `json:"instapayNumber"`
	InstapayName       *string  `json:"instapayName"`
}

type settingsCheck struct {
	PlatformName  string  `json:"platformName" validate:"required"`
	PrimaryColor  string  `json:"primaryColor" validate:"required,hexcolor"`
	MembershipFee float64 `json:"membershipFee" validate:"gte=0"`
	LogoURL       string  `json:"logoUrl" validate:"omitempty,imageref"`
}

// nullable maps "" to nil so cleared optional settings are stored as NULL.
func nullable(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

// Update handles PUT /v1/admin/settings: the patch is merged onto the
// current row and written back.
func (h *SettingsHandler) Update(c echo.Context) error {
	var p settingsPatch
	if err := c.Bind(&p); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	s, err := h.Settings.Get(ctx)
	if err != nil {
		return serverError(c, h.Log, err, "حدث خطأ أثناء تحديث الإعدادات")
	}
	if p.PlatformName != nil {
		s.PlatformName = strings.TrimSpace(*p.PlatformName)
	}
	if p.PlatformSubtitle != nil {
		s.PlatformSubtitle = strings.TrimSpace(*p.PlatformSubtitle)
	}
	if p.PrimaryColor != nil {
		s.PrimaryColor = strings.TrimSpace(*p.PrimaryColor)
	}
	if p.MembershipFee != nil {
		s.MembershipFee = *p.MembershipFee
	}
	if p.EnableRegistration != nil {
		s.EnableRegistration = *p.EnableRegistration
	}
	if p.LogoURL != nil {
		s.LogoURL = nullable(p.LogoURL)
	}
	if p.InstapayNumber != nil {
		s.InstapayNumber = nullable(p.InstapayNumber)
	}
	if p.InstapayName != nil {
		s.InstapayName = nullable(p.InstapayName)
	}

	check := settingsCheck{PlatformName: s.PlatformName, PrimaryColor: s.PrimaryColor, MembershipFee: s.MembershipFee}
	if s.LogoURL != nil {
		check.LogoURL = *s.LogoURL
	}
	if err := h.Validate.Validate(check); err != nil {
		var verrs validator.Errors
		if errors.As(err, &verrs) {
			return validationFailed(c, verrs)
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء تحديث الإعدادات")
	}

	saved, err := h.Settings.Upsert(ctx, s)
	if err != nil {
		return serverError(c, h.Log, err, "حدث خطأ أثناء تحديث الإعدادات")
	}
	if h.Invalidate != nil {
		if err := h.Invalidate(context.WithoutCancel(ctx)); err != nil {
			h.Log.Warn("settings cache invalidation failed", "error", err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "تم حفظ الإعدادات بنجاح", "data": saved})
}
