package handler

import (
	"context"  // storage interfaces take a context
	"errors"   // errors.Is for repository sentinels
	"log/slog" // structured error logging
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities
	"time"     // token expiry timestamps

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/odwyaty/internal/config"     // app configuration
	"github.com/iliyamo/odwyaty/internal/middleware" // authenticated subject from the JWT
	"github.com/iliyamo/odwyaty/internal/model"      // admin rows
	"github.com/iliyamo/odwyaty/internal/repository" // sentinel errors
	"github.com/iliyamo/odwyaty/internal/utils"      // token issuing and password hashing
)

// AdminFinder loads admins for authentication.
type AdminFinder interface {
	GetByEmail(ctx context.Context, email string) (model.Admin, error)
	GetByID(ctx context.Context, id string) (model.Admin, error)
}

// RefreshStore persists hashed refresh tokens.
type RefreshStore interface {
	StoreRefresh(ctx context.Context, adminID, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForAdmin(ctx context.Context, adminID string) error
}

// AuthHandler bundles dependencies for admin auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Admins AdminFinder
	Tokens RefreshStore
	Log    *slog.Logger
}

func NewAuthHandler(cfg config.Config, a AdminFinder, t RefreshStore, log *slog.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Admins: a, Tokens: t, Log: logOrDefault(log)}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type adminPart struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}
type authResp struct {
	Success bool      `json:"success"`
	Admin   adminPart `json:"admin"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// issue creates a fresh access/refresh pair for a and stores the refresh hash.
func (h *AuthHandler) issue(ctx context.Context, a model.Admin) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, a.ID, utils.RoleAdmin, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, a.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		Success: true,
		Admin:   adminPart{ID: a.ID, Email: a.Email, Name: a.Name, Role: utils.RoleAdmin},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}

// Login: verify and return new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "MISSING_DATA", "البريد الإلكتروني وكلمة المرور مطلوبان")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	a, err := h.Admins.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "بيانات الدخول غير صحيحة")
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء تسجيل الدخول")
	}
	if !utils.VerifyPassword(a.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "بيانات الدخول غير صحيحة")
	}

	resp, err := h.issue(ctx, a)
	if err != nil {
		return serverError(c, h.Log, err, "حدث خطأ أثناء تسجيل الدخول")
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return fail(c, http.StatusBadRequest, "MISSING_DATA", "refresh_token مطلوب")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := dbCtx(c)
	defer cancel()

	adminID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "غير مصرح")
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء تجديد الجلسة")
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return serverError(c, h.Log, err, "حدث خطأ أثناء تجديد الجلسة")
	}

	a, err := h.Admins.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "المسؤول غير موجود")
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء تجديد الجلسة")
	}

	resp, err := h.issue(ctx, a)
	if err != nil {
		return serverError(c, h.Log, err, "حدث خطأ أثناء تجديد الجلسة")
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes one session when a refresh_token is posted, or every
// session of the bearer's admin otherwise.
func (h *AuthHandler) Logout(c echo.Context) error {
	var adminID string
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil &&
			claims.Role == utils.RoleAdmin {
			adminID = claims.Subject
		}
	}

	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := dbCtx(c)
	defer cancel()

	switch {
	case refreshToken != "":
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "غير مصرح")
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return serverError(c, h.Log, err, "حدث خطأ أثناء تسجيل الخروج")
		}
	case adminID != "":
		if err := h.Tokens.RevokeAllForAdmin(ctx, adminID); err != nil {
			return serverError(c, h.Log, err, "حدث خطأ أثناء تسجيل الخروج")
		}
	default:
		return fail(c, http.StatusBadRequest, "MISSING_DATA", "provide Authorization header or refresh_token")
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the calling admin.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	a, err := h.Admins.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "المسؤول غير موجود")
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء جلب البيانات")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": a})
}
