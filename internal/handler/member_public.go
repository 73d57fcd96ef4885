package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/odwyaty/internal/config"
	"github.com/iliyamo/odwyaty/internal/middleware"
	"github.com/iliyamo/odwyaty/internal/model"
	"github.com/iliyamo/odwyaty/internal/qrcode"
	"github.com/iliyamo/odwyaty/internal/repository"
	"github.com/iliyamo/odwyaty/internal/utils"
)

// MemberAccount is what member self-service needs from storage.
type MemberAccount interface {
	GetByID(ctx context.Context, id string) (model.Member, error)
	GetByNationalID(ctx context.Context, nationalID string) (model.Member, error)
	SetPassword(ctx context.Context, id, hash string) error
}

// MemberPublicHandler serves the membership card and member login.
type MemberPublicHandler struct {
	Cfg     config.Config
	Members MemberAccount
	Log     *slog.Logger
}

func NewMemberPublicHandler(cfg config.Config, m MemberAccount, log *slog.Logger) *MemberPublicHandler {
	return &MemberPublicHandler{Cfg: cfg, Members: m, Log: logOrDefault(log)}
}

func (h *MemberPublicHandler) cardResponse(m model.Member) echo.Map {
	return echo.Map{
		"success": true,
		"data":    m.Card(),
		"qrUrl":   qrcode.MemberURL(h.Cfg.AppURL, m.ID),
	}
}

// Card handles GET /v1/members/:id. qrCode is "" until the back-fill ran;
// qrUrl is always present so clients can render the code themselves.
func (h *MemberPublicHandler) Card(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	m, err := h.Members.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "MEMBER_NOT_FOUND", "العضو غير موجود")
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء جلب بيانات العضو")
	}
	return c.JSON(http.StatusOK, h.cardResponse(m))
}

type memberLoginReq struct {
	NationalID string `json:"nationalId"`
	Password   string `json:"password"`
}

// Login handles POST /v1/member/login.
func (h *MemberPublicHandler) Login(c echo.Context) error {
	var req memberLoginReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	req.NationalID = strings.TrimSpace(req.NationalID)
	if req.NationalID == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "MISSING_DATA", "الرقم القومي وكلمة المرور مطلوبان")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	m, err := h.Members.GetByNationalID(ctx, req.NationalID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return serverError(c, h.Log, err, "حدث خطأ أثناء تسجيل الدخول")
	}
	if err != nil || !utils.VerifyPassword(m.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "بيانات الدخول غير صحيحة")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, m.ID, utils.RoleMember, h.Cfg.AccessTTLMin)
	if err != nil {
		return serverError(c, h.Log, err, "حدث خطأ أثناء تسجيل الدخول")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"access":  tokenPart{Token: access.Token, Expires: access.Exp},
		"member":  m.Card(),
	})
}

type resetReq struct {
	NationalID string `json:"nationalId"`
}

// ResetPassword handles POST /v1/member/reset-password. The new password is
// returned once and only its bcrypt hash is kept.
func (h *MemberPublicHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	req.NationalID = strings.TrimSpace(req.NationalID)
	if req.NationalID == "" {
		return fail(c, http.StatusBadRequest, "MISSING_DATA", "الرقم القومي مطلوب")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	m, err := h.Members.GetByNationalID(ctx, req.NationalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "MEMBER_NOT_FOUND", "لا يوجد عضو بهذا الرقم القومي")
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء إعادة تعيين كلمة المرور")
	}
	pw, err := utils.GeneratePassword()
	if err != nil {
		return serverError(c, h.Log, err, "حدث خطأ أثناء إعادة تعيين كلمة المرور")
	}
	hash, err := utils.HashPassword(pw, h.Cfg.BcryptCost)
	if err != nil {
		return serverError(c, h.Log, err, "حدث خطأ أثناء إعادة تعيين كلمة المرور")
	}
	if err := h.Members.SetPassword(ctx, m.ID, hash); err != nil {
		return serverError(c, h.Log, err, "حدث خطأ أثناء إعادة تعيين كلمة المرور")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"newPassword":  pw,
			"memberNumber": m.MemberNumber,
			"fullName":     m.FullNameAr,
		},
	})
}

// Me handles GET /v1/member/me for a MEMBER token.
func (h *MemberPublicHandler) Me(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	m, err := h.Members.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "MEMBER_NOT_FOUND", "العضو غير موجود")
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء جلب بيانات العضو")
	}
	return c.JSON(http.StatusOK, h.cardResponse(m))
}
