package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/odwyaty/internal/calendar"
	"github.com/iliyamo/odwyaty/internal/catalog"
	"github.com/iliyamo/odwyaty/internal/model"
	"github.com/iliyamo/odwyaty/internal/registration"
	"github.com/iliyamo/odwyaty/internal/repository"
	"github.com/iliyamo/odwyaty/internal/validator"
)

type MemberStore interface {
	GetByID(ctx context.Context, id string) (model.Member, error)
	List(ctx context.Context, q repository.MemberQuery) ([]model.Member, int64, error)
	Count(ctx context.Context, q repository.MemberQuery) (int64, error)
	ExistsNationalID(ctx context.Context, nationalID, excludeID string) (bool, error)
	Update(ctx context.Context, id string, u repository.MemberUpdate) (model.Member, error)
	Delete(ctx context.Context, id string) error
}

type QRRegenerator interface {
	RegenerateAll(ctx context.Context) (registration.RegenerateResult, error)
}

// MemberHandler serves the admin member pages.
type MemberHandler struct {
	Members  MemberStore
	QR       QRRegenerator
	Validate *validator.Validator
	Log      *slog.Logger
	now      func() time.Time
}

func NewMemberHandler(members MemberStore, qr QRRegenerator, v *validator.Validator, log *slog.Logger) *MemberHandler {
	return &MemberHandler{Members: members, QR: qr, Validate: v, Log: logOrDefault(log), now: time.Now}
}

// List handles GET /v1/admin/members. stats.todayNew counts members created
// since Cairo midnight that also match the list filters.
func (h *MemberHandler) List(c echo.Context) error {
	page, limit := pageParams(c, 10)
	q := repository.MemberQuery{
		Search:      strings.TrimSpace(c.QueryParam("search")),
		Governorate: c.QueryParam("governorate"),
		EntityName:  c.QueryParam("entityName"),
		Page:        page,
		Limit:       limit,
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	members, total, err := h.Members.List(ctx, q)
	if err != nil {
		return serverError(c, h.Log, err, "حدث خطأ أثناء جلب الأعضاء")
	}
	today := q
	today.CreatedFrom = calendar.DayStart(h.now(), calendar.Cairo())
	todayNew, err := h.Members.Count(ctx, today)
	if err != nil {
		return serverError(c, h.Log, err, "حدث خطأ أثناء جلب الأعضاء")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"data":       members,
		"stats":      echo.Map{"todayNew": todayNew},
		"pagination": newPagination(page, limit, total),
	})
}

// Get handles GET /v1/admin/members/:id with the full record.
func (h *MemberHandler) Get(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	m, err := h.Members.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "MEMBER_NOT_FOUND", "العضو غير موجود")
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء جلب العضو")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": m})
}

type memberPatch struct {
	NationalID      *string  `json:"nationalId"`
	FullNameAr      *string  `json:"fullNameAr"`
	FullNameEn      *string  `json:"fullNameEn"`
	Governorate     *string  `json:"governorate"`
	MemberType      *string  `json:"memberType"`
	EntityName      *string  `json:"entityName"`
	Role            *string  `json:"role"`
	PaymentMethod   *string  `json:"paymentMethod"`
	CoordinatorName *string  `json:"coordinatorName"`
	InstapayRef     *string  `json:"instapayRef"`
	AmountPaid      *float64 `json:"amountPaid"`
	ProfileImage    *string  `json:"profileImage"`
	PaymentReceipt  *string  `json:"paymentReceipt"`
}

// merge applies p onto m and returns the result as a registration form so
// the same rules hold after an edit.
func (p memberPatch) merge(m model.Member) registration.Input {
	in := registration.Input{
		NationalID:     m.NationalID,
		FullNameAr:     m.FullNameAr,
		FullNameEn:     m.FullNameEn,
		Governorate:    m.Governorate,
		MemberType:     m.MemberType,
		EntityName:     m.EntityName,
		Role:           m.Role,
		PaymentMethod:  m.PaymentMethod,
		AmountPaid:     m.AmountPaid,
		ProfileImage:   m.ProfileImage,
		PaymentReceipt: m.PaymentReceipt,
	}
	if m.CoordinatorName != nil {
		in.CoordinatorName = *m.CoordinatorName
	}
	if m.InstapayRef != nil {
		in.InstapayRef = *m.InstapayRef
	}
	for dst, src := range map[*string]*string{
		&in.NationalID:      p.NationalID,
		&in.FullNameAr:      p.FullNameAr,
		&in.FullNameEn:      p.FullNameEn,
		&in.Governorate:     p.Governorate,
		&in.MemberType:      p.MemberType,
		&in.EntityName:      p.EntityName,
		&in.Role:            p.Role,
		&in.PaymentMethod:   p.PaymentMethod,
		&in.CoordinatorName: p.CoordinatorName,
		&in.InstapayRef:     p.InstapayRef,
		&in.ProfileImage:    p.ProfileImage,
		&in.PaymentReceipt:  p.PaymentReceipt,
	} {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	if p.AmountPaid != nil {
		in.AmountPaid = *p.AmountPaid
	}
	in.Normalize()
	return in
}

// update picks the patched columns out of the normalized form in. The
// detail field of the payment method not in use is cleared.
func (p memberPatch) update(in registration.Input, cur model.Member) repository.MemberUpdate {
	pick := func(patched *string, v string) *string {
		if patched == nil {
			return nil
		}
		return &v
	}
	u := repository.MemberUpdate{
		NationalID:      pick(p.NationalID, in.NationalID),
		FullNameAr:      pick(p.FullNameAr, in.FullNameAr),
		FullNameEn:      pick(p.FullNameEn, in.FullNameEn),
		Governorate:     pick(p.Governorate, in.Governorate),
		MemberType:      pick(p.MemberType, in.MemberType),
		EntityName:      pick(p.EntityName, in.EntityName),
		Role:            pick(p.Role, in.Role),
		PaymentMethod:   pick(p.PaymentMethod, in.PaymentMethod),
		CoordinatorName: pick(p.CoordinatorName, in.CoordinatorName),
		InstapayRef:     pick(p.InstapayRef, in.InstapayRef),
		AmountPaid:      p.AmountPaid,
		ProfileImage:    pick(p.ProfileImage, in.ProfileImage),
		PaymentReceipt:  pick(p.PaymentReceipt, in.PaymentReceipt),
	}

	none := ""
	switch in.PaymentMethod {
	case catalog.PaymentCoordinator:
		if cur.InstapayRef != nil || u.InstapayRef != nil {
			u.InstapayRef = &none
		}
	case catalog.PaymentInstapay:
		if cur.CoordinatorName != nil || u.CoordinatorName != nil {
			u.CoordinatorName = &none
		}
	}
	return u
}

func duplicateNationalID(c echo.Context) error {
	return validationFailed(c, validator.Errors{{Field: "nationalId", Message: registration.DuplicateNationalIDMessage}})
}

// Update handles PUT /v1/admin/members/:id. The member number never changes,
// even when the governorate does.
func (h *MemberHandler) Update(c echo.Context) error {
	var p memberPatch
	if err := c.Bind(&p); err != nil {
		return invalidBody(c)
	}
	id := c.Param("id")

	ctx, cancel := dbCtx(c)
	defer cancel()

	cur, err := h.Members.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "MEMBER_NOT_FOUND", "العضو غير موجود")
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء تحديث العضو")
	}

	merged := p.merge(cur)
	if err := h.Validate.Validate(merged); err != nil {
		var verrs validator.Errors
		if errors.As(err, &verrs) {
			return validationFailed(c, verrs)
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء تحديث العضو")
	}

	if merged.NationalID != cur.NationalID {
		taken, err := h.Members.ExistsNationalID(ctx, merged.NationalID, id)
		if err != nil {
			return serverError(c, h.Log, err, "حدث خطأ أثناء تحديث العضو")
		}
		if taken {
			return duplicateNationalID(c)
		}
	}

	m, err := h.Members.Update(ctx, id, p.update(merged, cur))
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "تم تحديث بيانات العضو بنجاح", "data": m})
	case errors.Is(err, repository.ErrNoChange):
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": cur})
	case errors.Is(err, repository.ErrNationalIDExists):
		return duplicateNationalID(c)
	case errors.Is(err, repository.ErrNotFound):
		return notFound(c, "MEMBER_NOT_FOUND", "العضو غير موجود")
	}
	return serverError(c, h.Log, err, "حدث خطأ أثناء تحديث العضو")
}

// Delete handles DELETE /v1/admin/members/:id.
func (h *MemberHandler) Delete(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Members.Delete(ctx, c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "MEMBER_NOT_FOUND", "العضو غير موجود")
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء حذف العضو")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "تم حذف العضو بنجاح"})
}

// RegenerateQR handles POST /v1/admin/members/regenerate-qr. It runs over
// every member, so it gets a longer deadline than single-row requests.
func (h *MemberHandler) RegenerateQR(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Minute)
	defer cancel()

	res, err := h.QR.RegenerateAll(ctx)
	if err != nil {
		return serverError(c, h.Log, err, "حدث خطأ أثناء تحديث رموز QR")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"message":      "تم تحديث رموز QR",
		"updatedCount": res.UpdatedCount,
		"errors":       res.Errors,
	})
}
