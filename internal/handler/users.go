package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/odwyaty/internal/middleware"
	"github.com/iliyamo/odwyaty/internal/model"
	"github.com/iliyamo/odwyaty/internal/repository"
	"github.com/iliyamo/odwyaty/internal/validator"
)

type AdminStore interface {
	List(ctx context.Context) ([]model.Admin, error)
	Create(ctx context.Context, email, password, name string, cost int) (model.Admin, error)
	Update(ctx context.Context, id string, u repository.AdminUpdate, cost int) (model.Admin, error)
	Delete(ctx context.Context, id string) error
}

// UserHandler manages admin accounts.
type UserHandler struct {
	Admins     AdminStore
	Validate   *validator.Validator
	BcryptCost int
	Log        *slog.Logger
}

func NewUserHandler(admins AdminStore, v *validator.Validator, cost int, log *slog.Logger) *UserHandler {
	return &UserHandler{Admins: admins, Validate: v, BcryptCost: cost, Log: logOrDefault(log)}
}

type adminCreateForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"`
}

type adminUpdateForm struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Name     *string `json:"name"`
}

// adminUpdateCheck holds the supplied fields of an update for validation.
type adminUpdateCheck struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

func (h *UserHandler) invalid(c echo.Context, err error, msg string) error {
	var verrs validator.Errors
	if errors.As(err, &verrs) {
		return validationFailed(c, verrs)
	}
	return serverError(c, h.Log, err, msg)
}

func emailTaken(c echo.Context) error {
	return validationFailed(c, validator.Errors{{Field: "email", Message: "البريد الإلكتروني مستخدم بالفعل"}})
}

// List handles GET /v1/admin/users.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	admins, err := h.Admins.List(ctx)
	if err != nil {
		return serverError(c, h.Log, err, "حدث خطأ أثناء جلب المسؤولين")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": admins})
}

// Create handles POST /v1/admin/users.
func (h *UserHandler) Create(c echo.Context) error {
	var f adminCreateForm
	if err := c.Bind(&f); err != nil {
		return invalidBody(c)
	}
	f.Email = strings.TrimSpace(f.Email)
	if err := h.Validate.Validate(f); err != nil {
		return h.invalid(c, err, "حدث خطأ أثناء إنشاء المسؤول")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	a, err := h.Admins.Create(ctx, f.Email, f.Password, f.Name, h.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return emailTaken(c)
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء إنشاء المسؤول")
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "تم إنشاء المسؤول بنجاح", "data": a})
}

// Update handles PUT /v1/admin/users/:id.
func (h *UserHandler) Update(c echo.Context) error {
	var f adminUpdateForm
	if err := c.Bind(&f); err != nil {
		return invalidBody(c)
	}
	var check adminUpdateCheck
	if f.Email != nil {
		check.Email = strings.TrimSpace(*f.Email)
		if check.Email == "" {
			return validationFailed(c, validator.Errors{{Field: "email", Message: "البريد الإلكتروني مطلوب"}})
		}
	}
	if f.Password != nil {
		check.Password = *f.Password
		if check.Password == "" {
			return validationFailed(c, validator.Errors{{Field: "password", Message: "كلمة المرور مطلوبة"}})
		}
	}
	if err := h.Validate.Validate(check); err != nil {
		return h.invalid(c, err, "حدث خطأ أثناء تحديث المسؤول")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	a, err := h.Admins.Update(ctx, c.Param("id"), repository.AdminUpdate{
		Email:    f.Email,
		Name:     f.Name,
		Password: f.Password,
	}, h.BcryptCost)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "تم تحديث المسؤول بنجاح", "data": a})
	case errors.Is(err, repository.ErrNoChange):
		return fail(c, http.StatusBadRequest, "NO_CHANGES", "لا توجد بيانات للتحديث")
	case errors.Is(err, repository.ErrEmailExists):
		return emailTaken(c)
	case errors.Is(err, repository.ErrNotFound):
		return notFound(c, "USER_NOT_FOUND", "المسؤول غير موجود")
	}
	return serverError(c, h.Log, err, "حدث خطأ أثناء تحديث المسؤول")
}

// Delete handles DELETE /v1/admin/users/:id. Admins cannot delete themselves
// and the last admin always stays.
func (h *UserHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if id == middleware.UserID(c) {
		return fail(c, http.StatusBadRequest, "CANNOT_DELETE_SELF", "لا يمكنك حذف حسابك الخاص")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	switch err := h.Admins.Delete(ctx, id); {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "تم حذف المسؤول بنجاح"})
	case errors.Is(err, repository.ErrNotFound):
		return notFound(c, "USER_NOT_FOUND", "المسؤول غير موجود")
	case errors.Is(err, repository.ErrConflict):
		return fail(c, http.StatusBadRequest, "LAST_ADMIN", "لا يمكن حذف آخر مسؤول")
	default:
		return serverError(c, h.Log, err, "حدث خطأ أثناء حذف المسؤول")
	}
}
