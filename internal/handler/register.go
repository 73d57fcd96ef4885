package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/odwyaty/internal/registration"
	"github.com/iliyamo/odwyaty/internal/validator"
)

type Registrar interface {
	Register(ctx context.Context, in registration.Input) (registration.Result, error)
}

type RegisterHandler struct {
	Service Registrar
	Log     *slog.Logger
}

func NewRegisterHandler(s Registrar, log *slog.Logger) *RegisterHandler {
	return &RegisterHandler{Service: s, Log: logOrDefault(log)}
}

// Register handles POST /v1/register.
func (h *RegisterHandler) Register(c echo.Context) error {
	var in registration.Input
	if err := c.Bind(&in); err != nil {
		return invalidBody(c)
	}

	// allocation and the QR render can take longer than a plain query
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*dbTimeout)
	defer cancel()

	res, err := h.Service.Register(ctx, in)
	if err != nil {
		var verrs validator.Errors
		switch {
		case errors.As(err, &verrs):
			return validationFailed(c, verrs)
		case errors.Is(err, registration.ErrDuplicateNationalID):
			return validationFailed(c, validator.Errors{{Field: "nationalId", Message: registration.DuplicateNationalIDMessage}})
		case errors.Is(err, registration.ErrRegistrationDisabled):
			return fail(c, http.StatusForbidden, "REGISTRATION_DISABLED", "التسجيل مغلق حالياً")
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء التسجيل")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success":      true,
		"message":      "تم تسجيل العضوية بنجاح",
		"memberId":     res.MemberID,
		"memberNumber": res.MemberNumber,
	})
}
