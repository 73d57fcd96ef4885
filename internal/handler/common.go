package handler // handler defines http handlers

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/odwyaty/internal/validator"
)

// dbTimeout bounds the storage calls of a single request.
const dbTimeout = 5 * time.Second

func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// fail writes the error envelope used by every endpoint:
// {success:false, error:CODE, message:"..."}.
func fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, echo.Map{"success": false, "error": code, "message": message})
}

func invalidBody(c echo.Context) error {
	return fail(c, http.StatusBadRequest, "INVALID_BODY", "بيانات الطلب غير صالحة")
}

func notFound(c echo.Context, code, message string) error {
	return fail(c, http.StatusNotFound, code, message)
}

// serverError logs err with request context and hides it from the client.
func serverError(c echo.Context, log *slog.Logger, err error, message string) error {
	log.ErrorContext(c.Request().Context(), "request failed",
		"route", c.Path(),
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		"error", err)
	return fail(c, http.StatusInternalServerError, "SERVER_ERROR", message)
}

// validationFailed writes {success:false, errors:[{field,message}]}.
func validationFailed(c echo.Context, errs validator.Errors) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": errs})
}

type pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func newPagination(page, limit int, total int64) pagination {
	return pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
}

// pageParams reads ?page=&limit= with 1-based pages; limit is capped at 100.
func pageParams(c echo.Context, defLimit int) (int, int) {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit < 1 {
		limit = defLimit
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func logOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
