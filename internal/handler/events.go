package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/odwyaty/internal/calendar"
	"github.com/iliyamo/odwyaty/internal/middleware"
	"github.com/iliyamo/odwyaty/internal/model"
	"github.com/iliyamo/odwyaty/internal/repository"
	"github.com/iliyamo/odwyaty/internal/validator"
)

type EventStore interface {
	Create(ctx context.Context, e model.Event) error
	GetByID(ctx context.Context, id string) (model.Event, error)
	List(ctx context.Context, q repository.EventQuery) ([]model.Event, int64, error)
	Update(ctx context.Context, id string, u repository.EventUpdate) (model.Event, error)
	Delete(ctx context.Context, id string) error
}

type EventHandler struct {
	Events   EventStore
	Validate *validator.Validator
	Log      *slog.Logger
}

func NewEventHandler(events EventStore, v *validator.Validator, log *slog.Logger) *EventHandler {
	return &EventHandler{Events: events, Validate: v, Log: logOrDefault(log)}
}

// eventForm is a complete event as validated on create and, after merging
// the patch, on update.
type eventForm struct {
	Name             string `json:"name" validate:"required"`
	Description      string `json:"description"`
	Category         string `json:"category" validate:"required,category"`
	OrganizingEntity string `json:"organizingEntity" validate:"required"`
	Location         string `json:"location" validate:"required"`
	Date             string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime        string `json:"startTime" validate:"required,clock"`
	EndTime          string `json:"endTime" validate:"omitempty,clock"`
	IsActive         *bool  `json:"isActive"`
}

func (f *eventForm) normalize() {
	for _, s := range []*string{&f.Name, &f.Description, &f.Category, &f.OrganizingEntity,
		&f.Location, &f.Date, &f.StartTime, &f.EndTime} {
		*s = strings.TrimSpace(*s)
	}
	f.Date = eventDate(f.Date)
}

// eventDate accepts YYYY-MM-DD or a full RFC 3339 timestamp, which is reduced
// to its Cairo calendar date. Anything else is returned unchanged for the
// validator to reject.
func eventDate(s string) string {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return calendar.LocalDate(t, calendar.Cairo())
	}
	return s
}

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// List handles GET /v1/admin/events.
func (h *EventHandler) List(c echo.Context) error {
	page, limit := pageParams(c, 10)
	q := repository.EventQuery{
		Search:           strings.TrimSpace(c.QueryParam("search")),
		Category:         c.QueryParam("category"),
		OrganizingEntity: c.QueryParam("organizingEntity"),
		Page:             page,
		Limit:            limit,
	}
	if v, err := strconv.ParseBool(c.QueryParam("isActive")); err == nil {
		q.IsActive = &v
	}
	if only, _ := strconv.ParseBool(c.QueryParam("activeOnly")); only {
		active := true
		q.IsActive = &active
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	events, total, err := h.Events.List(ctx, q)
	if err != nil {
		return serverError(c, h.Log, err, "حدث خطأ أثناء جلب الفعاليات")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"data":       events,
		"pagination": newPagination(page, limit, total),
	})
}

// Create handles POST /v1/admin/events.
func (h *EventHandler) Create(c echo.Context) error {
	var f eventForm
	if err := c.Bind(&f); err != nil {
		return invalidBody(c)
	}
	f.normalize()
	if err := h.Validate.Validate(f); err != nil {
		var verrs validator.Errors
		if errors.As(err, &verrs) {
			return validationFailed(c, verrs)
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء إنشاء الفعالية")
	}

	date, _ := time.Parse(time.DateOnly, f.Date)
	now := time.Now().UTC()
	ev := model.Event{
		ID:               uuid.NewString(),
		Name:             f.Name,
		Description:      optionalText(f.Description),
		Category:         f.Category,
		OrganizingEntity: f.OrganizingEntity,
		Location:         f.Location,
		Date:             date,
		StartTime:        f.StartTime,
		EndTime:          optionalText(f.EndTime),
		IsActive:         f.IsActive == nil || *f.IsActive,
		CreatedBy:        middleware.UserID(c),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Events.Create(ctx, ev); err != nil {
		return serverError(c, h.Log, err, "حدث خطأ أثناء إنشاء الفعالية")
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "تم إنشاء الفعالية بنجاح", "data": ev})
}

// Get handles GET /v1/admin/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	ev, err := h.Events.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "EVENT_NOT_FOUND", "الفعالية غير موجودة")
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء جلب الفعالية")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": ev})
}

type eventPatch struct {
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	Category         *string `json:"category"`
	OrganizingEntity *string `json:"organizingEntity"`
	Location         *string `json:"location"`
	Date             *string `json:"date"`
	StartTime        *string `json:"startTime"`
	EndTime          *string `json:"endTime"`
	IsActive         *bool   `json:"isActive"`
}

// Update handles PUT /v1/admin/events/:id. The patch is merged onto the
// stored event and the result must still be a valid event.
func (h *EventHandler) Update(c echo.Context) error {
	var p eventPatch
	if err := c.Bind(&p); err != nil {
		return invalidBody(c)
	}
	id := c.Param("id")

	ctx, cancel := dbCtx(c)
	defer cancel()

	cur, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "EVENT_NOT_FOUND", "الفعالية غير موجودة")
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء تحديث الفعالية")
	}

	f := eventForm{
		Name:             cur.Name,
		Category:         cur.Category,
		OrganizingEntity: cur.OrganizingEntity,
		Location:         cur.Location,
		Date:             cur.Date.Format(time.DateOnly),
		StartTime:        cur.StartTime,
	}
	if cur.Description != nil {
		f.Description = *cur.Description
	}
	if cur.EndTime != nil {
		f.EndTime = *cur.EndTime
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&f.Name, p.Name)
	set(&f.Description, p.Description)
	set(&f.Category, p.Category)
	set(&f.OrganizingEntity, p.OrganizingEntity)
	set(&f.Location, p.Location)
	set(&f.Date, p.Date)
	set(&f.StartTime, p.StartTime)
	set(&f.EndTime, p.EndTime)
	f.normalize()
	if err := h.Validate.Validate(f); err != nil {
		var verrs validator.Errors
		if errors.As(err, &verrs) {
			return validationFailed(c, verrs)
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء تحديث الفعالية")
	}

	u := repository.EventUpdate{IsActive: p.IsActive}
	if p.Name != nil {
		u.Name = &f.Name
	}
	if p.Description != nil {
		u.Description = &f.Description
	}
	if p.Category != nil {
		u.Category = &f.Category
	}
	if p.OrganizingEntity != nil {
		u.OrganizingEntity = &f.OrganizingEntity
	}
	if p.Location != nil {
		u.Location = &f.Location
	}
	if p.Date != nil {
		d, _ := time.Parse(time.DateOnly, f.Date)
		u.Date = &d
	}
	if p.StartTime != nil {
		u.StartTime = &f.StartTime
	}
	if p.EndTime != nil {
		u.EndTime = &f.EndTime
	}

	ev, err := h.Events.Update(ctx, id, u)
	if err != nil {
		if errors.Is(err, repository.ErrNoChange) {
			return c.JSON(http.StatusOK, echo.Map{"success": true, "data": cur})
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء تحديث الفعالية")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "تم تحديث الفعالية بنجاح", "data": ev})
}

// Delete handles DELETE /v1/admin/events/:id; attendance goes with it.
func (h *EventHandler) Delete(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Events.Delete(ctx, c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "EVENT_NOT_FOUND", "الفعالية غير موجودة")
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء حذف الفعالية")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "تم حذف الفعالية بنجاح"})
}
