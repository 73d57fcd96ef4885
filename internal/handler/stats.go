package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/odwyaty/internal/calendar"
	"github.com/iliyamo/odwyaty/internal/model"
)

type StatsSource interface {
	Dashboard(ctx context.Context, now time.Time, loc *time.Location) (model.Stats, error)
}

type StatsHandler struct {
	Stats StatsSource
	Log   *slog.Logger
	now   func() time.Time
}

func NewStatsHandler(s StatsSource, log *slog.Logger) *StatsHandler {
	return &StatsHandler{Stats: s, Log: logOrDefault(log), now: time.Now}
}

// Dashboard handles GET /v1/admin/stats; day, week and month boundaries
// follow the Cairo calendar.
func (h *StatsHandler) Dashboard(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	st, err := h.Stats.Dashboard(ctx, h.now(), calendar.Cairo())
	if err != nil {
		return serverError(c, h.Log, err, "حدث خطأ أثناء جلب الإحصائيات")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": st})
}
