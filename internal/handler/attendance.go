package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/odwyaty/internal/attendance"
	"github.com/iliyamo/odwyaty/internal/middleware"
	"github.com/iliyamo/odwyaty/internal/model"
	"github.com/iliyamo/odwyaty/internal/qrcode"
	"github.com/iliyamo/odwyaty/internal/queue"
	"github.com/iliyamo/odwyaty/internal/repository"
)

type AttendanceRecorder interface {
	Record(ctx context.Context, eventID, memberID, scannedBy string) (attendance.Result, error)
}

type AttendancePublisher interface {
	PublishAttendanceRecorded(ctx context.Context, ev queue.AttendanceRecordedEvent) error
}

type AttendanceLister interface {
	ListByEvent(ctx context.Context, eventID, search string, page, limit int) ([]model.AttendanceRow, int64, error)
}

type EventGetter interface {
	GetByID(ctx context.Context, id string) (model.Event, error)
}

type AdminGetter interface {
	GetByID(ctx context.Context, id string) (model.Admin, error)
}

// AttendanceHandler serves the scanner and the per-event attendance list.
type AttendanceHandler struct {
	Recorder  AttendanceRecorder
	Publisher AttendancePublisher // may be nil
	Rows      AttendanceLister
	Events    EventGetter
	Admins    AdminGetter
	Log       *slog.Logger
}

func NewAttendanceHandler(rec AttendanceRecorder, pub AttendancePublisher, rows AttendanceLister,
	events EventGetter, admins AdminGetter, log *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{Recorder: rec, Publisher: pub, Rows: rows, Events: events, Admins: admins, Log: logOrDefault(log)}
}

type scanReq struct {
	EventID  string `json:"eventId"`
	MemberID string `json:"memberId"`
	Code     string `json:"code"` // raw QR payload, used when memberId is empty
}

// Scan handles POST /v1/admin/attendance/scan.
func (h *AttendanceHandler) Scan(c echo.Context) error {
	scannedBy := middleware.UserID(c)
	if scannedBy == "" {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "غير مصرح")
	}

	var req scanReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	req.EventID = strings.TrimSpace(req.EventID)
	req.MemberID = strings.TrimSpace(req.MemberID)
	req.Code = strings.TrimSpace(req.Code)
	if req.EventID == "" || (req.MemberID == "" && req.Code == "") {
		return fail(c, http.StatusBadRequest, "MISSING_DATA", "يرجى تحديد الفعالية والعضو")
	}
	memberID := req.MemberID
	if memberID == "" {
		id, err := qrcode.ExtractMemberID(req.Code)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_CODE", "رمز QR غير صالح")
		}
		memberID = id
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if _, err := h.Admins.GetByID(ctx, scannedBy); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "المسؤول غير موجود")
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء تسجيل الحضور")
	}

	res, err := h.Recorder.Record(ctx, req.EventID, memberID, scannedBy)
	if err != nil {
		return serverError(c, h.Log, err, "حدث خطأ أثناء تسجيل الحضور")
	}

	switch res.Outcome {
	case attendance.Recorded:
		h.publish(ctx, res, req.EventID, scannedBy)
		return c.JSON(http.StatusOK, echo.Map{
			"success": true,
			"message": "تم تسجيل الحضور بنجاح",
			"data": echo.Map{
				"member":    res.Member,
				"event":     echo.Map{"name": res.EventName},
				"scannedAt": res.ScannedAt,
			},
		})
	case attendance.AlreadyAttended:
		return c.JSON(http.StatusConflict, echo.Map{
			"success": false,
			"error":   "ALREADY_ATTENDED",
			"message": "هذا العضو مسجل حضوره مسبقاً في هذه الفعالية",
			"data": echo.Map{
				"member":    res.Member,
				"scannedAt": res.ScannedAt,
			},
		})
	case attendance.EventNotFound:
		return notFound(c, "EVENT_NOT_FOUND", "الفعالية غير موجودة")
	case attendance.EventInactive:
		return fail(c, http.StatusBadRequest, "EVENT_INACTIVE", "الفعالية غير نشطة")
	case attendance.MemberNotFound:
		return notFound(c, "MEMBER_NOT_FOUND", "العضو غير موجود")
	}
	return serverError(c, h.Log, errors.New("unknown outcome "+res.Outcome.String()), "حدث خطأ أثناء تسجيل الحضور")
}

func (h *AttendanceHandler) publish(ctx context.Context, res attendance.Result, eventID, scannedBy string) {
	if h.Publisher == nil {
		return
	}
	ev := queue.AttendanceRecordedEvent{
		AttendanceID: res.AttendanceID,
		EventID:      eventID,
		EventName:    res.EventName,
		MemberID:     res.Member.ID,
		MemberNumber: res.Member.MemberNumber,
		ScannedBy:    scannedBy,
		ScannedAt:    res.ScannedAt.Format(time.RFC3339),
	}
	if err := h.Publisher.PublishAttendanceRecorded(context.WithoutCancel(ctx), ev); err != nil {
		h.Log.Warn("publish attendance.recorded failed", "attendance_id", res.AttendanceID, "error", err)
	}
}

// ListByEvent handles GET /v1/admin/events/:id/attendance.
func (h *AttendanceHandler) ListByEvent(c echo.Context) error {
	eventID := c.Param("id")
	page, limit := pageParams(c, 20)
	search := strings.TrimSpace(c.QueryParam("search"))

	ctx, cancel := dbCtx(c)
	defer cancel()

	ev, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "EVENT_NOT_FOUND", "الفعالية غير موجودة")
		}
		return serverError(c, h.Log, err, "حدث خطأ أثناء جلب الحضور")
	}
	rows, total, err := h.Rows.ListByEvent(ctx, eventID, search, page, limit)
	if err != nil {
		return serverError(c, h.Log, err, "حدث خطأ أثناء جلب الحضور")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"data":       rows,
		"event":      ev,
		"pagination": newPagination(page, limit, total),
	})
}
