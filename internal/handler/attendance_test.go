package handler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/odwyaty/internal/attendance"
	"github.com/iliyamo/odwyaty/internal/logger"
	"github.com/iliyamo/odwyaty/internal/model"
	"github.com/iliyamo/odwyaty/internal/queue"
	"github.com/iliyamo/odwyaty/internal/repository"
)

type stubRecorder struct {
	res      attendance.Result
	err      error
	memberID string
	calls    int
}

func (s *stubRecorder) Record(_ context.Context, _, memberID, _ string) (attendance.Result, error) {
	s.calls++
	s.memberID = memberID
	return s.res, s.err
}

type capturePublisher struct{ events []queue.AttendanceRecordedEvent }

func (p *capturePublisher) PublishAttendanceRecorded(_ context.Context, ev queue.AttendanceRecordedEvent) error {
	p.events = append(p.events, ev)
	return nil
}

type stubEvents struct{ ev *model.Event }

func (s stubEvents) GetByID(context.Context, string) (model.Event, error) {
	if s.ev == nil {
		return model.Event{}, repository.ErrNotFound
	}
	return *s.ev, nil
}

type stubRows struct {
	rows  []model.AttendanceRow
	total int64
	page  int
	limit int
}

func (s *stubRows) ListByEvent(_ context.Context, _, _ string, page, limit int) ([]model.AttendanceRow, int64, error) {
	s.page, s.limit = page, limit
	return s.rows, s.total, nil
}

func TestScanMapsOutcomes(t *testing.T) {
	scannedAt := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	member := model.MemberSnapshot{ID: testMemberID, FullNameAr: "أحمد محمد علي حسن", MemberNumber: "CA-00001"}

	tests := []struct {
		name    string
		res     attendance.Result
		status  int
		code    string
		message string
	}{
		{"recorded", attendance.Result{Outcome: attendance.Recorded, Member: member, EventName: "ورشة", ScannedAt: scannedAt, AttendanceID: "att-1"},
			http.StatusOK, "", "تم تسجيل الحضور بنجاح"},
		{"already", attendance.Result{Outcome: attendance.AlreadyAttended, Member: member, ScannedAt: scannedAt},
			http.StatusConflict, "ALREADY_ATTENDED", "هذا العضو مسجل حضوره مسبقاً في هذه الفعالية"},
		{"no event", attendance.Result{Outcome: attendance.EventNotFound}, http.StatusNotFound, "EVENT_NOT_FOUND", "الفعالية غير موجودة"},
		{"inactive", attendance.Result{Outcome: attendance.EventInactive}, http.StatusBadRequest, "EVENT_INACTIVE", "الفعالية غير نشطة"},
		{"no member", attendance.Result{Outcome: attendance.MemberNotFound}, http.StatusNotFound, "MEMBER_NOT_FOUND", "العضو غير موجود"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &capturePublisher{}
			h := NewAttendanceHandler(&stubRecorder{res: tt.res}, pub, &stubRows{}, stubEvents{}, oneAdmin(), logger.Discard())

			rec, body := call(t, h.Scan, http.MethodPost, "/v1/admin/attendance/scan",
				`{"eventId":"`+testEventID+`","memberId":"`+testMemberID+`"}`, testAdminID)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, body["message"])
			if tt.code != "" {
				assert.Equal(t, tt.code, body["error"])
			}

			switch tt.res.Outcome {
			case attendance.Recorded:
				data := body["data"].(map[string]any)
				assert.Equal(t, "ورشة", data["event"].(map[string]any)["name"])
				assert.Equal(t, "CA-00001", data["member"].(map[string]any)["memberNumber"])
				require.Len(t, pub.events, 1)
				assert.Equal(t, "att-1", pub.events[0].AttendanceID)
				assert.Equal(t, testAdminID, pub.events[0].ScannedBy)
			case attendance.AlreadyAttended:
				assert.Equal(t, "2025-05-01T10:00:00Z", body["data"].(map[string]any)["scannedAt"])
				assert.Empty(t, pub.events)
			default:
				assert.Empty(t, pub.events)
			}
		})
	}
}

func TestScanDoesNotWaitOnBroker(t *testing.T) {
	// accepts TCP, never speaks AMQP
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	conns := make(chan net.Conn, 8)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			conns <- c
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		for {
			select {
			case c := <-conns:
				_ = c.Close()
			default:
				return
			}
		}
	})

	pub := queue.NewPublisher("amqp://guest:guest@"+ln.Addr().String()+"/", logger.Discard())
	pub.DialTimeout = 200 * time.Millisecond
	res := attendance.Result{Outcome: attendance.Recorded, AttendanceID: "att-1", ScannedAt: time.Now()}
	h := NewAttendanceHandler(&stubRecorder{res: res}, pub, &stubRows{}, stubEvents{}, oneAdmin(), logger.Discard())

	start := time.Now()
	rec, _ := call(t, h.Scan, http.MethodPost, "/", `{"eventId":"`+testEventID+`","memberId":"`+testMemberID+`"}`, testAdminID)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Less(t, time.Since(start), time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	assert.NoError(t, pub.Close(ctx))
}

func TestScanResolvesQRCode(t *testing.T) {
	rec := &stubRecorder{res: attendance.Result{Outcome: attendance.Recorded}}
	h := NewAttendanceHandler(rec, nil, &stubRows{}, stubEvents{}, oneAdmin(), logger.Discard())

	resp, _ := call(t, h.Scan, http.MethodPost, "/", `{"eventId":"`+testEventID+`","code":"https://odwyaty.com/member/`+testMemberID+`"}`, testAdminID)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, testMemberID, rec.memberID)

	resp, body := call(t, h.Scan, http.MethodPost, "/", `{"eventId":"`+testEventID+`","code":"hello"}`, testAdminID)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "INVALID_CODE", body["error"])
	assert.Equal(t, 1, rec.calls)
}

func TestScanRejectsBeforeRecording(t *testing.T) {
	rec := &stubRecorder{}
	h := NewAttendanceHandler(rec, nil, &stubRows{}, stubEvents{}, oneAdmin(), logger.Discard())

	resp, body := call(t, h.Scan, http.MethodPost, "/", `{"eventId":"`+testEventID+`"}`, testAdminID)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "MISSING_DATA", body["error"])
	assert.Equal(t, "يرجى تحديد الفعالية والعضو", body["message"])

	resp, body = call(t, h.Scan, http.MethodPost, "/", `{"eventId":"`+testEventID+`","memberId":"`+testMemberID+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "UNAUTHORIZED", body["error"])

	resp, body = call(t, h.Scan, http.MethodPost, "/", `{"eventId":"`+testEventID+`","memberId":"`+testMemberID+`"}`, "deleted-admin")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "المسؤول غير موجود", body["message"])

	assert.Zero(t, rec.calls)
}

func TestScanInfrastructureError(t *testing.T) {
	h := NewAttendanceHandler(&stubRecorder{err: errors.New("deadlock")}, nil, &stubRows{}, stubEvents{}, oneAdmin(), logger.Discard())

	resp, body := call(t, h.Scan, http.MethodPost, "/", `{"eventId":"`+testEventID+`","memberId":"`+testMemberID+`"}`, testAdminID)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "SERVER_ERROR", body["error"])
	assert.Equal(t, "حدث خطأ أثناء تسجيل الحضور", body["message"])
}

func TestAttendanceList(t *testing.T) {
	rows := &stubRows{rows: []model.AttendanceRow{{ID: "att-1"}}, total: 41}
	ev := model.Event{ID: testEventID, Name: "ورشة"}
	h := NewAttendanceHandler(&stubRecorder{}, nil, rows, stubEvents{ev: &ev}, oneAdmin(), logger.Discard())

	resp, body := call(t, h.ListByEvent, http.MethodGet, "/?page=2", "", testAdminID, "id", testEventID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 2, rows.page)
	assert.Equal(t, 20, rows.limit)
	assert.Equal(t, "ورشة", body["event"].(map[string]any)["name"])
	p := body["pagination"].(map[string]any)
	assert.Equal(t, float64(41), p["total"])
	assert.Equal(t, float64(3), p["totalPages"])

	h.Events = stubEvents{}
	resp, body = call(t, h.ListByEvent, http.MethodGet, "/", "", testAdminID, "id", "missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "EVENT_NOT_FOUND", body["error"])
}
