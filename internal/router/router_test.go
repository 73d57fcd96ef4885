package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/odwyaty/internal/catalog"
	"github.com/iliyamo/odwyaty/internal/config"
	"github.com/iliyamo/odwyaty/internal/handler"
	"github.com/iliyamo/odwyaty/internal/logger"
	"github.com/iliyamo/odwyaty/internal/middleware"
	"github.com/iliyamo/odwyaty/internal/utils"
)

const secret = "test-secret"

func newServer(t *testing.T, maintenance bool) *echo.Echo {
	t.Helper()
	e := echo.New()
	log := logger.Discard()
	g := Guards{
		PublicLimit: middleware.NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil, log),
		ScanLimit:   middleware.NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil, log),
		Cache:       middleware.NewRedisCache(config.CacheConfig{}, nil, log),
		Maintenance: middleware.Maintenance(func() bool { return maintenance }),
	}
	cfg := config.Config{JWTSecret: secret}
	RegisterAuth(e, handler.NewAuthHandler(cfg, nil, nil, log), secret)
	RegisterPublic(e, Public{
		Register: handler.NewRegisterHandler(nil, log),
		Members:  handler.NewMemberPublicHandler(cfg, nil, log),
		Settings: handler.NewSettingsHandler(nil, nil, nil, log),
		Catalog:  catalog.NewRegistry(nil),
	}, g, secret)
	RegisterAdmin(e, Admin{
		Attendance: handler.NewAttendanceHandler(nil, nil, nil, nil, nil, log),
		Events:     handler.NewEventHandler(nil, nil, log),
		Members:    handler.NewMemberHandler(nil, nil, nil, log),
		Users:      handler.NewUserHandler(nil, nil, 4, log),
		Settings:   handler.NewSettingsHandler(nil, nil, nil, log),
		Stats:      handler.NewStatsHandler(nil, log),
	}, g, secret)
	return e
}

func TestRoutesAreRegistered(t *testing.T) {
	e := newServer(t, false)
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /v1/auth/login",
		"POST /v1/auth/refresh",
		"POST /v1/auth/logout",
		"GET /v1/admin/me",
		"GET /v1/settings/public",
		"GET /v1/catalog",
		"POST /v1/register",
		"GET /v1/members/:id",
		"POST /v1/member/login",
		"POST /v1/member/reset-password",
		"GET /v1/member/me",
		"POST /v1/admin/attendance/scan",
		"GET /v1/admin/events/:id/attendance",
		"GET /v1/admin/events",
		"POST /v1/admin/events",
		"PUT /v1/admin/events/:id",
		"DELETE /v1/admin/events/:id",
		"GET /v1/admin/members",
		"POST /v1/admin/members/regenerate-qr",
		"PUT /v1/admin/members/:id",
		"DELETE /v1/admin/users/:id",
		"PUT /v1/admin/settings",
		"GET /v1/admin/stats",
	} {
		assert.True(t, have[want], want)
	}
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, "subject-1", role, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func TestAdminRoutesRejectMemberTokens(t *testing.T) {
	e := newServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/stats", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/admin/stats", nil)
	req.Header.Set("Authorization", token(t, utils.RoleMember))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMaintenanceClosesPublicSurfaceOnly(t *testing.T) {
	e := newServer(t, true)

	req := httptest.NewRequest(http.MethodPost, "/v1/register", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/catalog", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"CA"`)

	// admin auth still answers (401 without a token, not 503)
	req = httptest.NewRequest(http.MethodGet, "/v1/admin/me", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
