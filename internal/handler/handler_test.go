package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/odwyaty/internal/catalog"
	"github.com/iliyamo/odwyaty/internal/config"
	"github.com/iliyamo/odwyaty/internal/logger"
	"github.com/iliyamo/odwyaty/internal/model"
	"github.com/iliyamo/odwyaty/internal/registration"
	"github.com/iliyamo/odwyaty/internal/repository"
	"github.com/iliyamo/odwyaty/internal/utils"
	"github.com/iliyamo/odwyaty/internal/validator"
)

const (
	testAdminID  = "a0000000-0000-0000-0000-000000000001"
	testEventID  = "e0000000-0000-0000-0000-000000000001"
	testMemberID = "5b0d8a3e-2f6c-4d1a-9e7b-0c3f1a2b4d5e"
)

// call runs h against a JSON request. adminID, when set, is stored the way
// JWTAuth stores the subject.
func call(t *testing.T, h echo.HandlerFunc, method, target, body, adminID string, params ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if adminID != "" {
		c.Set("user_id", adminID)
	}
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	if len(names) > 0 {
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	require.NoError(t, h(c))
	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func newValidator() *validator.Validator {
	v := validator.New(catalog.NewRegistry(nil))
	// registers the payment rule shared with member updates
	registration.NewService(nil, nil, nil, nil, v, "", logger.Discard())
	return v
}

// ----- fakes -----

type fakeAdmins struct {
	byID    map[string]model.Admin
	deleted []string
	count   int
}

func (f *fakeAdmins) GetByID(_ context.Context, id string) (model.Admin, error) {
	a, ok := f.byID[id]
	if !ok {
		return model.Admin{}, repository.ErrNotFound
	}
	return a, nil
}

func (f *fakeAdmins) GetByEmail(_ context.Context, email string) (model.Admin, error) {
	for _, a := range f.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return model.Admin{}, repository.ErrNotFound
}

func (f *fakeAdmins) List(context.Context) ([]model.Admin, error) {
	out := []model.Admin{}
	for _, a := range f.byID {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAdmins) Create(_ context.Context, email, _, name string, _ int) (model.Admin, error) {
	for _, a := range f.byID {
		if a.Email == email {
			return model.Admin{}, repository.ErrEmailExists
		}
	}
	a := model.Admin{ID: "new", Email: email, Name: name}
	f.byID[a.ID] = a
	return a, nil
}

func (f *fakeAdmins) Update(_ context.Context, id string, u repository.AdminUpdate, _ int) (model.Admin, error) {
	a, ok := f.byID[id]
	if !ok {
		return model.Admin{}, repository.ErrNotFound
	}
	if u.Name != nil {
		a.Name = *u.Name
	}
	f.byID[id] = a
	return a, nil
}

func (f *fakeAdmins) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	if len(f.byID) <= 1 {
		return repository.ErrConflict
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func oneAdmin() *fakeAdmins {
	return &fakeAdmins{byID: map[string]model.Admin{testAdminID: {ID: testAdminID, Email: "admin@odwyaty.com", Name: "مسؤول"}}}
}

type fakeTokens struct {
	stored  map[string]string
	revoked []string
	all     []string
}

func (f *fakeTokens) StoreRefresh(_ context.Context, adminID, hash string, _ time.Time) error {
	if f.stored == nil {
		f.stored = map[string]string{}
	}
	f.stored[hash] = adminID
	return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string) (string, error) {
	id, ok := f.stored[hash]
	if !ok {
		return "", repository.ErrNotFound
	}
	return id, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	delete(f.stored, hash)
	f.revoked = append(f.revoked, hash)
	return nil
}

func (f *fakeTokens) RevokeAllForAdmin(_ context.Context, adminID string) error {
	f.all = append(f.all, adminID)
	return nil
}

// ----- auth -----

func TestAdminLoginRefreshLogout(t *testing.T) {
	hash, err := utils.HashPassword("secret123", 4)
	require.NoError(t, err)
	admins := oneAdmin()
	a := admins.byID[testAdminID]
	a.PasswordHash = hash
	admins.byID[testAdminID] = a
	tokens := &fakeTokens{}
	h := NewAuthHandler(config.Config{JWTSecret: "k", AccessTTLMin: 15, RefreshTTLDays: 7}, admins, tokens, logger.Discard())

	rec, _ := call(t, h.Login, http.MethodPost, "/v1/auth/login", `{"email":"admin@odwyaty.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := call(t, h.Login, http.MethodPost, "/v1/auth/login", `{"email":" ADMIN@odwyaty.com ","password":"secret123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	access := body["access"].(map[string]any)["token"].(string)
	claims, err := utils.ParseAccessToken("k", access)
	require.NoError(t, err)
	assert.Equal(t, testAdminID, claims.Subject)
	assert.Equal(t, utils.RoleAdmin, claims.Role)
	raw := body["refresh"].(map[string]any)["token"].(string)

	rec, body = call(t, h.Refresh, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+raw+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{utils.HashRefreshRaw(raw)}, tokens.revoked)

	// the rotated token is gone
	rec, _ = call(t, h.Refresh, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+raw+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	next := body["refresh"].(map[string]any)["token"].(string)
	rec, _ = call(t, h.Logout, http.MethodPost, "/v1/auth/logout", `{"refresh_token":"`+next+`"}`, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, tokens.stored)
}

func TestAdminMe(t *testing.T) {
	h := NewAuthHandler(config.Config{}, oneAdmin(), &fakeTokens{}, logger.Discard())

	rec, body := call(t, h.Me, http.MethodGet, "/v1/admin/me", "", testAdminID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin@odwyaty.com", body["data"].(map[string]any)["email"])

	rec, body = call(t, h.Me, http.MethodGet, "/v1/admin/me", "", "gone")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "المسؤول غير موجود", body["message"])
}

// ----- users -----

func TestUserDeleteGuards(t *testing.T) {
	admins := oneAdmin()
	h := NewUserHandler(admins, newValidator(), 4, logger.Discard())

	rec, body := call(t, h.Delete, http.MethodDelete, "/", "", testAdminID, "id", testAdminID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CANNOT_DELETE_SELF", body["error"])

	rec, body = call(t, h.Delete, http.MethodDelete, "/", "", "someone-else", "id", testAdminID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "LAST_ADMIN", body["error"])

	rec, _ = call(t, h.Delete, http.MethodDelete, "/", "", testAdminID, "id", "missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, admins.deleted)
}

func TestUserCreate(t *testing.T) {
	admins := oneAdmin()
	h := NewUserHandler(admins, newValidator(), 4, logger.Discard())

	rec, body := call(t, h.Create, http.MethodPost, "/", `{"email":"bad","password":"123"}`, testAdminID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, body["errors"], 2)

	rec, _ = call(t, h.Create, http.MethodPost, "/", `{"email":"admin@odwyaty.com","password":"123456"}`, testAdminID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = call(t, h.Create, http.MethodPost, "/", `{"email":"two@odwyaty.com","password":"123456","name":"ثاني"}`, testAdminID)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "two@odwyaty.com", body["data"].(map[string]any)["email"])
}

// ----- errors -----

func TestServerErrorHidesCause(t *testing.T) {
	h := NewStatsHandler(statsFunc(func() (model.Stats, error) { return model.Stats{}, errors.New("db down") }), logger.Discard())
	rec, body := call(t, h.Dashboard, http.MethodGet, "/v1/admin/stats", "", testAdminID)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "SERVER_ERROR", body["error"])
	assert.NotContains(t, rec.Body.String(), "db down")
}

type statsFunc func() (model.Stats, error)

func (f statsFunc) Dashboard(context.Context, time.Time, *time.Location) (model.Stats, error) {
	return f()
}

func TestPageParams(t *testing.T) {
	e := echo.New()
	tests := []struct {
		query       string
		page, limit int
	}{
		{"", 1, 10},
		{"?page=3&limit=25", 3, 25},
		{"?page=0&limit=-5", 1, 10},
		{"?page=x&limit=500", 1, 100},
	}
	for _, tt := range tests {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil), httptest.NewRecorder())
		page, limit := pageParams(c, 10)
		assert.Equal(t, tt.page, page, tt.query)
		assert.Equal(t, tt.limit, limit, tt.query)
	}
	assert.Equal(t, 3, newPagination(1, 10, 21).TotalPages)
	assert.Equal(t, 0, newPagination(1, 10, 0).TotalPages)
}
