package middleware

import (
    "bytes"
    "context"
    "encoding/json"
    "io"
    "log/slog"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.opentelemetry.io/otel"
    sdktrace "go.opentelemetry.io/otel/sdk/trace"
    "go.opentelemetry.io/otel/sdk/trace/tracetest"

    "github.com/iliyamo/odwyaty/internal/config"
    "github.com/iliyamo/odwyaty/internal/utils"
)

const secret = "test-secret"

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func do(e *echo.Echo, method, path, bearer string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, nil)
    if bearer != "" {
        req.Header.Set("Authorization", "Bearer "+bearer)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func token(t *testing.T, sub, role string) string {
    t.Helper()
    at, err := utils.NewAccessToken(secret, sub, role, 5)
    require.NoError(t, err)
    return at.Token
}

func TestJWTAuthAndRequireRole(t *testing.T) {
    e := echo.New()
    e.GET("/admin", func(c echo.Context) error {
        return c.String(http.StatusOK, UserID(c)+"|"+Role(c))
    }, JWTAuth(secret), RequireRole(utils.RoleAdmin))

    rec := do(e, http.MethodGet, "/admin", token(t, "admin-1", utils.RoleAdmin))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "admin-1|ADMIN", rec.Body.String())

    assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/admin", "").Code)
    assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/admin", "garbage").Code)

    forged, err := utils.NewAccessToken("other-secret", "admin-1", utils.RoleAdmin, 5)
    require.NoError(t, err)
    assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/admin", forged.Token).Code)

    assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/admin", token(t, "m-1", utils.RoleMember)).Code)
}

func TestTokenBucketFallsBackToLocal(t *testing.T) {
    cfg := config.RateLimitConfig{
        Enabled:        true,
        Capacity:       2,
        RefillTokens:   1,
        RefillInterval: time.Hour,
        TTL:            time.Hour,
        KeyStrategy:    "ip_route",
        Prefix:         "rl",
    }
    e := echo.New()
    e.POST("/register", func(c echo.Context) error { return c.NoContent(http.StatusCreated) },
        NewTokenBucket(cfg, nil, discard()))
    e.POST("/other", func(c echo.Context) error { return c.NoContent(http.StatusCreated) },
        NewTokenBucket(cfg, nil, discard()))

    assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/register", "").Code)
    assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/register", "").Code)
    rec := do(e, http.MethodPost, "/register", "")
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.NotEmpty(t, rec.Header().Get("Retry-After"))

    // different route, different key
    assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/other", "").Code)
}

func TestLocalBucketsRefill(t *testing.T) {
    l := newLocalBuckets(config.RateLimitConfig{Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute})
    now := time.Now()
    ok, _, _ := l.take("k", now)
    assert.True(t, ok)
    ok, _, retry := l.take("k", now)
    assert.False(t, ok)
    assert.Positive(t, retry)
    ok, _, _ = l.take("k", now.Add(1100*time.Millisecond))
    assert.True(t, ok)
}

func TestMaintenance(t *testing.T) {
    on := true
    e := echo.New()
    e.GET("/v1/register", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
        Maintenance(func() bool { return on }))

    rec := do(e, http.MethodGet, "/v1/register", "")
    assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
    var body map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, "maintenance", body["error"])

    on = false
    assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/v1/register", "").Code)
}

func TestPayloadCodec(t *testing.T) {
    hdr := http.Header{"Content-Type": {"application/json"}}
    bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
    require.NoError(t, err)

    status, got, body, ok := decodePayload(bs)
    require.True(t, ok)
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, "application/json", got.Get("Content-Type"))
    assert.Equal(t, `{"ok":true}`, string(body))

    _, _, _, ok = decodePayload(bs[:6])
    assert.False(t, ok)
}

func TestCaptureWriterMarksOversizedBodies(t *testing.T) {
    cw := &captureWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK, limit: 4}
    _, _ = cw.Write([]byte("abc"))
    assert.False(t, cw.truncated())
    _, _ = cw.Write([]byte("de"))
    assert.True(t, cw.truncated())
}

func TestRequestLoggerAndTracing(t *testing.T) {
    sr := tracetest.NewSpanRecorder()
    tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
    prev := otel.GetTracerProvider()
    otel.SetTracerProvider(tp)
    t.Cleanup(func() { otel.SetTracerProvider(prev) })

    var buf bytes.Buffer
    log := slog.New(slog.NewJSONHandler(&buf, nil))

    e := echo.New()
    e.Use(Tracing("odwyaty"), RequestLogger(log))
    e.GET("/v1/members/:id", func(c echo.Context) error {
        return echo.NewHTTPError(http.StatusNotFound, "missing")
    })

    rec := do(e, http.MethodGet, "/v1/members/abc", "")
    assert.Equal(t, http.StatusNotFound, rec.Code)

    var line map[string]any
    require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
    assert.Equal(t, "/v1/members/:id", line["route"])
    assert.EqualValues(t, http.StatusNotFound, line["status"])
    assert.NotEmpty(t, line["trace_id"])

    require.NoError(t, tp.ForceFlush(context.Background()))
    spans := sr.Ended()
    require.Len(t, spans, 1)
    assert.Equal(t, "GET /v1/members/:id", spans[0].Name())
}
