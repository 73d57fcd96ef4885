package middleware

import (
    "log/slog"
    "time"

    "github.com/labstack/echo/v4"
    "go.opentelemetry.io/otel/trace"
)

// RequestLogger writes one structured line per request.  It expects echo's
// RequestID middleware to run first and, when Tracing runs before it, adds
// the trace id so logs and spans can be joined.
func RequestLogger(log *slog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err) // commit the response so the status below is final
            }

            req := c.Request()
            res := c.Response()
            attrs := []any{
                "method", req.Method,
                "route", c.Path(),
                "uri", req.RequestURI,
                "status", res.Status,
                "bytes", res.Size,
                "latency_ms", time.Since(start).Milliseconds(),
                "ip", c.RealIP(),
                "request_id", res.Header().Get(echo.HeaderXRequestID),
            }
            if uid := UserID(c); uid != "" {
                attrs = append(attrs, "user_id", uid)
            }
            if sc := trace.SpanContextFromContext(req.Context()); sc.IsValid() {
                attrs = append(attrs, "trace_id", sc.TraceID().String())
            }

            switch {
            case res.Status >= 500:
                log.Error("request", append(attrs, "error", errString(err))...)
            case res.Status >= 400:
                log.Warn("request", attrs...)
            default:
                log.Info("request", attrs...)
            }
            return nil
        }
    }
}

func errString(err error) string {
    if err == nil {
        return ""
    }
    return err.Error()
}
