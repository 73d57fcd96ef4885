package middleware

import (
    "fmt"

    "github.com/labstack/echo/v4"
    "go.opentelemetry.io/otel"
    "go.opentelemetry.io/otel/attribute"
    "go.opentelemetry.io/otel/codes"
    "go.opentelemetry.io/otel/propagation"
    "go.opentelemetry.io/otel/trace"
)

// Tracing opens a server span per request, continuing any W3C trace context
// sent by the caller.  Spans opened by the allocator and recorder become its
// children through the request context.
func Tracing(service string) echo.MiddlewareFunc {
    tracer := otel.Tracer(service + "/http")
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            ctx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))
            route := c.Path()
            if route == "" {
                route = req.URL.Path
            }
            ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", req.Method, route),
                trace.WithSpanKind(trace.SpanKindServer),
                trace.WithAttributes(
                    attribute.String("http.request.method", req.Method),
                    attribute.String("http.route", route),
                ))
            defer span.End()
            c.SetRequest(req.WithContext(ctx))

            err := next(c)
            if err != nil {
                c.Error(err)
                span.RecordError(err)
            }
            status := c.Response().Status
            span.SetAttributes(attribute.Int("http.response.status_code", status))
            if status >= 500 {
                span.SetStatus(codes.Error, "server error")
            }
            return nil
        }
    }
}
