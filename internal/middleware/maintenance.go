package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Maintenance answers 503 on the wrapped routes while enabled() is true.
// Apply it to public member routes only; admin, auth and health stay up.
func Maintenance(enabled func() bool) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if enabled() {
                c.Response().Header().Set("Retry-After", "600")
                return c.JSON(http.StatusServiceUnavailable, echo.Map{
                    "success": false,
                    "error":   "maintenance",
                    "message": "المنصة في وضع الصيانة حالياً",
                })
            }
            return next(c)
        }
    }
}
