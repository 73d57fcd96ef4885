package middleware

// identity.go exposes what JWTAuth stored in the Echo context.

import (
    "github.com/labstack/echo/v4"
)

// UserID returns the authenticated subject (admin or member uuid), or "" when
// the request is anonymous.
func UserID(c echo.Context) string {
    s, _ := c.Get(ctxUserID).(string)
    return s
}

// Role returns the authenticated role, or "".
func Role(c echo.Context) string {
    s, _ := c.Get(ctxRole).(string)
    return s
}

// rateSubject identifies the caller for rate-limit keys.
func rateSubject(c echo.Context) string {
    if id := UserID(c); id != "" {
        return id
    }
    return "anon"
}
