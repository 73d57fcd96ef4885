package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/odwyaty/internal/handler"
	"github.com/iliyamo/odwyaty/internal/middleware"
	"github.com/iliyamo/odwyaty/internal/utils"
)

// Admin bundles the dashboard handlers.
type Admin struct {
	Attendance *handler.AttendanceHandler
	Events     *handler.EventHandler
	Members    *handler.MemberHandler
	Users      *handler.UserHandler
	Settings   *handler.SettingsHandler
	Stats      *handler.StatsHandler
}

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin. All routes
// require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, a Admin, g Guards, jwtSecret string) {
	r := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleAdmin),
	)

	// ---- Attendance ----
	r.POST("/attendance/scan", a.Attendance.Scan, g.ScanLimit)
	r.GET("/events/:id/attendance", a.Attendance.ListByEvent)

	// ---- Events ----
	r.GET("/events", a.Events.List)
	r.POST("/events", a.Events.Create)
	r.GET("/events/:id", a.Events.Get)
	r.PUT("/events/:id", a.Events.Update)
	r.DELETE("/events/:id", a.Events.Delete)

	// ---- Members ----
	r.GET("/members", a.Members.List)
	r.POST("/members/regenerate-qr", a.Members.RegenerateQR)
	r.GET("/members/:id", a.Members.Get)
	r.PUT("/members/:id", a.Members.Update)
	r.DELETE("/members/:id", a.Members.Delete)

	// ---- Admin users ----
	r.GET("/users", a.Users.List)
	r.POST("/users", a.Users.Create)
	r.PUT("/users/:id", a.Users.Update)
	r.DELETE("/users/:id", a.Users.Delete)

	// ---- Settings & stats ----
	r.GET("/settings", a.Settings.Get)
	r.PUT("/settings", a.Settings.Update)
	r.GET("/stats", a.Stats.Dashboard)
}
