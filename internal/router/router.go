package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/odwyaty/internal/handler"    // handlers that implement each endpoint
	"github.com/iliyamo/odwyaty/internal/middleware" // JWT authentication and role enforcement
	"github.com/iliyamo/odwyaty/internal/utils"      // role names carried in tokens
)

// RegisterRoutes registers the unauthenticated probes. /healthz only says
// the process is up; /readyz also pings the database.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers the admin session endpoints. Login, refresh and
// logout work without an access token; /v1/admin/me needs an ADMIN one.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	// rotates the refresh token
	g.POST("/refresh", a.Refresh)
	// accepts a refresh_token body or a bearer token (revokes every session)
	g.POST("/logout", a.Logout)

	me := e.Group("/v1/admin", middleware.JWTAuth(jwtSecret), middleware.RequireRole(utils.RoleAdmin))
	me.GET("/me", a.Me)
}
