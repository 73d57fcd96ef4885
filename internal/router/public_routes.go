package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/odwyaty/internal/catalog"
	"github.com/iliyamo/odwyaty/internal/handler"
	"github.com/iliyamo/odwyaty/internal/middleware"
	"github.com/iliyamo/odwyaty/internal/utils"
)

// Public bundles the handlers served without an admin session.
type Public struct {
	Register *handler.RegisterHandler
	Members  *handler.MemberPublicHandler
	Settings *handler.SettingsHandler
	Catalog  *catalog.Registry
}

// Guards are the cross-cutting middlewares shared by public and admin routes.
type Guards struct {
	PublicLimit echo.MiddlewareFunc // register, member login, reset-password
	ScanLimit   echo.MiddlewareFunc // attendance scan, keyed by admin
	Cache       echo.MiddlewareFunc
	Maintenance echo.MiddlewareFunc
}

// RegisterPublic registers registration, the membership card and member
// self-service. Maintenance mode closes this whole surface; the cached
// reference endpoints stay up.
func RegisterPublic(e *echo.Echo, p Public, g Guards, jwtSecret string) {
	e.GET("/v1/settings/public", p.Settings.Get, g.Cache)
	e.GET("/v1/catalog", handler.Catalog(p.Catalog), g.Cache)

	pub := e.Group("/v1", g.Maintenance)
	pub.POST("/register", p.Register.Register, g.PublicLimit)
	pub.GET("/members/:id", p.Members.Card)
	pub.POST("/member/login", p.Members.Login, g.PublicLimit)
	pub.POST("/member/reset-password", p.Members.ResetPassword, g.PublicLimit)

	me := e.Group("/v1/member", g.Maintenance, middleware.JWTAuth(jwtSecret), middleware.RequireRole(utils.RoleMember))
	me.GET("/me", p.Members.Me)
}
