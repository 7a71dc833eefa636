// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/blood-donation-platform/internal/handler"
	"github.com/iliyamo/blood-donation-platform/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.  Register, login,
// refresh and logout live under /v1/auth and need no session; /v1/me
// requires a valid access token for either role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("DONOR", "STAFF"))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints.  The
// extra middleware (response cache, rate limiter) is applied only here;
// authenticated routes must never be cached.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mw...)
	g.GET("/campaigns", p.ListCampaigns)
	g.GET("/campaigns/:id/sessions", p.ListSessions)
	g.GET("/sessions/:id/slots", p.ListSlots)
	g.GET("/search/campaigns", p.SearchCampaigns)
}
