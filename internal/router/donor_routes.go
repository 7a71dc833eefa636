package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/blood-donation-platform/internal/handler"
	"github.com/iliyamo/blood-donation-platform/internal/middleware"
)

// RegisterDonor registers donor-scoped endpoints under /v1.  All routes
// require a valid JWT and the DONOR role.  Donors book and cancel their
// own reservations and read their history and eligibility.
func RegisterDonor(e *echo.Echo, h *handler.DonorHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("DONOR"),
	)
	g.POST("/sessions/:id/reservations", h.Book)
	g.DELETE("/reservations/:id", h.CancelReservation)
	g.GET("/me/reservations", h.MyReservations)
	g.GET("/me/donations", h.MyDonations)
	g.GET("/me/eligibility", h.MyEligibility)
}
