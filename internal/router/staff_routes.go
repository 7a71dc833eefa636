package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/blood-donation-platform/internal/handler"
	"github.com/iliyamo/blood-donation-platform/internal/middleware"
)

// RegisterStaff registers STAFF-scoped endpoints under /v1: campaign and
// session management, reservation processing at the session desk and
// blood bank administration.  All routes require a valid JWT and the
// STAFF role; per-campaign ownership is enforced in the handlers.
func RegisterStaff(e *echo.Echo, campaigns *handler.StaffCampaignHandler, reservations *handler.StaffReservationHandler, inventory *handler.StaffInventoryHandler, donors *handler.StaffDonorHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("STAFF"),
	)

	// ---- Campaigns and sessions ----
	g.POST("/campaigns", campaigns.CreateCampaign)
	g.POST("/campaigns/:id/sessions", campaigns.CreateSession)
	g.DELETE("/staff/sessions/:id", campaigns.CancelSession)
	g.GET("/staff/sessions/:id/reservations", campaigns.ListSessionReservations)

	// ---- Reservation processing ----
	g.POST("/reservations/:id/confirm", reservations.Confirm)
	g.POST("/reservations/:id/complete", reservations.Complete)

	// ---- Donor screening ----
	g.POST("/staff/donors/:id/deferral", donors.SetDeferral)

	// ---- Banks and inventory ----
	g.POST("/banks", inventory.CreateBank)
	g.GET("/banks", inventory.ListBanks)
	g.GET("/banks/:id/inventory", inventory.Levels)
	g.POST("/banks/:id/usage", inventory.Usage)
}
