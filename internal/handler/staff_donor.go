package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/blood-donation-platform/internal/repository"
)

// StaffDonorHandler covers staff actions on donor profiles.
type StaffDonorHandler struct {
	Users *repository.UserRepo
}

func NewStaffDonorHandler(users *repository.UserRepo) *StaffDonorHandler {
	if users == nil {
		panic("nil user repository passed to NewStaffDonorHandler")
	}
	return &StaffDonorHandler{Users: users}
}

type deferralReq struct {
	Deferred bool `json:"deferred"`
}

// SetDeferral handles POST /v1/staff/donors/:id/deferral.  Flagged
// donors fall under the extended deferral interval on their next
// completed donation.
func (h *StaffDonorHandler) SetDeferral(c echo.Context) error {
	donorID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid donor id"})
	}
	var req deferralReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.SetMedicalDeferral(ctx, donorID, req.Deferred); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "donor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"donor_id": donorID, "medical_deferral": req.Deferred})
}
