package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/blood-donation-platform/internal/booking"
	"github.com/iliyamo/blood-donation-platform/internal/model"
)

// StaffReservationHandler covers reservation processing at the session
// desk: confirming arrivals and recording donation outcomes.
type StaffReservationHandler struct {
	Booking *booking.Service
}

func NewStaffReservationHandler(svc *booking.Service) *StaffReservationHandler {
	if svc == nil {
		panic("nil booking service passed to NewStaffReservationHandler")
	}
	return &StaffReservationHandler{Booking: svc}
}

// Confirm handles POST /v1/reservations/:id/confirm.  Confirming twice
// is safe and returns the same result.
func (h *StaffReservationHandler) Confirm(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	res, err := h.Booking.Confirm(c.Request().Context(), reservationID, staffActor(uid))
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": res.ID, "status": res.Status})
}

type completeReq struct {
	BloodBankID     uint64 `json:"blood_bank_id"`
	VolumeMl        uint32 `json:"volume_ml"`
	ScreeningPassed bool   `json:"screening_passed"`
	ScreeningNotes  string `json:"screening_notes"`
	BloodType       string `json:"blood_type"` // screened group, overrides the reservation's
}

// Complete handles POST /v1/reservations/:id/complete.  On a passed
// screening the donation, the inventory credit and the eligibility
// update commit together or not at all.
func (h *StaffReservationHandler) Complete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	var req completeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.BloodBankID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "blood_bank_id is required"})
	}
	if req.ScreeningPassed && req.VolumeMl == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "volume_ml is required for a completed donation"})
	}
	screened, okType := model.ParseBloodType(req.BloodType)
	if !okType {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid blood_type"})
	}

	donation, err := h.Booking.CompleteDonation(c.Request().Context(), booking.CompletionRequest{
		ReservationID:   reservationID,
		BloodBankID:     req.BloodBankID,
		VolumeMl:        req.VolumeMl,
		ScreeningPassed: req.ScreeningPassed,
		ScreeningNotes:  strings.TrimSpace(req.ScreeningNotes),
		ScreenedType:    screened,
		Actor:           staffActor(uid),
	})
	if err != nil {
		return writeBookingError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":             donation.ID,
		"reservation_id": donation.ReservationID,
		"blood_bank_id":  donation.BloodBankID,
		"blood_type":     string(donation.BloodType),
		"volume_ml":      donation.VolumeMl,
		"units":          donation.Units,
		"status":         donation.Status,
		"donated_at":     donation.DonatedAt,
	})
}
