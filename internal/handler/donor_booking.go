package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/blood-donation-platform/internal/booking"
	"github.com/iliyamo/blood-donation-platform/internal/model"
	"github.com/iliyamo/blood-donation-platform/internal/repository"
)

// DonorHandler groups the dependencies behind the donor-facing booking
// and history endpoints.  JWT authentication and the DONOR role check
// run in middleware before any of these methods.
type DonorHandler struct {
	Booking      *booking.Service
	Users        *repository.UserRepo
	Reservations *repository.ReservationRepo
	Donations    *repository.DonationRepo
}

func NewDonorHandler(svc *booking.Service, users *repository.UserRepo, res *repository.ReservationRepo, don *repository.DonationRepo) *DonorHandler {
	if svc == nil || users == nil || res == nil || don == nil {
		panic("nil dependency passed to NewDonorHandler")
	}
	return &DonorHandler{Booking: svc, Users: users, Reservations: res, Donations: don}
}

type bookReq struct {
	SlotTime  string `json:"slot_time"`
	BloodType string `json:"blood_type"` // optional, defaults to the profile's type
}

// Book handles POST /v1/sessions/:id/reservations.  It admits the donor
// into the requested slot and returns the PENDING reservation.
func (h *DonorHandler) Book(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}

	var req bookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	slot := strings.TrimSpace(req.SlotTime)
	if slot == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot_time is required"})
	}

	bt, ok := model.ParseBloodType(req.BloodType)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid blood_type"})
	}
	if bt == model.BloodUnknown {
		// Fall back to the typed group on file, if any.
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		p, err := h.Users.GetDonorProfile(ctx, uid)
		cancel()
		if err == nil {
			bt = p.BloodType
		}
	}

	res, err := h.Booking.Book(c.Request().Context(), booking.BookRequest{
		DonorID:   uid,
		SessionID: sessionID,
		SlotTime:  slot,
		BloodType: bt,
	})
	if err != nil {
		return writeBookingError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":           res.ID,
		"session_id":   res.SessionID,
		"slot_time":    res.SlotTime,
		"session_date": res.SessionDate.Format("2006-01-02"),
		"blood_type":   string(res.BloodType),
		"status":       res.Status,
	})
}

// CancelReservation handles DELETE /v1/reservations/:id.  Donors may
// only cancel their own reservations; the released slot opening becomes
// bookable again immediately.
func (h *DonorHandler) CancelReservation(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	detail, err := h.Reservations.GetDetail(ctx, reservationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if detail.DonorID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	res, err := h.Booking.Cancel(ctx, reservationID, donorActor(uid))
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": res.ID, "status": res.Status})
}

// MyReservations handles GET /v1/me/reservations.
func (h *DonorHandler) MyReservations(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reservations.ListByDonor(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": list})
}

// MyDonations handles GET /v1/me/donations.  Rejected attempts are part
// of the history.
func (h *DonorHandler) MyDonations(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Donations.ListByDonor(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"donations": list})
}

// MyEligibility handles GET /v1/me/eligibility.  It reports the dates
// maintained by the completion flow; a donor with no completed donation
// and no deferral is eligible today.
func (h *DonorHandler) MyEligibility(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Users.GetDonorProfile(ctx, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "donor profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	eligible := p.NextEligibleDate == nil || !today.Before(*p.NextEligibleDate)
	resp := echo.Map{
		"eligible":         eligible,
		"medical_deferral": p.MedicalDeferral,
	}
	if p.LastDonationDate != nil {
		resp["last_donation_date"] = p.LastDonationDate.Format("2006-01-02")
	}
	if p.NextEligibleDate != nil {
		resp["next_eligible_date"] = p.NextEligibleDate.Format("2006-01-02")
	}
	return c.JSON(http.StatusOK, resp)
}
