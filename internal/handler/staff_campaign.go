package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/blood-donation-platform/internal/booking"
	"github.com/iliyamo/blood-donation-platform/internal/model"
	"github.com/iliyamo/blood-donation-platform/internal/repository"
)

// StaffCampaignHandler covers campaign and session management for staff
// organizers.  Ownership checks guard every mutation: staff may only
// touch campaigns they created.
type StaffCampaignHandler struct {
	Campaigns    *repository.CampaignRepo
	Reservations *repository.ReservationRepo
	Booking      *booking.Service
	SlotInterval time.Duration
}

func NewStaffCampaignHandler(campaigns *repository.CampaignRepo, reservations *repository.ReservationRepo, svc *booking.Service, slotInterval time.Duration) *StaffCampaignHandler {
	if campaigns == nil || reservations == nil || svc == nil {
		panic("nil dependency passed to NewStaffCampaignHandler")
	}
	return &StaffCampaignHandler{Campaigns: campaigns, Reservations: reservations, Booking: svc, SlotInterval: slotInterval}
}

type createCampaignReq struct {
	Title    string `json:"title"`
	Location string `json:"location"`
}

// CreateCampaign handles POST /v1/campaigns.
func (h *StaffCampaignHandler) CreateCampaign(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createCampaignReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	camp := model.Campaign{OrganizerID: uid, Title: req.Title, Location: strings.TrimSpace(req.Location)}
	if err := h.Campaigns.Create(ctx, &camp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create campaign failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":       camp.ID,
		"title":    camp.Title,
		"location": camp.Location,
		"status":   camp.Status,
	})
}

type createSessionReq struct {
	SessionDate  string `json:"session_date"` // "2006-01-02"
	StartsAt     string `json:"starts_at"`    // "15:04"
	EndsAt       string `json:"ends_at"`      // "15:04"
	SlotCapacity uint32 `json:"slot_capacity"`
}

// CreateSession handles POST /v1/campaigns/:id/sessions.  The slot grid
// is generated at the configured interval between starts_at and ends_at.
func (h *StaffCampaignHandler) CreateSession(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	campaignID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid campaign id"})
	}
	var req createSessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(req.SessionDate), time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_date must be YYYY-MM-DD"})
	}
	start, err := time.ParseInLocation("15:04", strings.TrimSpace(req.StartsAt), time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be HH:MM"})
	}
	end, err := time.ParseInLocation("15:04", strings.TrimSpace(req.EndsAt), time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be HH:MM"})
	}
	startsAt := time.Date(day.Year(), day.Month(), day.Day(), start.Hour(), start.Minute(), 0, 0, time.UTC)
	endsAt := time.Date(day.Year(), day.Month(), day.Day(), end.Hour(), end.Minute(), 0, 0, time.UTC)
	if !startsAt.Before(endsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be before ends_at"})
	}
	if req.SlotCapacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot_capacity must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sess := model.CampaignSession{
		CampaignID:   campaignID,
		SessionDate:  day,
		StartsAt:     startsAt,
		EndsAt:       endsAt,
		SlotCapacity: req.SlotCapacity,
	}
	if err := h.Campaigns.CreateSession(ctx, uid, &sess, h.SlotInterval); err != nil {
		switch {
		case err == repository.ErrCampaignNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "campaign not found"})
		case err == repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "session window shorter than one slot"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create session failed"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":            sess.ID,
		"campaign_id":   sess.CampaignID,
		"session_date":  sess.SessionDate.Format("2006-01-02"),
		"starts_at":     sess.StartsAt.Format("15:04"),
		"ends_at":       sess.EndsAt.Format("15:04"),
		"slot_capacity": sess.SlotCapacity,
		"status":        sess.Status,
	})
}

// CancelSession handles DELETE /v1/staff/sessions/:id.  Every pending
// and confirmed reservation under the session is cancelled in the same
// transaction as the session itself.
func (h *StaffCampaignHandler) CancelSession(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	owner, err := h.Campaigns.SessionOwner(ctx, sessionID)
	if err != nil {
		if err == repository.ErrSessionNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if owner != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	cancelled, err := h.Booking.CancelSession(ctx, sessionID, staffActor(uid))
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session_id":             sessionID,
		"status":                 model.SessionCancelled,
		"cancelled_reservations": len(cancelled),
	})
}

// ListSessionReservations handles GET /v1/staff/sessions/:id/reservations.
func (h *StaffCampaignHandler) ListSessionReservations(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reservations.ListBySessionForOwner(ctx, sessionID, uid)
	if err != nil {
		switch {
		case err == sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		case err == repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": list})
}
