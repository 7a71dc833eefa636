package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/blood-donation-platform/internal/model"
	"github.com/iliyamo/blood-donation-platform/internal/repository"
)

// PublicHandler serves the unauthenticated browse endpoints.  These sit
// behind the Redis response cache and the rate limiter.
type PublicHandler struct {
	Campaigns *repository.CampaignRepo
}

func NewPublicHandler(campaigns *repository.CampaignRepo) *PublicHandler {
	if campaigns == nil {
		panic("nil campaign repository passed to NewPublicHandler")
	}
	return &PublicHandler{Campaigns: campaigns}
}

func campaignView(c model.Campaign) echo.Map {
	return echo.Map{
		"id":       c.ID,
		"title":    c.Title,
		"location": c.Location,
		"status":   c.Status,
	}
}

func sessionView(s model.CampaignSession) echo.Map {
	return echo.Map{
		"id":            s.ID,
		"campaign_id":   s.CampaignID,
		"session_date":  s.SessionDate.Format("2006-01-02"),
		"starts_at":     s.StartsAt.Format("15:04"),
		"ends_at":       s.EndsAt.Format("15:04"),
		"slot_capacity": s.SlotCapacity,
		"status":        s.Status,
	}
}

// ListCampaigns handles GET /v1/campaigns.  Only ACTIVE campaigns are
// listed publicly.
func (h *PublicHandler) ListCampaigns(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	campaigns, err := h.Campaigns.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(campaigns))
	for _, camp := range campaigns {
		out = append(out, campaignView(camp))
	}
	return c.JSON(http.StatusOK, echo.Map{"campaigns": out})
}

// ListSessions handles GET /v1/campaigns/:id/sessions.
func (h *PublicHandler) ListSessions(c echo.Context) error {
	campaignID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid campaign id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Campaigns.GetByID(ctx, campaignID); err != nil {
		if err == repository.ErrCampaignNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "campaign not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	sessions, err := h.Campaigns.ListSessions(ctx, campaignID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionView(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"campaign_id": campaignID, "sessions": out})
}

// ListSlots handles GET /v1/sessions/:id/slots.  Availability reflects
// the committed admission state at read time; winning the slot still
// happens at booking.
func (h *PublicHandler) ListSlots(c echo.Context) error {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sess, err := h.Campaigns.GetSession(ctx, sessionID)
	if err != nil {
		if err == repository.ErrSessionNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	slots, err := h.Campaigns.ListSlots(ctx, sessionID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session_id":   sessionID,
		"session_date": sess.SessionDate.Format("2006-01-02"),
		"status":       sess.Status,
		"slots":        slots,
	})
}

// SearchCampaigns handles GET /v1/search/campaigns?q=...&limit=...
func (h *PublicHandler) SearchCampaigns(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "q is required"})
	}
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	campaigns, err := h.Campaigns.Search(ctx, q, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(campaigns))
	for _, camp := range campaigns {
		out = append(out, campaignView(camp))
	}
	return c.JSON(http.StatusOK, echo.Map{"query": q, "campaigns": out})
}
