package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/blood-donation-platform/internal/booking"
)

// getUserID extracts the authenticated user's ID from the echo context.
// The JWT middleware stores the raw "sub" claim, whose concrete type
// depends on how the token was decoded.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric path parameter, rejecting zero.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func donorActor(id uint64) string { return fmt.Sprintf("donor:%d", id) }
func staffActor(id uint64) string { return fmt.Sprintf("staff:%d", id) }

// writeBookingError maps booking domain errors onto HTTP responses.
// Unrecognized errors become a 500 without leaking storage detail.
func writeBookingError(c echo.Context, err error) error {
	var elig *booking.EligibilityError
	switch {
	case errors.As(err, &elig):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":              "donor not eligible",
			"next_eligible_date": elig.NextEligible.Format("2006-01-02"),
		})
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, booking.ErrDuplicateActiveReservation):
		return c.JSON(http.StatusConflict, echo.Map{"error": "active reservation already exists for this time"})
	case errors.Is(err, booking.ErrSlotUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot unavailable"})
	case errors.Is(err, booking.ErrAlreadyTerminal):
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already finalized"})
	case errors.Is(err, booking.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrBloodTypeRequired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "blood type required to complete donation"})
	case errors.Is(err, booking.ErrCompletionFailed):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "completion failed"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
