package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/blood-donation-platform/internal/model"
	"github.com/iliyamo/blood-donation-platform/internal/repository"
)

// StaffInventoryHandler covers blood bank administration and the
// inventory ledger.
type StaffInventoryHandler struct {
	Inventory *repository.InventoryRepo
}

func NewStaffInventoryHandler(inv *repository.InventoryRepo) *StaffInventoryHandler {
	if inv == nil {
		panic("nil inventory repository passed to NewStaffInventoryHandler")
	}
	return &StaffInventoryHandler{Inventory: inv}
}

type createBankReq struct {
	Name string `json:"name"`
	City string `json:"city"`
}

// CreateBank handles POST /v1/banks.
func (h *StaffInventoryHandler) CreateBank(c echo.Context) error {
	var req createBankReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bank := model.BloodBank{Name: req.Name, City: strings.TrimSpace(req.City)}
	if err := h.Inventory.CreateBank(ctx, &bank); err != nil {
		if err == repository.ErrBankNameExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "bank name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create bank failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": bank.ID, "name": bank.Name, "city": bank.City})
}

// ListBanks handles GET /v1/banks.
func (h *StaffInventoryHandler) ListBanks(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	banks, err := h.Inventory.ListBanks(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(banks))
	for _, b := range banks {
		out = append(out, echo.Map{"id": b.ID, "name": b.Name, "city": b.City})
	}
	return c.JSON(http.StatusOK, echo.Map{"banks": out})
}

// Levels handles GET /v1/banks/:id/inventory.  Every tracked blood type
// bucket of the bank is reported, including empty ones.
func (h *StaffInventoryHandler) Levels(c echo.Context) error {
	bankID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bank id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	records, err := h.Inventory.Levels(ctx, bankID)
	if err != nil {
		if err == repository.ErrBankNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bank not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	levels := make([]echo.Map, 0, len(records))
	for _, rec := range records {
		levels = append(levels, echo.Map{
			"blood_type": string(rec.BloodType),
			"units":      rec.Units,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"bank_id": bankID, "inventory": levels})
}

type usageReq struct {
	BloodType string `json:"blood_type"`
	Units     uint32 `json:"units"`
}

// Usage handles POST /v1/banks/:id/usage.  The decrement is guarded:
// drawing more units than the bucket holds is rejected rather than
// letting the counter go negative.
func (h *StaffInventoryHandler) Usage(c echo.Context) error {
	bankID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bank id"})
	}
	var req usageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	bt, okType := model.ParseBloodType(req.BloodType)
	if !okType || !bt.Known() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "a concrete blood_type is required"})
	}
	if req.Units == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "units must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Inventory.GetBank(ctx, bankID); err != nil {
		if errors.Is(err, repository.ErrBankNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bank not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.Inventory.UseUnits(ctx, bankID, bt, req.Units); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient units"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"bank_id":    bankID,
		"blood_type": string(bt),
		"used":       req.Units,
	})
}
