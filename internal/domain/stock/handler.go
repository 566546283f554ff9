package stock

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/stock/sufficiency", h.CheckSufficiency)
	api.GET("/stock/items/:code/availability", h.GetAvailability)
	api.POST("/stock/movements", h.RecordMovement)
}

// CheckSufficiency answers whether qty of a medication can be dispensed.
// Location resolution order: explicit warehouse param, then the service
// unit's warehouse.
func (h *Handler) CheckSufficiency(c echo.Context) error {
	medication := c.QueryParam("medication")
	if medication == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "medication is required")
	}
	qty := 1.0
	if q := c.QueryParam("qty"); q != "" {
		var err error
		qty, err = strconv.ParseFloat(q, 64)
		if err != nil || qty <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "qty must be a positive number")
		}
	}

	var explicit *string
	if w := c.QueryParam("warehouse"); w != "" {
		explicit = &w
	}
	var unitID *uuid.UUID
	if u := c.QueryParam("service_unit"); u != "" {
		id, err := uuid.Parse(u)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid service_unit id")
		}
		unitID = &id
	}

	ctx := c.Request().Context()
	warehouse, err := h.svc.ResolveLocation(ctx, explicit, unitID)
	if err != nil {
		return err
	}
	if err := h.svc.CheckMedicationStock(ctx, medication, qty, warehouse); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"medication": medication,
		"qty":        qty,
		"warehouse":  warehouse,
		"sufficient": true,
	})
}

func (h *Handler) GetAvailability(c echo.Context) error {
	code := c.Param("code")
	warehouse := c.QueryParam("warehouse")
	if warehouse == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "warehouse is required")
	}
	qty, err := h.svc.Availability(c.Request().Context(), code, warehouse)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"item_code": code,
		"warehouse": warehouse,
		"available": qty,
	})
}

func (h *Handler) RecordMovement(c echo.Context) error {
	var e LedgerEntry
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RecordMovement(c.Request().Context(), &e); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, e)
}
