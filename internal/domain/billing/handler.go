package billing

import (
	"net/http"

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
	api.GET("/billing/invoiceable-services", h.InvoiceableServices)
	api.POST("/billing/service-orders", h.CreateOrder)
	api.POST("/billing/mark-invoiced", h.MarkInvoiced)
}

func (h *Handler) InvoiceableServices(c echo.Context) error {
	var f InvoiceableFilter
	var err error

	if p := c.QueryParam("patient"); p != "" {
		f.PatientID, err = uuid.Parse(p)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
		}
	} else {
		return echo.NewHTTPError(http.StatusBadRequest, "patient is required")
	}
	f.Company = c.QueryParam("company")
	if f.Company == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "company is required")
	}
	f.Category = c.QueryParam("category")
	if e := c.QueryParam("encounter"); e != "" {
		f.EncounterID, err = uuid.Parse(e)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid encounter id")
		}
	}
	switch c.QueryParam("prescribed") {
	case "":
	case "true":
		v := true
		f.Prescribed = &v
	case "false":
		v := false
		f.Prescribed = &v
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "prescribed must be true or false")
	}

	items, err := h.svc.InvoiceableServices(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateOrder(c echo.Context) error {
	var o ServiceOrder
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateOrder(c.Request().Context(), &o); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, o)
}

type markInvoicedRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

func (h *Handler) MarkInvoiced(c echo.Context) error {
	var req markInvoicedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.MarkInvoiced(c.Request().Context(), req.IDs); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
