package insurance

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pms/pms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/insurance/subscriptions/:id", h.GetSubscription)
	api.GET("/insurance/subscriptions/:id/rules", h.GetActiveRules)
	api.GET("/insurance/subscriptions/:id/claims", h.ListClaims)
	api.POST("/insurance/claims", h.RecordClaim)
}

func (h *Handler) GetSubscription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid subscription id")
	}
	sub, err := h.svc.GetSubscription(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *Handler) GetActiveRules(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid subscription id")
	}
	at := time.Now()
	if d := c.QueryParam("date"); d != "" {
		at, err = time.Parse("2006-01-02", d)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
	}
	rules, err := h.svc.ActiveRules(c.Request().Context(), id, at)
	if err != nil {
		return err
	}
	if rules == nil {
		rules = []*CoverageRule{}
	}
	return c.JSON(http.StatusOK, rules)
}

func (h *Handler) ListClaims(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid subscription id")
	}
	p := pagination.FromContext(c)
	claims, total, err := h.svc.ListClaims(c.Request().Context(), id, p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(claims, total, p.Limit, p.Offset))
}

func (h *Handler) RecordClaim(c echo.Context) error {
	var cl Claim
	if err := c.Bind(&cl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RecordClaim(c.Request().Context(), &cl); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cl)
}
