package encounter

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/pms/pms/internal/platform/apperr"
	"github.com/pms/pms/internal/platform/db"
	"github.com/pms/pms/pkg/pagination"
)

type Handler struct {
	svc  *Service
	pool *pgxpool.Pool
}

// NewHandler builds the encounter handler. The pool is used to run the
// duplicate operation inside a single transaction; it may be nil in tests,
// in which case the operation runs without one.
func NewHandler(svc *Service, pool *pgxpool.Pool) *Handler {
	return &Handler{svc: svc, pool: pool}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/encounters", h.CreateEncounter)
	api.GET("/encounters/:id", h.GetEncounter)
	api.GET("/patients/:id/encounters", h.ListPatientEncounters)
	api.POST("/encounters/:id/submit", h.SubmitEncounter)
	api.POST("/encounters/:id/validate-coverage", h.ValidateCoverage)
	api.POST("/encounters/:id/duplicate", h.DuplicateEncounter)
}

func (h *Handler) CreateEncounter(c echo.Context) error {
	var e Encounter
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &e); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) GetEncounter(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid encounter id")
	}
	e, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) ListPatientEncounters(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) SubmitEncounter(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid encounter id")
	}
	e, err := h.svc.Submit(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) ValidateCoverage(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid encounter id")
	}
	if err := h.svc.ValidateCoverageByID(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type duplicateRequest struct {
	Direction Direction `json:"direction"`
}

// DuplicateEncounter copies a submitted encounter into the next stage. The
// copy insert and the source duplicate flag share one transaction.
func (h *Handler) DuplicateEncounter(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid encounter id")
	}
	var req duplicateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	var newID uuid.UUID
	if h.pool != nil {
		txCtx, tx, err := db.WithTx(ctx, h.pool)
		if err != nil {
			return apperr.Internal("begin duplicate transaction", err)
		}
		newID, err = h.svc.Duplicate(txCtx, id, req.Direction)
		if err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return apperr.Internal("commit duplicate transaction", err)
		}
	} else {
		newID, err = h.svc.Duplicate(ctx, id, req.Direction)
		if err != nil {
			return err
		}
	}

	if newID == uuid.Nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusCreated, map[string]string{"id": newID.String()})
}
