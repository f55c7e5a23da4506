package visit

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/homevisit/homevisit/internal/platform/auth"
	"github.com/homevisit/homevisit/internal/platform/relay"
	"github.com/homevisit/homevisit/pkg/pagination"
)

type Handler struct {
	svc    *Service
	relays *relay.Dispatcher
}

func NewHandler(svc *Service, relays *relay.Dispatcher) *Handler {
	return &Handler{svc: svc, relays: relays}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleDoctor))
	g.POST("/visits", h.SaveVisit)
	g.GET("/visits", h.ListVisits)
	g.GET("/visits/:id", h.GetVisit)
	g.GET("/visits/:id/record", h.LoadForNewVisit)
	g.PUT("/visits/:id", h.UpdateVisit)
	g.DELETE("/visits/:id", h.DeleteVisit)
}

// SaveVisit persists a new visit; the response carries the assigned visit
// identifier. A workflow trigger is dispatched best-effort.
func (h *Handler) SaveVisit(c echo.Context) error {
	var rec Record
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record payload")
	}
	sv, err := h.svc.Save(c.Request().Context(), &rec)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	h.relays.Dispatch(relay.KindWorkflowTrigger, auth.RoleFromContext(c), sv.Record.RelayFields())

	return c.JSON(http.StatusCreated, sv)
}

func (h *Handler) ListVisits(c echo.Context) error {
	p := pagination.FromContext(c)
	visits, total, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list visits")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(visits, total, p.Limit, p.Offset))
}

func (h *Handler) GetVisit(c echo.Context) error {
	sv, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load visit")
	}
	return c.JSON(http.StatusOK, sv)
}

// LoadForNewVisit returns the stored record with its visit identifier
// cleared, ready to seed a fresh encounter form.
func (h *Handler) LoadForNewVisit(c echo.Context) error {
	rec, err := h.svc.LoadForNewVisit(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load visit")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) UpdateVisit(c echo.Context) error {
	var rec Record
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record payload")
	}
	sv, err := h.svc.Update(c.Request().Context(), c.Param("id"), &rec)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(http.StatusOK, sv)
}

func (h *Handler) DeleteVisit(c echo.Context) error {
	err := h.svc.Delete(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete visit")
	}
	return c.NoContent(http.StatusNoContent)
}
