package vitals

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
	g := api.Group("", auth.RequireRole(auth.RolePatient))
	g.POST("/vitals", h.CreateVital)
	g.GET("/vitals", h.ListVitals)
	g.GET("/vitals/:id", h.GetVital)
	g.PUT("/vitals/:id", h.UpdateVital)
	g.DELETE("/vitals/:id", h.DeleteVital)
}

// CreateVital stores a new entry and dispatches the vitals-sync relay
// best-effort.
func (h *Handler) CreateVital(c echo.Context) error {
	var v DailyVital
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid vitals payload")
	}
	created, err := h.svc.Create(c.Request().Context(), &v)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save vitals")
	}

	h.relays.Dispatch(relay.KindVitalsSync, auth.RoleFromContext(c), created.RelayFields())

	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListVitals(c echo.Context) error {
	p := pagination.FromContext(c)
	entries, total, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list vitals")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, p.Limit, p.Offset))
}

func (h *Handler) GetVital(c echo.Context) error {
	v, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "vital entry not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load vitals")
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) UpdateVital(c echo.Context) error {
	var v DailyVital
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid vitals payload")
	}
	updated, err := h.svc.Update(c.Request().Context(), c.Param("id"), &v)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "vital entry not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update vitals")
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteVital(c echo.Context) error {
	err := h.svc.Delete(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "vital entry not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete vitals")
	}
	return c.NoContent(http.StatusNoContent)
}
