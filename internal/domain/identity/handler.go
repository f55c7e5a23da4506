package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/homevisit/homevisit/internal/platform/auth"
	"github.com/homevisit/homevisit/internal/platform/relay"
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
	g.GET("/identity", h.GetProfile)
	g.PUT("/identity", h.PutProfile)
}

func (h *Handler) GetProfile(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), auth.RoleFromContext(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load profile")
	}
	return c.JSON(http.StatusOK, p)
}

// PutProfile replaces the caller's profile and dispatches a lead-capture
// relay best-effort.
func (h *Handler) PutProfile(c echo.Context) error {
	var p Profile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid profile payload")
	}
	role := auth.RoleFromContext(c)
	p.Role = role
	if err := h.svc.Put(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save profile")
	}

	h.relays.Dispatch(relay.KindLeadCapture, role, map[string]string{
		"name":           p.Name,
		"phone":          p.Phone,
		"email":          p.Email,
		"address":        p.Address,
		"relative_name":  p.RelativeName,
		"relative_phone": p.RelativePhone,
	})

	return c.JSON(http.StatusOK, p)
}
