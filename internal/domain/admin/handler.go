package admin

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/antenatal/internal/platform/auth"
	"github.com/ehr/antenatal/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse", "scheduler"))
	readGroup.GET("/hospitals", h.ListOrganizations)
	readGroup.GET("/hospitals/:id", h.GetOrganization)

	adminGroup := api.Group("", auth.RequireRole("admin"))
	adminGroup.POST("/hospitals", h.CreateOrganization)
	adminGroup.PUT("/hospitals/:id", h.UpdateOrganization)
}

func (h *Handler) CreateOrganization(c echo.Context) error {
	var org Organization
	if err := c.Bind(&org); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateOrganization(c.Request().Context(), &org); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, org)
}

func (h *Handler) GetOrganization(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	org, err := h.svc.GetOrganization(c.Request().Context(), id)
	if errors.Is(err, ErrOrganizationNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "organization not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, org)
}

// ListOrganizations returns every hospital to admins and only the caller's
// hospitals to everyone else.
func (h *Handler) ListOrganizations(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListOrganizations(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	actor, _ := auth.ActorFromContext(c.Request().Context())
	if !actor.HasRole("admin") {
		visible := make([]*Organization, 0, len(items))
		for _, o := range items {
			if actor.CanAccessHospital(o.ID) {
				visible = append(visible, o)
			}
		}
		items, total = visible, len(visible)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateOrganization(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var org Organization
	if err := c.Bind(&org); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	org.ID = id
	if err := h.svc.UpdateOrganization(c.Request().Context(), &org); err != nil {
		if errors.Is(err, ErrOrganizationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "organization not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, org)
}
