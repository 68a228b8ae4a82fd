package scheduling

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
	readGroup.GET("/appointments/:id", h.GetAppointment)
	readGroup.GET("/patients/:id/appointments", h.ListPatientAppointments)

	writeGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse", "scheduler"))
	writeGroup.POST("/appointments", h.CreateAppointment)
	writeGroup.PUT("/appointments/:id", h.UpdateAppointment)
	writeGroup.POST("/appointments/:id/cancel", h.CancelAppointment)
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := auth.AuthorizeHospital(c.Request().Context(), a.HospitalID); err != nil {
		return err
	}
	if by := auth.UserIDFromContext(c.Request().Context()); by != "" {
		a.UpdatedBy = &by
	}
	if err := h.svc.CreateAppointment(c.Request().Context(), &a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	a, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListPatientAppointments(c echo.Context) error {
	ctx := c.Request().Context()
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if raw := c.QueryParam("hospital_id"); raw != "" {
		hid, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital_id")
		}
		if err := auth.AuthorizeHospital(ctx, hid); err != nil {
			return err
		}
		items, err := h.svc.ListAppointmentsByPatientAndHospital(ctx, pid, hid)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, len(items), len(items), 0))
	}

	// Without a hospital filter only admins see the full history.
	if actor, ok := auth.ActorFromContext(ctx); !ok || !actor.HasRole("admin") {
		return echo.NewHTTPError(http.StatusBadRequest, "hospital_id is required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAppointmentsByPatient(ctx, pid, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks(c.Request().URL.Path))
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	current, err := h.load(c)
	if err != nil {
		return err
	}
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.ID = current.ID
	if by := auth.UserIDFromContext(c.Request().Context()); by != "" {
		a.UpdatedBy = &by
	}
	if err := h.svc.UpdateAppointment(c.Request().Context(), &a); err != nil {
		return writeError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	current, err := h.load(c)
	if err != nil {
		return err
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.CancelAppointment(c.Request().Context(), current.ID, body.Reason, auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return writeError(err)
	}
	return c.JSON(http.StatusOK, a)
}

// load fetches the appointment named by the id path parameter and checks
// the caller may see its hospital.
func (h *Handler) load(c echo.Context) (*Appointment, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return nil, writeError(err)
	}
	if err := auth.AuthorizeHospital(c.Request().Context(), a.HospitalID); err != nil {
		return nil, err
	}
	return a, nil
}

func writeError(err error) error {
	switch {
	case errors.Is(err, ErrAppointmentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrVersionConflict), errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
