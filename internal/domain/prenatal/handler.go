package prenatal

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/antenatal/internal/platform/auth"
)

type Handler struct {
	engine *Engine
	now    func() time.Time
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine, now: time.Now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	readGroup.POST("/prenatal/schedules", h.BuildSchedule)

	writeGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse", "scheduler"))
	writeGroup.POST("/appointments/:id/reschedule", h.Reschedule)
	writeGroup.POST("/appointments/:id/reminders", h.CreateReminder)
}

type scheduleRequest struct {
	PatientID  uuid.UUID `json:"patient_id"`
	HospitalID uuid.UUID `json:"hospital_id"`
	LMP        string    `json:"lmp"`
	HighRisk   bool      `json:"high_risk"`
	// AsOf replaces today's date when set.
	AsOf string `json:"as_of,omitempty"`
}

func (h *Handler) BuildSchedule(c echo.Context) error {
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == uuid.Nil || req.HospitalID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id and hospital_id are required")
	}
	if err := auth.AuthorizeHospital(c.Request().Context(), req.HospitalID); err != nil {
		return err
	}
	lmp, err := time.Parse(dateLayout, req.LMP)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "lmp must be YYYY-MM-DD")
	}
	now := h.now()
	if req.AsOf != "" {
		if now, err = time.Parse(dateLayout, req.AsOf); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "as_of must be YYYY-MM-DD")
		}
	}

	result, err := h.engine.BuildSchedule(c.Request().Context(), PregnancyContext{
		PatientID:  req.PatientID,
		HospitalID: req.HospitalID,
		LMP:        lmp,
		HighRisk:   req.HighRisk,
		Now:        now,
	})
	if err != nil {
		return echo.NewHTTPError(ErrorStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Reschedule(c echo.Context) error {
	appt, err := h.authorizedAppointment(c)
	if err != nil {
		return err
	}
	var req RescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.AppointmentID = appt.ID
	req.RequestedBy = auth.UserIDFromContext(c.Request().Context())
	req.Now = h.now()

	updated, err := h.engine.Reschedule(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(ErrorStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) CreateReminder(c echo.Context) error {
	appt, err := h.authorizedAppointment(c)
	if err != nil {
		return err
	}
	var req ReminderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.AppointmentID = appt.ID
	req.RequestedBy = auth.UserIDFromContext(c.Request().Context())
	req.Now = h.now()

	if err := h.engine.CreateReminder(c.Request().Context(), req); err != nil {
		return echo.NewHTTPError(ErrorStatus(err), err.Error())
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
}

// authorizedAppointment loads the :id appointment and checks the caller may
// act on its hospital.
func (h *Handler) authorizedAppointment(c echo.Context) (*Appointment, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	appt, err := h.engine.Appointment(c.Request().Context(), id)
	if err != nil {
		return nil, echo.NewHTTPError(ErrorStatus(err), err.Error())
	}
	if err := auth.AuthorizeHospital(c.Request().Context(), appt.HospitalID); err != nil {
		return nil, err
	}
	return appt, nil
}

// ErrorStatus maps an engine error to an HTTP status code.
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrResourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
