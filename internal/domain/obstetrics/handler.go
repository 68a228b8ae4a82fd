package obstetrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/antenatal/internal/domain/prenatal"
	"github.com/ehr/antenatal/internal/platform/auth"
	"github.com/ehr/antenatal/pkg/pagination"
)

// ScheduleBuilder computes a visit schedule for a pregnancy context.
type ScheduleBuilder interface {
	BuildSchedule(ctx context.Context, pc prenatal.PregnancyContext) (*prenatal.ScheduleResult, error)
}

type Handler struct {
	svc       *Service
	schedules ScheduleBuilder
	now       func() time.Time
}

func NewHandler(svc *Service, schedules ScheduleBuilder) *Handler {
	return &Handler{svc: svc, schedules: schedules, now: time.Now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	readGroup.GET("/pregnancies/:id", h.GetPregnancy)
	readGroup.GET("/pregnancies/:id/schedule", h.GetSchedule)
	readGroup.GET("/patients/:id/pregnancies", h.ListPatientPregnancies)

	writeGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	writeGroup.POST("/pregnancies", h.CreatePregnancy)
	writeGroup.PUT("/pregnancies/:id", h.UpdatePregnancy)
}

func (h *Handler) CreatePregnancy(c echo.Context) error {
	var p Pregnancy
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := auth.AuthorizeHospital(c.Request().Context(), p.ManagingOrganizationID); err != nil {
		return err
	}
	if err := h.svc.CreatePregnancy(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPregnancy(c echo.Context) error {
	p, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePregnancy(c echo.Context) error {
	current, err := h.load(c)
	if err != nil {
		return err
	}
	var p Pregnancy
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = current.ID
	p.PatientID = current.PatientID
	p.ManagingOrganizationID = current.ManagingOrganizationID
	p.LastMenstrualPeriod = current.LastMenstrualPeriod
	if p.EstimatedDueDate == nil {
		p.EstimatedDueDate = current.EstimatedDueDate
	}
	if err := h.svc.UpdatePregnancy(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

// GetSchedule returns the antenatal visit plan for the pregnancy. The
// optional as_of query parameter (YYYY-MM-DD) replaces the current date.
func (h *Handler) GetSchedule(c echo.Context) error {
	p, err := h.load(c)
	if err != nil {
		return err
	}
	now := h.now()
	if raw := c.QueryParam("as_of"); raw != "" {
		now, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid as_of date")
		}
	}
	result, err := h.schedules.BuildSchedule(c.Request().Context(), p.ScheduleContext(now))
	if err != nil {
		return echo.NewHTTPError(prenatal.ErrorStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) ListPatientPregnancies(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPregnanciesByPatient(c.Request().Context(), pid, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	actor, _ := auth.ActorFromContext(c.Request().Context())
	visible := make([]*Pregnancy, 0, len(items))
	for _, p := range items {
		if actor.CanAccessHospital(p.ManagingOrganizationID) {
			visible = append(visible, p)
		}
	}
	if len(visible) != len(items) {
		total -= len(items) - len(visible)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(visible, total, pg.Limit, pg.Offset).WithLinks(c.Request().URL.Path))
}

func (h *Handler) load(c echo.Context) (*Pregnancy, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPregnancy(c.Request().Context(), id)
	if errors.Is(err, ErrPregnancyNotFound) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "pregnancy not found")
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := auth.AuthorizeHospital(c.Request().Context(), p.ManagingOrganizationID); err != nil {
		return nil, err
	}
	return p, nil
}
