package prenatal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Engine computes antenatal schedules and validates changes to prenatal
// appointments. It holds no per-request state; every call carries its own
// reference time.
type Engine struct {
	directory    Directory
	appointments AppointmentReader
	updater      AppointmentUpdater
	notifier     Notifier
	location     *time.Location
	logger       zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocation sets the zone used to interpret reschedule dates and times.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.location = loc
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func NewEngine(dir Directory, appts AppointmentReader, updater AppointmentUpdater, notifier Notifier, opts ...Option) *Engine {
	e := &Engine{
		directory:    dir,
		appointments: appts,
		updater:      updater,
		notifier:     notifier,
		location:     time.UTC,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location returns the zone the engine interprets wall-clock input in.
func (e *Engine) Location() *time.Location { return e.location }

// BuildSchedule computes the recommended visits for a pregnancy and marks
// the ones already covered by booked appointments.
func (e *Engine) BuildSchedule(ctx context.Context, pc PregnancyContext) (*ScheduleResult, error) {
	if _, err := e.directory.PatientAccount(ctx, pc.PatientID); err != nil {
		return nil, fmt.Errorf("resolve patient %s: %w", pc.PatientID, err)
	}
	if err := e.directory.HospitalExists(ctx, pc.HospitalID); err != nil {
		return nil, fmt.Errorf("resolve hospital %s: %w", pc.HospitalID, err)
	}

	ga, err := CalculateGestationalAge(pc.LMP, pc.Now)
	if err != nil {
		return nil, err
	}

	checkpoints, alerts := PlanCheckpoints(pc, ga.Weeks)

	appts, err := e.appointments.ListAppointments(ctx, pc.PatientID, pc.HospitalID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	alerts = append(alerts, Reconcile(checkpoints, appts, pc.Now, pc.HighRisk)...)
	if alerts == nil {
		alerts = []string{}
	}

	result := &ScheduleResult{
		PatientID:       pc.PatientID,
		HospitalID:      pc.HospitalID,
		GestationalWeek: ga.Weeks,
		GestationalDay:  ga.Days,
		EDD:             ga.EDD,
		HighRisk:        pc.HighRisk,
		Checkpoints:     checkpoints,
		Alerts:          alerts,
	}

	e.logger.Debug().
		Str("patient_id", pc.PatientID.String()).
		Str("hospital_id", pc.HospitalID.String()).
		Int("gestational_week", ga.Weeks).
		Int("checkpoints", len(checkpoints)).
		Int("outstanding", len(result.Outstanding())).
		Int("alerts", len(alerts)).
		Msg("prenatal schedule built")

	return result, nil
}

// Appointment returns a single appointment as the engine sees it.
func (e *Engine) Appointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := e.appointments.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("appointment %s: %w", id, err)
	}
	return appt, nil
}
