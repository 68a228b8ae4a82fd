package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTransition is returned when an update tries to move an
// appointment out of a terminal status.
var ErrInvalidTransition = errors.New("appointment is in a terminal status")

type Service struct {
	appointments AppointmentRepository
}

func NewService(appt AppointmentRepository) *Service {
	return &Service{appointments: appt}
}

func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.HospitalID == uuid.Nil {
		return fmt.Errorf("hospital_id is required")
	}
	if a.StartTime.IsZero() {
		return fmt.Errorf("start_time is required")
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if !validAppointmentStatuses[a.Status] {
		return fmt.Errorf("invalid appointment status: %s", a.Status)
	}
	if err := normalizeTimes(a); err != nil {
		return err
	}
	return s.appointments.Create(ctx, a)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// UpdateAppointment persists a. The stored copy must not be terminal and
// a.VersionID must match it.
func (s *Service) UpdateAppointment(ctx context.Context, a *Appointment) error {
	if a.Status != "" && !validAppointmentStatuses[a.Status] {
		return fmt.Errorf("invalid appointment status: %s", a.Status)
	}
	current, err := s.appointments.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	if terminalStatuses[current.Status] {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, current.Status)
	}
	if a.Status == "" {
		a.Status = current.Status
	}
	if a.VersionID == 0 {
		a.VersionID = current.VersionID
	}
	a.PatientID = current.PatientID
	a.HospitalID = current.HospitalID
	if err := normalizeTimes(a); err != nil {
		return err
	}
	return s.appointments.Update(ctx, a)
}

func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID, reason, by string) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if terminalStatuses[a.Status] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, a.Status)
	}
	a.Status = StatusCancelled
	if reason != "" {
		a.CancellationReason = &reason
	}
	if by != "" {
		a.UpdatedBy = &by
	}
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListAppointmentsByPatientAndHospital(ctx context.Context, patientID, hospitalID uuid.UUID) ([]*Appointment, error) {
	return s.appointments.ListByPatientAndHospital(ctx, patientID, hospitalID)
}

func (s *Service) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

// normalizeTimes fills whichever of EndTime and MinutesDuration is missing.
func normalizeTimes(a *Appointment) error {
	switch {
	case a.MinutesDuration < 0:
		return fmt.Errorf("minutes_duration must not be negative")
	case a.EndTime.IsZero() && a.MinutesDuration == 0:
		return fmt.Errorf("end_time or minutes_duration is required")
	case a.EndTime.IsZero():
		a.EndTime = a.StartTime.Add(time.Duration(a.MinutesDuration) * time.Minute)
	case a.MinutesDuration == 0:
		a.MinutesDuration = int(a.EndTime.Sub(a.StartTime) / time.Minute)
	}
	if !a.EndTime.After(a.StartTime) {
		return fmt.Errorf("end_time must be after start_time")
	}
	return nil
}
