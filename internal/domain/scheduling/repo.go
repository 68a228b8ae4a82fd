package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	// ErrVersionConflict means the appointment changed since it was read.
	ErrVersionConflict = errors.New("appointment was modified concurrently")
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// Update writes a only if its VersionID still matches the stored row,
	// then bumps VersionID.
	Update(ctx context.Context, a *Appointment) error
	ListByPatientAndHospital(ctx context.Context, patientID, hospitalID uuid.UUID) ([]*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
}
