package prenatal

import (
	"context"

	"github.com/google/uuid"
)

// Directory resolves the people and places an engine request refers to.
// Implementations return an error wrapping ErrResourceNotFound when a record
// does not exist.
type Directory interface {
	PatientAccount(ctx context.Context, patientID uuid.UUID) (string, error)
	HospitalExists(ctx context.Context, hospitalID uuid.UUID) error
	StaffExists(ctx context.Context, staffID uuid.UUID) error
}

type AppointmentReader interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointments(ctx context.Context, patientID, hospitalID uuid.UUID) ([]Appointment, error)
}

// AppointmentUpdater persists a change and returns the stored result.
// Concurrent changes to the same appointment are the implementation's to
// serialize.
type AppointmentUpdater interface {
	ApplyChange(ctx context.Context, change AppointmentChange) (*Appointment, error)
}

type Notifier interface {
	Enqueue(ctx context.Context, r Reminder) error
}
