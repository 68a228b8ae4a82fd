package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ehr/antenatal/internal/domain/admin"
	"github.com/ehr/antenatal/internal/domain/identity"
	"github.com/ehr/antenatal/internal/domain/prenatal"
	"github.com/ehr/antenatal/internal/domain/scheduling"
	"github.com/ehr/antenatal/internal/platform/notification"
)

// The engine only knows its own error kinds; these adapters translate the
// domain services' errors into them.

type patientDirectory interface {
	PatientAccount(ctx context.Context, id uuid.UUID) (string, error)
	ActivePractitioner(ctx context.Context, id uuid.UUID) error
}

type hospitalDirectory interface {
	HospitalExists(ctx context.Context, id uuid.UUID) error
}

// DirectoryAdapter implements prenatal.Directory over the identity and
// admin services.
type DirectoryAdapter struct {
	people    patientDirectory
	hospitals hospitalDirectory
}

func NewDirectoryAdapter(people patientDirectory, hospitals hospitalDirectory) *DirectoryAdapter {
	return &DirectoryAdapter{people: people, hospitals: hospitals}
}

func (a *DirectoryAdapter) PatientAccount(ctx context.Context, id uuid.UUID) (string, error) {
	acct, err := a.people.PatientAccount(ctx, id)
	if err != nil {
		return "", engineError(err)
	}
	return acct, nil
}

func (a *DirectoryAdapter) HospitalExists(ctx context.Context, id uuid.UUID) error {
	return engineError(a.hospitals.HospitalExists(ctx, id))
}

func (a *DirectoryAdapter) StaffExists(ctx context.Context, id uuid.UUID) error {
	return engineError(a.people.ActivePractitioner(ctx, id))
}

type appointmentStore interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
	UpdateAppointment(ctx context.Context, a *scheduling.Appointment) error
	ListAppointmentsByPatientAndHospital(ctx context.Context, patientID, hospitalID uuid.UUID) ([]*scheduling.Appointment, error)
}

// AppointmentAdapter implements prenatal.AppointmentReader and
// prenatal.AppointmentUpdater over the scheduling service. Updates carry the
// version that was read, so a concurrent write surfaces as ErrInvalidState.
type AppointmentAdapter struct {
	store appointmentStore
}

func NewAppointmentAdapter(store appointmentStore) *AppointmentAdapter {
	return &AppointmentAdapter{store: store}
}

func (a *AppointmentAdapter) GetAppointment(ctx context.Context, id uuid.UUID) (*prenatal.Appointment, error) {
	appt, err := a.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, engineError(err)
	}
	return toEngineAppointment(appt), nil
}

func (a *AppointmentAdapter) ListAppointments(ctx context.Context, patientID, hospitalID uuid.UUID) ([]prenatal.Appointment, error) {
	appts, err := a.store.ListAppointmentsByPatientAndHospital(ctx, patientID, hospitalID)
	if err != nil {
		return nil, engineError(err)
	}
	out := make([]prenatal.Appointment, 0, len(appts))
	for _, appt := range appts {
		out = append(out, *toEngineAppointment(appt))
	}
	return out, nil
}

func (a *AppointmentAdapter) ApplyChange(ctx context.Context, ch prenatal.AppointmentChange) (*prenatal.Appointment, error) {
	appt, err := a.store.GetAppointment(ctx, ch.AppointmentID)
	if err != nil {
		return nil, engineError(err)
	}
	appt.StartTime = ch.Start
	appt.EndTime = ch.End
	appt.MinutesDuration = ch.MinutesDuration
	appt.Status = ch.Status
	appt.PractitionerID = ch.StaffID
	appt.Note = nil
	if ch.Notes != "" {
		notes := ch.Notes
		appt.Note = &notes
	}
	if ch.RequestedBy != "" {
		by := ch.RequestedBy
		appt.UpdatedBy = &by
	}
	if err := a.store.UpdateAppointment(ctx, appt); err != nil {
		return nil, engineError(err)
	}
	return toEngineAppointment(appt), nil
}

func toEngineAppointment(a *scheduling.Appointment) *prenatal.Appointment {
	return &prenatal.Appointment{
		ID:              a.ID,
		PatientID:       a.PatientID,
		HospitalID:      a.HospitalID,
		StaffID:         a.PractitionerID,
		Start:           a.StartTime,
		End:             a.EndTime,
		MinutesDuration: a.MinutesDuration,
		Status:          a.Status,
		Reason:          a.Reason(),
		Category:        a.Category,
		Notes:           a.NoteText(),
	}
}

type notificationQueue interface {
	Enqueue(ctx context.Context, n *notification.Notification) error
}

// NotifierAdapter implements prenatal.Notifier by queueing a templated
// notification.
type NotifierAdapter struct {
	queue notificationQueue
}

func NewNotifierAdapter(queue notificationQueue) *NotifierAdapter {
	return &NotifierAdapter{queue: queue}
}

func (a *NotifierAdapter) Enqueue(ctx context.Context, r prenatal.Reminder) error {
	n := &notification.Notification{
		Recipient:    r.Recipient,
		Subject:      r.Subject,
		Body:         r.Body,
		TemplateID:   prenatal.ReminderTemplateID,
		TemplateData: r.Data,
		SendAt:       r.SendAt,
		Metadata: map[string]string{
			"appointment_id": r.AppointmentID.String(),
			"patient_id":     r.PatientID.String(),
		},
	}
	if r.RequestedBy != "" {
		n.Metadata["requested_by"] = r.RequestedBy
	}
	if err := a.queue.Enqueue(ctx, n); err != nil {
		if errors.Is(err, notification.ErrNoRecipient) {
			return fmt.Errorf("%w: %w", prenatal.ErrInvalidInput, err)
		}
		return err
	}
	return nil
}

func engineError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, identity.ErrPatientNotFound),
		errors.Is(err, identity.ErrNoAccount),
		errors.Is(err, identity.ErrPractitionerNotFound),
		errors.Is(err, admin.ErrOrganizationNotFound),
		errors.Is(err, scheduling.ErrAppointmentNotFound):
		return fmt.Errorf("%w: %w", prenatal.ErrResourceNotFound, err)
	case errors.Is(err, scheduling.ErrInvalidTransition),
		errors.Is(err, scheduling.ErrVersionConflict):
		return fmt.Errorf("%w: %w", prenatal.ErrInvalidState, err)
	default:
		return err
	}
}
