package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/antenatal/internal/domain/admin"
	"github.com/ehr/antenatal/internal/domain/identity"
	"github.com/ehr/antenatal/internal/domain/prenatal"
	"github.com/ehr/antenatal/internal/domain/scheduling"
	"github.com/ehr/antenatal/internal/platform/notification"
)

type stubPeople struct {
	accounts map[uuid.UUID]string
	staff    map[uuid.UUID]bool
}

func (s *stubPeople) PatientAccount(_ context.Context, id uuid.UUID) (string, error) {
	acct, ok := s.accounts[id]
	if !ok {
		return "", identity.ErrPatientNotFound
	}
	if acct == "" {
		return "", fmt.Errorf("%w: %s", identity.ErrNoAccount, id)
	}
	return acct, nil
}

func (s *stubPeople) ActivePractitioner(_ context.Context, id uuid.UUID) error {
	if !s.staff[id] {
		return identity.ErrPractitionerNotFound
	}
	return nil
}

type stubHospitals map[uuid.UUID]bool

func (s stubHospitals) HospitalExists(_ context.Context, id uuid.UUID) error {
	if !s[id] {
		return admin.ErrOrganizationNotFound
	}
	return nil
}

func TestDirectoryAdapter(t *testing.T) {
	withAccount, withoutAccount, staff, hospital := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	people := &stubPeople{
		accounts: map[uuid.UUID]string{withAccount: "acct-1", withoutAccount: ""},
		staff:    map[uuid.UUID]bool{staff: true},
	}
	dir := NewDirectoryAdapter(people, stubHospitals{hospital: true})
	ctx := context.Background()

	if acct, err := dir.PatientAccount(ctx, withAccount); err != nil || acct != "acct-1" {
		t.Errorf("expected acct-1, got %q, %v", acct, err)
	}
	for _, id := range []uuid.UUID{withoutAccount, uuid.New()} {
		if _, err := dir.PatientAccount(ctx, id); !errors.Is(err, prenatal.ErrResourceNotFound) {
			t.Errorf("patient %s: expected ErrResourceNotFound, got %v", id, err)
		}
	}
	if err := dir.HospitalExists(ctx, hospital); err != nil {
		t.Errorf("expected hospital to exist, got %v", err)
	}
	if err := dir.HospitalExists(ctx, uuid.New()); !errors.Is(err, prenatal.ErrResourceNotFound) {
		t.Errorf("expected ErrResourceNotFound, got %v", err)
	}
	if err := dir.StaffExists(ctx, staff); err != nil {
		t.Errorf("expected staff to exist, got %v", err)
	}
	err := dir.StaffExists(ctx, uuid.New())
	if !errors.Is(err, prenatal.ErrResourceNotFound) || !errors.Is(err, identity.ErrPractitionerNotFound) {
		t.Errorf("expected both error kinds to match, got %v", err)
	}
}

type stubAppointments struct {
	byID      map[uuid.UUID]*scheduling.Appointment
	updated   []scheduling.Appointment
	updateErr error
}

func (s *stubAppointments) GetAppointment(_ context.Context, id uuid.UUID) (*scheduling.Appointment, error) {
	a, ok := s.byID[id]
	if !ok {
		return nil, scheduling.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *stubAppointments) UpdateAppointment(_ context.Context, a *scheduling.Appointment) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	a.VersionID++
	s.updated = append(s.updated, *a)
	return nil
}

func (s *stubAppointments) ListAppointmentsByPatientAndHospital(_ context.Context, patientID, hospitalID uuid.UUID) ([]*scheduling.Appointment, error) {
	var out []*scheduling.Appointment
	for _, a := range s.byID {
		if a.PatientID == patientID && a.HospitalID == hospitalID {
			out = append(out, a)
		}
	}
	return out, nil
}

func seededAppointments() (*stubAppointments, *scheduling.Appointment) {
	reason, note := "Antenatal check", "bring scan"
	a := &scheduling.Appointment{
		ID:              uuid.New(),
		PatientID:       uuid.New(),
		HospitalID:      uuid.New(),
		Status:          scheduling.StatusScheduled,
		Category:        prenatal.CategoryPrenatal,
		ReasonDisplay:   &reason,
		StartTime:       time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC),
		EndTime:         time.Date(2024, 4, 2, 9, 30, 0, 0, time.UTC),
		MinutesDuration: 30,
		Note:            &note,
		VersionID:       3,
	}
	return &stubAppointments{byID: map[uuid.UUID]*scheduling.Appointment{a.ID: a}}, a
}

func TestAppointmentAdapter_Read(t *testing.T) {
	store, seeded := seededAppointments()
	adapter := NewAppointmentAdapter(store)

	got, err := adapter.GetAppointment(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Reason != "Antenatal check" || got.Notes != "bring scan" || got.MinutesDuration != 30 {
		t.Errorf("unexpected mapping %+v", got)
	}
	if !prenatal.IsPrenatal(*got) {
		t.Error("expected mapped appointment to count as prenatal")
	}

	list, err := adapter.ListAppointments(context.Background(), seeded.PatientID, seeded.HospitalID)
	if err != nil || len(list) != 1 || list[0].ID != seeded.ID {
		t.Errorf("expected the seeded appointment, got %v, %v", list, err)
	}

	if _, err := adapter.GetAppointment(context.Background(), uuid.New()); !errors.Is(err, prenatal.ErrResourceNotFound) {
		t.Errorf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestAppointmentAdapter_ApplyChange(t *testing.T) {
	store, seeded := seededAppointments()
	adapter := NewAppointmentAdapter(store)
	staff := uuid.New()
	start := time.Date(2024, 4, 10, 11, 0, 0, 0, time.UTC)

	got, err := adapter.ApplyChange(context.Background(), prenatal.AppointmentChange{
		AppointmentID:   seeded.ID,
		Start:           start,
		End:             start.Add(20 * time.Minute),
		MinutesDuration: 20,
		Status:          prenatal.StatusRescheduled,
		StaffID:         &staff,
		Notes:           "bring scan\nmoved",
		RequestedBy:     "sched-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.updated) != 1 {
		t.Fatalf("expected one update, got %d", len(store.updated))
	}
	u := store.updated[0]
	if u.VersionID != 4 {
		t.Errorf("expected update from version 3, stored version %d", u.VersionID)
	}
	if !u.StartTime.Equal(start) || u.MinutesDuration != 20 || u.Status != scheduling.StatusRescheduled {
		t.Errorf("unexpected stored appointment %+v", u)
	}
	if u.UpdatedBy == nil || *u.UpdatedBy != "sched-1" {
		t.Errorf("expected updated_by sched-1, got %v", u.UpdatedBy)
	}
	if got.StaffID == nil || *got.StaffID != staff || got.Notes != "bring scan\nmoved" {
		t.Errorf("unexpected result %+v", got)
	}
}

func TestAppointmentAdapter_ApplyChangeErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"terminal", fmt.Errorf("%w: COMPLETED", scheduling.ErrInvalidTransition), prenatal.ErrInvalidState},
		{"stale", fmt.Errorf("%w: version 3", scheduling.ErrVersionConflict), prenatal.ErrInvalidState},
		{"gone", scheduling.ErrAppointmentNotFound, prenatal.ErrResourceNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, seeded := seededAppointments()
			store.updateErr = tt.err
			_, err := NewAppointmentAdapter(store).ApplyChange(context.Background(), prenatal.AppointmentChange{
				AppointmentID: seeded.ID,
				Start:         seeded.StartTime,
				End:           seeded.EndTime,
				Status:        prenatal.StatusRescheduled,
			})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	boom := errors.New("connection reset")
	store, seeded := seededAppointments()
	store.updateErr = boom
	_, err := NewAppointmentAdapter(store).ApplyChange(context.Background(), prenatal.AppointmentChange{AppointmentID: seeded.ID})
	if !errors.Is(err, boom) || errors.Is(err, prenatal.ErrInvalidState) {
		t.Errorf("expected unclassified error to pass through, got %v", err)
	}
}

type recordingQueue struct {
	pushed []*notification.Notification
}

func (q *recordingQueue) Push(_ context.Context, n *notification.Notification) error {
	q.pushed = append(q.pushed, n)
	return nil
}

func (q *recordingQueue) PopDue(context.Context, time.Time, int) ([]*notification.Notification, error) {
	return nil, nil
}

func TestNotifierAdapter_RendersReminderTemplate(t *testing.T) {
	queue := &recordingQueue{}
	manager := notification.NewManager(queue, notification.NewTemplateEngine(), notification.NewStore())
	sendAt := time.Date(2024, 4, 12, 10, 30, 0, 0, time.UTC)
	r := prenatal.Reminder{
		AppointmentID: uuid.New(),
		PatientID:     uuid.New(),
		Recipient:     "acct-1",
		SendAt:        sendAt,
		RequestedBy:   "nurse-1",
		Data:          map[string]string{"date": "2024-04-15", "time": "10:30", "reason": "Antenatal check"},
	}

	if err := NewNotifierAdapter(manager).Enqueue(context.Background(), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queue.pushed) != 1 {
		t.Fatalf("expected one queued notification, got %d", len(queue.pushed))
	}
	n := queue.pushed[0]
	if n.Recipient != "acct-1" || !n.SendAt.Equal(sendAt) {
		t.Errorf("unexpected notification %+v", n)
	}
	if n.Body != "You have a prenatal appointment on 2024-04-15 at 10:30 (Antenatal check). Please contact the clinic if you need to reschedule." {
		t.Errorf("unexpected body %q", n.Body)
	}
	if n.Type != notification.TypeSMS {
		t.Errorf("expected template channel sms, got %s", n.Type)
	}
	if n.Metadata["appointment_id"] != r.AppointmentID.String() || n.Metadata["requested_by"] != "nurse-1" {
		t.Errorf("unexpected metadata %v", n.Metadata)
	}
}

func TestNotifierAdapter_NoRecipient(t *testing.T) {
	manager := notification.NewManager(&recordingQueue{}, notification.NewTemplateEngine(), notification.NewStore())
	err := NewNotifierAdapter(manager).Enqueue(context.Background(), prenatal.Reminder{})
	if !errors.Is(err, prenatal.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
