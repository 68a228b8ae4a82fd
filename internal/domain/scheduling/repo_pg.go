package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/antenatal/internal/platform/db"
)

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const apptCols = `id, patient_id, hospital_id, practitioner_id, status, category,
	reason_code, reason_display, start_time, end_time, minutes_duration,
	note, cancellation_reason, updated_by, version_id, created_at, updated_at`

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.HospitalID, &a.PractitionerID, &a.Status, &a.Category,
		&a.ReasonCode, &a.ReasonDisplay, &a.StartTime, &a.EndTime, &a.MinutesDuration,
		&a.Note, &a.CancellationReason, &a.UpdatedBy, &a.VersionID, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.VersionID = 1
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (id, patient_id, hospital_id, practitioner_id, status, category,
			reason_code, reason_display, start_time, end_time, minutes_duration,
			note, cancellation_reason, updated_by, version_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.HospitalID, a.PractitionerID, a.Status, a.Category,
		a.ReasonCode, a.ReasonDisplay, a.StartTime, a.EndTime, a.MinutesDuration,
		a.Note, a.CancellationReason, a.UpdatedBy, a.VersionID,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppt(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointment SET practitioner_id=$3, status=$4, category=$5,
			reason_code=$6, reason_display=$7, start_time=$8, end_time=$9, minutes_duration=$10,
			note=$11, cancellation_reason=$12, updated_by=$13,
			version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND version_id = $2
		RETURNING version_id, updated_at`,
		a.ID, a.VersionID, a.PractitionerID, a.Status, a.Category,
		a.ReasonCode, a.ReasonDisplay, a.StartTime, a.EndTime, a.MinutesDuration,
		a.Note, a.CancellationReason, a.UpdatedBy,
	).Scan(&a.VersionID, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the row is gone or someone else bumped the version.
		if _, getErr := r.GetByID(ctx, a.ID); errors.Is(getErr, ErrAppointmentNotFound) {
			return ErrAppointmentNotFound
		}
		return fmt.Errorf("%w: %s at version %d", ErrVersionConflict, a.ID, a.VersionID)
	}
	return err
}

func (r *appointmentRepoPG) ListByPatientAndHospital(ctx context.Context, patientID, hospitalID uuid.UUID) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+apptCols+` FROM appointment
		WHERE patient_id = $1 AND hospital_id = $2 ORDER BY start_time, id`, patientID, hospitalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+apptCols+` FROM appointment
		WHERE patient_id = $1 ORDER BY start_time DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}
