package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusScheduled      = "SCHEDULED"
	StatusConfirmed      = "CONFIRMED"
	StatusCompleted      = "COMPLETED"
	StatusCancelled      = "CANCELLED"
	StatusNoShow         = "NO_SHOW"
	StatusRescheduled    = "RESCHEDULED"
	StatusEnteredInError = "ENTERED_IN_ERROR"
)

var validAppointmentStatuses = map[string]bool{
	StatusScheduled: true, StatusConfirmed: true, StatusCompleted: true,
	StatusCancelled: true, StatusNoShow: true, StatusRescheduled: true,
	StatusEnteredInError: true,
}

// terminal statuses cannot be changed by a normal update.
var terminalStatuses = map[string]bool{
	StatusCompleted: true, StatusCancelled: true, StatusEnteredInError: true,
}

type Appointment struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	PatientID          uuid.UUID  `db:"patient_id" json:"patient_id"`
	HospitalID         uuid.UUID  `db:"hospital_id" json:"hospital_id"`
	PractitionerID     *uuid.UUID `db:"practitioner_id" json:"practitioner_id,omitempty"`
	Status             string     `db:"status" json:"status"`
	Category           string     `db:"category" json:"category,omitempty"`
	ReasonCode         *string    `db:"reason_code" json:"reason_code,omitempty"`
	ReasonDisplay      *string    `db:"reason_display" json:"reason_display,omitempty"`
	StartTime          time.Time  `db:"start_time" json:"start_time"`
	EndTime            time.Time  `db:"end_time" json:"end_time"`
	MinutesDuration    int        `db:"minutes_duration" json:"minutes_duration"`
	Note               *string    `db:"note" json:"note,omitempty"`
	CancellationReason *string    `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	UpdatedBy          *string    `db:"updated_by" json:"updated_by,omitempty"`
	VersionID          int        `db:"version_id" json:"version_id"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// Reason returns the display text of the reason, falling back to the code.
func (a *Appointment) Reason() string {
	if a.ReasonDisplay != nil && *a.ReasonDisplay != "" {
		return *a.ReasonDisplay
	}
	if a.ReasonCode != nil {
		return *a.ReasonCode
	}
	return ""
}

// NoteText returns the note or an empty string.
func (a *Appointment) NoteText() string {
	if a.Note == nil {
		return ""
	}
	return *a.Note
}
