package prenatal

import (
	"time"

	"github.com/google/uuid"
)

// VisitType classifies a recommended antenatal visit.
type VisitType string

const (
	VisitInitialIntake     VisitType = "INITIAL_INTAKE"
	VisitRoutine           VisitType = "ROUTINE"
	VisitGrowthScan        VisitType = "GROWTH_SCAN"
	VisitSpecialistConsult VisitType = "SPECIALIST_CONSULT"
	VisitLaborWatch        VisitType = "LABOR_WATCH"
)

// Appointment statuses the engine reads or writes.
const (
	StatusScheduled      = "SCHEDULED"
	StatusConfirmed      = "CONFIRMED"
	StatusCompleted      = "COMPLETED"
	StatusCancelled      = "CANCELLED"
	StatusNoShow         = "NO_SHOW"
	StatusRescheduled    = "RESCHEDULED"
	StatusEnteredInError = "ENTERED_IN_ERROR"
)

// CategoryPrenatal marks an appointment booked as an antenatal visit.
const CategoryPrenatal = "prenatal"

// PregnancyContext is the input of a schedule computation.
type PregnancyContext struct {
	PatientID  uuid.UUID `json:"patient_id"`
	HospitalID uuid.UUID `json:"hospital_id"`
	LMP        time.Time `json:"lmp"`
	HighRisk   bool      `json:"high_risk"`
	Now        time.Time `json:"now"`
}

// VisitCheckpoint is one recommended visit in a generated schedule.
type VisitCheckpoint struct {
	Week          int        `json:"week"`
	Type          VisitType  `json:"type"`
	TargetDate    time.Time  `json:"target_date"`
	WindowStart   time.Time  `json:"window_start"`
	WindowEnd     time.Time  `json:"window_end"`
	Scheduled     bool       `json:"scheduled"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
}

// InWindow reports whether the calendar date of t falls inside the
// checkpoint's tolerance window.
func (c *VisitCheckpoint) InWindow(t time.Time) bool {
	d := dateOf(t)
	return !d.Before(c.WindowStart) && !d.After(c.WindowEnd)
}

func (c *VisitCheckpoint) link(id uuid.UUID) {
	if c.Scheduled {
		return
	}
	linked := id
	c.Scheduled = true
	c.AppointmentID = &linked
}

// ScheduleResult is the output of BuildSchedule.
type ScheduleResult struct {
	PatientID       uuid.UUID          `json:"patient_id"`
	HospitalID      uuid.UUID          `json:"hospital_id"`
	GestationalWeek int                `json:"gestational_week"`
	GestationalDay  int                `json:"gestational_day"`
	EDD             time.Time          `json:"edd"`
	HighRisk        bool               `json:"high_risk"`
	Checkpoints     []*VisitCheckpoint `json:"checkpoints"`
	Alerts          []string           `json:"alerts"`
}

// Outstanding returns the checkpoints that still need booking.
func (r *ScheduleResult) Outstanding() []*VisitCheckpoint {
	var out []*VisitCheckpoint
	for _, c := range r.Checkpoints {
		if !c.Scheduled {
			out = append(out, c)
		}
	}
	return out
}

// Appointment is the engine's view of a booked appointment.
type Appointment struct {
	ID              uuid.UUID  `json:"id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	HospitalID      uuid.UUID  `json:"hospital_id"`
	StaffID         *uuid.UUID `json:"staff_id,omitempty"`
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end"`
	MinutesDuration int        `json:"minutes_duration"`
	Status          string     `json:"status"`
	Reason          string     `json:"reason,omitempty"`
	Category        string     `json:"category,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

// Duration returns the booked length, preferring the explicit minute count.
func (a *Appointment) Duration() time.Duration {
	if a.MinutesDuration > 0 {
		return time.Duration(a.MinutesDuration) * time.Minute
	}
	if a.End.After(a.Start) {
		return a.End.Sub(a.Start)
	}
	return 0
}

// RescheduleRequest asks to move an existing appointment.
type RescheduleRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	// NewDate is a calendar date in 2006-01-02 form.
	NewDate string `json:"new_date"`
	// NewStartTime is a wall-clock time in 15:04 form.
	NewStartTime string `json:"new_start_time"`
	// DurationMinutes keeps the original length when nil.
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	StaffID         *uuid.UUID `json:"staff_id,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	RequestedBy     string     `json:"requested_by,omitempty"`
	Now             time.Time  `json:"-"`
}

// ReminderRequest asks for a reminder some days before an appointment.
type ReminderRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	DaysBefore    int       `json:"days_before"`
	RequestedBy   string    `json:"requested_by,omitempty"`
	Now           time.Time `json:"-"`
}

// AppointmentChange is the mutation handed to the appointment store.
type AppointmentChange struct {
	AppointmentID   uuid.UUID
	Start           time.Time
	End             time.Time
	MinutesDuration int
	Status          string
	StaffID         *uuid.UUID
	Notes           string
	RequestedBy     string
}

// Reminder is the notification handed to the notifier.
type Reminder struct {
	AppointmentID uuid.UUID
	PatientID     uuid.UUID
	Recipient     string
	Subject       string
	Body          string
	SendAt        time.Time
	RequestedBy   string
	Data          map[string]string
}
