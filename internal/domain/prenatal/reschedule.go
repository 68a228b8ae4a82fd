package prenatal

import (
	"context"
	"fmt"
	"time"
)

// Reschedule moves an existing appointment to a new date and time. The
// appointment store performs the write; its result is returned as is.
func (e *Engine) Reschedule(ctx context.Context, req RescheduleRequest) (*Appointment, error) {
	appt, err := e.appointments.GetAppointment(ctx, req.AppointmentID)
	if err != nil {
		return nil, fmt.Errorf("appointment %s: %w", req.AppointmentID, err)
	}

	start, err := combineDateTime(req.NewDate, req.NewStartTime, e.location)
	if err != nil {
		return nil, err
	}
	if start.Before(req.Now) {
		return nil, fmt.Errorf("%w: cannot reschedule into the past", ErrInvalidState)
	}
	duration := appt.Duration()
	if req.DurationMinutes != nil {
		if *req.DurationMinutes <= 0 {
			return nil, fmt.Errorf("%w: duration_minutes must be positive", ErrInvalidInput)
		}
		duration = time.Duration(*req.DurationMinutes) * time.Minute
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: appointment %s has no duration to preserve", ErrInvalidInput, appt.ID)
	}

	staffID := appt.StaffID
	if req.StaffID != nil {
		if err := e.directory.StaffExists(ctx, *req.StaffID); err != nil {
			return nil, fmt.Errorf("staff %s: %w", *req.StaffID, err)
		}
		staffID = req.StaffID
	}

	change := AppointmentChange{
		AppointmentID:   appt.ID,
		Start:           start,
		End:             start.Add(duration),
		MinutesDuration: int(duration / time.Minute),
		Status:          StatusRescheduled,
		StaffID:         staffID,
		Notes:           appendNotes(appt.Notes, req.Notes),
		RequestedBy:     req.RequestedBy,
	}
	updated, err := e.updater.ApplyChange(ctx, change)
	if err != nil {
		return nil, fmt.Errorf("apply reschedule: %w", err)
	}

	e.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Time("from", appt.Start).
		Time("to", start).
		Str("requested_by", req.RequestedBy).
		Msg("prenatal appointment rescheduled")

	return updated, nil
}

func combineDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: new_date must be YYYY-MM-DD: %q", ErrInvalidInput, date)
	}
	c, err := time.Parse(timeLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: new_start_time must be HH:MM: %q", ErrInvalidInput, clock)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, loc), nil
}

func appendNotes(original, extra string) string {
	switch {
	case extra == "":
		return original
	case original == "":
		return extra
	default:
		return original + "\n" + extra
	}
}
