package prenatal

import (
	"context"
	"fmt"
)

// ReminderTemplateID names the notification template that renders a
// prenatal reminder from Reminder.Data.
const ReminderTemplateID = "prenatal-reminder"

// CreateReminder enqueues one reminder for an upcoming appointment, due
// DaysBefore days ahead of it.
func (e *Engine) CreateReminder(ctx context.Context, req ReminderRequest) error {
	if req.DaysBefore <= 0 {
		return fmt.Errorf("%w: days_before must be a positive number of days", ErrInvalidInput)
	}

	appt, err := e.appointments.GetAppointment(ctx, req.AppointmentID)
	if err != nil {
		return fmt.Errorf("appointment %s: %w", req.AppointmentID, err)
	}
	if !appt.Start.After(req.Now) {
		return fmt.Errorf("%w: cannot create reminders for appointments in the past", ErrInvalidState)
	}

	account, err := e.directory.PatientAccount(ctx, appt.PatientID)
	if err != nil {
		return fmt.Errorf("patient %s: %w", appt.PatientID, err)
	}

	sendAt := appt.Start.AddDate(0, 0, -req.DaysBefore)
	if sendAt.Before(req.Now) {
		sendAt = req.Now
	}

	start := appt.Start.In(e.location)
	reason := appt.Reason
	if reason == "" {
		reason = "prenatal visit"
	}
	data := map[string]string{
		"date":   start.Format(dateLayout),
		"time":   start.Format(timeLayout),
		"reason": reason,
	}
	r := Reminder{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		Recipient:     account,
		Subject:       "Prenatal appointment reminder",
		Body: fmt.Sprintf("You have a prenatal appointment on %s at %s (%s).",
			data["date"], data["time"], reason),
		SendAt:      sendAt,
		RequestedBy: req.RequestedBy,
		Data:        data,
	}
	if err := e.notifier.Enqueue(ctx, r); err != nil {
		return fmt.Errorf("enqueue reminder: %w", err)
	}

	e.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Str("patient_id", appt.PatientID.String()).
		Time("send_at", sendAt).
		Int("days_before", req.DaysBefore).
		Msg("prenatal reminder enqueued")

	return nil
}

