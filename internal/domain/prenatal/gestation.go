package prenatal

import (
	"fmt"
	"time"
)

const (
	// PregnancyLengthDays is the conventional LMP-to-EDD span.
	PregnancyLengthDays = 280
	daysPerWeek         = 7
)

// GestationalAge is the elapsed time since LMP at a reference date.
type GestationalAge struct {
	Weeks int       `json:"weeks"`
	Days  int       `json:"days"`
	EDD   time.Time `json:"edd"`
}

// CalculateGestationalAge returns completed weeks and the remaining day of
// week since lmp, measured at now, plus the estimated due date. Both inputs
// are reduced to calendar dates first.
func CalculateGestationalAge(lmp, now time.Time) (GestationalAge, error) {
	if lmp.IsZero() {
		return GestationalAge{}, fmt.Errorf("%w: lmp is required", ErrInvalidInput)
	}
	if now.IsZero() {
		return GestationalAge{}, fmt.Errorf("%w: reference date is required", ErrInvalidInput)
	}
	start := dateOf(lmp)
	ref := dateOf(now)
	if start.After(ref) {
		return GestationalAge{}, fmt.Errorf("%w: lmp %s is after reference date %s",
			ErrInvalidInput, start.Format(dateLayout), ref.Format(dateLayout))
	}

	elapsed := daysBetween(start, ref)
	if elapsed < 0 {
		elapsed = 0
	}
	return GestationalAge{
		Weeks: elapsed / daysPerWeek,
		Days:  elapsed % daysPerWeek,
		EDD:   EstimatedDueDate(lmp),
	}, nil
}

// EstimatedDueDate is LMP + 280 days.
func EstimatedDueDate(lmp time.Time) time.Time {
	return dateOf(lmp).AddDate(0, 0, PregnancyLengthDays)
}

// WeekDate returns the calendar date at which a given gestational week starts.
func WeekDate(lmp time.Time, week int) time.Time {
	return dateOf(lmp).AddDate(0, 0, week*daysPerWeek)
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// dateOf truncates t to its calendar date, expressed at UTC midnight so that
// day arithmetic never crosses a DST boundary.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(dateOf(to).Sub(dateOf(from)) / (24 * time.Hour))
}
