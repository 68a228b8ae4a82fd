package prenatal

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

var testLMP = date(2023, 9, 4)

func prenatalAppt(start time.Time) Appointment {
	return Appointment{
		ID:              uuid.New(),
		Start:           start,
		End:             start.Add(30 * time.Minute),
		MinutesDuration: 30,
		Status:          StatusScheduled,
		Category:        CategoryPrenatal,
	}
}

func checkpointAt(week int) *VisitCheckpoint {
	return newCheckpoint(PregnancyContext{LMP: testLMP}, week, VisitRoutine)
}

func linkedTo(c *VisitCheckpoint) uuid.UUID {
	if c.AppointmentID == nil {
		return uuid.Nil
	}
	return *c.AppointmentID
}

func TestIsPrenatal(t *testing.T) {
	tests := []struct {
		name string
		a    Appointment
		want bool
	}{
		{"category", Appointment{Category: "prenatal", Status: StatusScheduled}, true},
		{"category case", Appointment{Category: "Prenatal", Status: StatusConfirmed}, true},
		{"antenatal reason", Appointment{Reason: "Antenatal checkup", Status: StatusScheduled}, true},
		{"obstetric reason", Appointment{Reason: "Obstetric review", Status: StatusCompleted}, true},
		{"pregnancy reason", Appointment{Reason: "pregnancy follow-up", Status: StatusRescheduled}, true},
		{"unrelated", Appointment{Reason: "dental cleaning", Status: StatusScheduled}, false},
		{"cancelled", Appointment{Category: "prenatal", Status: StatusCancelled}, false},
		{"no show", Appointment{Category: "prenatal", Status: StatusNoShow}, false},
		{"entered in error", Appointment{Category: "prenatal", Status: "entered_in_error"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPrenatal(tt.a); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestReconcile_ClosestWins(t *testing.T) {
	c := checkpointAt(12)
	far := prenatalAppt(c.TargetDate.AddDate(0, 0, 2).Add(9 * time.Hour))
	near := prenatalAppt(c.TargetDate.AddDate(0, 0, -1).Add(14 * time.Hour))
	outside := prenatalAppt(c.TargetDate.AddDate(0, 0, 4))

	Reconcile([]*VisitCheckpoint{c}, []Appointment{far, outside, near}, date(2023, 11, 1), false)
	if !c.Scheduled || linkedTo(c) != near.ID {
		t.Errorf("expected link to nearest appointment, got %v", c.AppointmentID)
	}
}

func TestReconcile_TieBreaks(t *testing.T) {
	c := checkpointAt(12)
	early := prenatalAppt(c.TargetDate.AddDate(0, 0, -2).Add(10 * time.Hour))
	late := prenatalAppt(c.TargetDate.AddDate(0, 0, 2).Add(8 * time.Hour))
	Reconcile([]*VisitCheckpoint{c}, []Appointment{late, early}, date(2023, 11, 1), false)
	if linkedTo(c) != early.ID {
		t.Error("expected equal distance to favour the earlier start")
	}

	c = checkpointAt(12)
	start := c.TargetDate.Add(9 * time.Hour)
	a := prenatalAppt(start)
	b := prenatalAppt(start)
	lower := a
	if b.ID.String() < a.ID.String() {
		lower = b
	}
	Reconcile([]*VisitCheckpoint{c}, []Appointment{a, b}, date(2023, 11, 1), false)
	if linkedTo(c) != lower.ID {
		t.Error("expected identical starts to favour the lower id")
	}
}

func TestReconcile_EachAppointmentLinksOnce(t *testing.T) {
	first := checkpointAt(12)
	second := newCheckpoint(PregnancyContext{LMP: testLMP.AddDate(0, 0, 2)}, 12, VisitRoutine)
	a := prenatalAppt(first.TargetDate.AddDate(0, 0, 1))

	Reconcile([]*VisitCheckpoint{first, second}, []Appointment{a}, date(2023, 11, 1), false)
	if !first.Scheduled {
		t.Fatal("expected first checkpoint to be linked")
	}
	if second.Scheduled {
		t.Error("expected the appointment to be used only once")
	}
}

func TestReconcile_SkipsInactiveAndUnrelated(t *testing.T) {
	c := checkpointAt(12)
	cancelled := prenatalAppt(c.TargetDate)
	cancelled.Status = StatusCancelled
	dental := prenatalAppt(c.TargetDate)
	dental.Category = "dental"

	Reconcile([]*VisitCheckpoint{c}, []Appointment{cancelled, dental}, date(2023, 11, 1), false)
	if c.Scheduled {
		t.Error("expected no link to cancelled or unrelated appointments")
	}

	byReason := prenatalAppt(c.TargetDate)
	byReason.Category = ""
	byReason.Reason = "antenatal visit"
	Reconcile([]*VisitCheckpoint{c}, []Appointment{cancelled, dental, byReason}, date(2023, 11, 1), false)
	if linkedTo(c) != byReason.ID {
		t.Error("expected reason match to link")
	}
}

func TestReconcile_KeepsExistingLinks(t *testing.T) {
	c := checkpointAt(12)
	a := prenatalAppt(c.TargetDate)
	c.link(a.ID)

	other := newCheckpoint(PregnancyContext{LMP: testLMP.AddDate(0, 0, 1)}, 12, VisitRoutine)
	b := prenatalAppt(c.TargetDate.AddDate(0, 0, 1))

	Reconcile([]*VisitCheckpoint{other, c}, []Appointment{a, b}, date(2023, 11, 1), false)
	if linkedTo(c) != a.ID {
		t.Error("expected existing link to be kept")
	}
	if linkedTo(other) != b.ID {
		t.Errorf("expected reserved appointment to be skipped, got %v", other.AppointmentID)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	pc := PregnancyContext{LMP: testLMP, Now: date(2024, 4, 1)}
	cps, _ := PlanCheckpoints(pc, 30)
	appts := []Appointment{
		prenatalAppt(WeekDate(testLMP, 8).AddDate(0, 0, 1)),
		prenatalAppt(WeekDate(testLMP, 32).AddDate(0, 0, -1)),
		prenatalAppt(WeekDate(testLMP, 34)),
	}

	firstAlerts := Reconcile(cps, appts, pc.Now, false)
	snapshot := make([]uuid.UUID, len(cps))
	for i, c := range cps {
		snapshot[i] = linkedTo(c)
	}
	secondAlerts := Reconcile(cps, appts, pc.Now, false)

	for i, c := range cps {
		if linkedTo(c) != snapshot[i] {
			t.Errorf("week %d: link changed on second pass", c.Week)
		}
	}
	if strings.Join(firstAlerts, "|") != strings.Join(secondAlerts, "|") {
		t.Errorf("alerts changed: %v vs %v", firstAlerts, secondAlerts)
	}
}

func TestReconcile_Alerts(t *testing.T) {
	now := date(2024, 4, 1)
	missedIntake := fmt.Sprintf("Missed prenatal visit: week %d (%s) is past its target date and not scheduled", 8, VisitInitialIntake)

	t.Run("no history", func(t *testing.T) {
		cps, _ := PlanCheckpoints(PregnancyContext{LMP: testLMP, Now: now}, 30)
		alerts := Reconcile(cps, nil, now, false)
		if !contains(alerts, LapseAlert) {
			t.Errorf("expected lapse alert, got %v", alerts)
		}
		if !contains(alerts, missedIntake) {
			t.Errorf("expected missed intake alert, got %v", alerts)
		}
	})

	t.Run("high risk has no lapse alert", func(t *testing.T) {
		cps, _ := PlanCheckpoints(PregnancyContext{LMP: testLMP, Now: now, HighRisk: true}, 30)
		alerts := Reconcile(cps, nil, now, true)
		if contains(alerts, LapseAlert) {
			t.Errorf("unexpected lapse alert %v", alerts)
		}
		if !contains(alerts, missedIntake) {
			t.Errorf("expected missed intake alert, got %v", alerts)
		}
	})

	t.Run("recent visit", func(t *testing.T) {
		cps, _ := PlanCheckpoints(PregnancyContext{LMP: testLMP, Now: now}, 30)
		appts := []Appointment{
			prenatalAppt(WeekDate(testLMP, 8).Add(9 * time.Hour)),
			prenatalAppt(now.AddDate(0, 0, -2).Add(9 * time.Hour)),
		}
		alerts := Reconcile(cps, appts, now, false)
		if len(alerts) != 0 {
			t.Errorf("expected no alerts, got %v", alerts)
		}
	})

	t.Run("target today is not missed", func(t *testing.T) {
		cps, _ := PlanCheckpoints(PregnancyContext{LMP: testLMP, Now: now}, 30)
		alerts := Reconcile(cps, nil, now.Add(15*time.Hour), false)
		for _, a := range alerts {
			if strings.Contains(a, "week 30 ") {
				t.Errorf("week 30 is due today and must not be missed: %v", alerts)
			}
		}
	})

	t.Run("early pregnancy has no lapse", func(t *testing.T) {
		early := WeekDate(testLMP, 10)
		cps, _ := PlanCheckpoints(PregnancyContext{LMP: testLMP, Now: early}, 10)
		if alerts := Reconcile(cps, nil, early, false); contains(alerts, LapseAlert) {
			t.Errorf("unexpected lapse alert two weeks after intake: %v", alerts)
		}
	})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
