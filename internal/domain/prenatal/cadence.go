package prenatal

import "sort"

// Cadence boundaries, in gestational weeks.
const (
	FirstVisitWeek     = 8
	MonthlyUntilWeek   = 28
	BiweeklyUntilWeek  = 36
	LaborWatchWeek     = 40
	GrowthScanWeek     = 20
	HighRiskWeeklyFrom = 28

	// ToleranceDays is the +/- window used when matching appointments.
	ToleranceDays = 3
)

// HighRiskAlert is always attached to high-risk schedules.
const HighRiskAlert = "High-risk pregnancy: weekly monitoring required from week 28"

// specialistWeeks are the trimester boundaries that get a consult when the
// pregnancy is high risk.
var specialistWeeks = []int{13, 27, 36}

// PlanCheckpoints lays out the recommended visits for a pregnancy. Only
// checkpoints at or after currentWeek are returned, except the initial
// intake, which is always present so reconciliation can confirm it happened.
func PlanCheckpoints(pc PregnancyContext, currentWeek int) ([]*VisitCheckpoint, []string) {
	types := make(map[int]VisitType)

	for w := FirstVisitWeek; w <= MonthlyUntilWeek; w += 4 {
		types[w] = VisitRoutine
	}
	if pc.HighRisk {
		for w := HighRiskWeeklyFrom; w <= LaborWatchWeek; w++ {
			types[w] = VisitRoutine
		}
	} else {
		for w := MonthlyUntilWeek; w <= BiweeklyUntilWeek; w += 2 {
			types[w] = VisitRoutine
		}
		for w := BiweeklyUntilWeek; w <= LaborWatchWeek; w++ {
			types[w] = VisitRoutine
		}
	}

	types[FirstVisitWeek] = VisitInitialIntake
	types[GrowthScanWeek] = VisitGrowthScan
	types[LaborWatchWeek] = VisitLaborWatch

	// A consult replaces whatever regular visit shares its week.
	if pc.HighRisk {
		for _, w := range specialistWeeks {
			types[w] = VisitSpecialistConsult
		}
	}

	weeks := make([]int, 0, len(types))
	for w := range types {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)

	var checkpoints []*VisitCheckpoint
	for _, w := range weeks {
		t := types[w]
		if w < currentWeek && t != VisitInitialIntake {
			continue
		}
		checkpoints = append(checkpoints, newCheckpoint(pc, w, t))
	}

	var alerts []string
	if pc.HighRisk {
		alerts = append(alerts, HighRiskAlert)
	}
	return checkpoints, alerts
}

func newCheckpoint(pc PregnancyContext, week int, t VisitType) *VisitCheckpoint {
	target := WeekDate(pc.LMP, week)
	return &VisitCheckpoint{
		Week:        week,
		Type:        t,
		TargetDate:  target,
		WindowStart: target.AddDate(0, 0, -ToleranceDays),
		WindowEnd:   target.AddDate(0, 0, ToleranceDays),
	}
}
