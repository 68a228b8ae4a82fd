package prenatal

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LapseDays is the longest gap between prenatal visits tolerated for a
// low-risk pregnancy before the history is flagged for review.
const LapseDays = 35

// LapseAlert flags a low-risk pregnancy whose visits have stopped.
const LapseAlert = "Review history: no prenatal visit recorded in the last 35 days"

var prenatalReasonTerms = []string{"prenatal", "antenatal", "obstetric", "pregnan"}

var inactiveStatuses = map[string]bool{
	StatusCancelled:      true,
	StatusNoShow:         true,
	StatusEnteredInError: true,
}

// IsPrenatal reports whether an appointment counts toward the antenatal
// schedule.
func IsPrenatal(a Appointment) bool {
	if inactiveStatuses[strings.ToUpper(a.Status)] {
		return false
	}
	if strings.EqualFold(a.Category, CategoryPrenatal) {
		return true
	}
	reason := strings.ToLower(a.Reason)
	for _, term := range prenatalReasonTerms {
		if strings.Contains(reason, term) {
			return true
		}
	}
	return false
}

// Reconcile links checkpoints to existing prenatal appointments and returns
// alerts about gaps. Checkpoints already linked keep their appointment, so
// running it again over the same inputs changes nothing.
func Reconcile(checkpoints []*VisitCheckpoint, appts []Appointment, now time.Time, highRisk bool) []string {
	candidates := make([]Appointment, 0, len(appts))
	for _, a := range appts {
		if IsPrenatal(a) {
			candidates = append(candidates, a)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].Start.Equal(candidates[j].Start) {
			return candidates[i].Start.Before(candidates[j].Start)
		}
		return candidates[i].ID.String() < candidates[j].ID.String()
	})

	used := make(map[uuid.UUID]bool)
	for _, c := range checkpoints {
		if c.Scheduled && c.AppointmentID != nil {
			used[*c.AppointmentID] = true
		}
	}

	for _, c := range checkpoints {
		if c.Scheduled {
			continue
		}
		best := -1
		bestDist := 0
		for i, a := range candidates {
			if used[a.ID] || !c.InWindow(a.Start) {
				continue
			}
			dist := absInt(daysBetween(c.TargetDate, a.Start))
			// candidates are ordered by start, so the first hit wins ties
			if best < 0 || dist < bestDist {
				best, bestDist = i, dist
			}
		}
		if best >= 0 {
			used[candidates[best].ID] = true
			c.link(candidates[best].ID)
		}
	}

	var alerts []string
	if !highRisk && lapsed(checkpoints, candidates, now) {
		alerts = append(alerts, LapseAlert)
	}
	today := dateOf(now)
	for _, c := range checkpoints {
		if !c.Scheduled && c.TargetDate.Before(today) {
			alerts = append(alerts, fmt.Sprintf(
				"Missed prenatal visit: week %d (%s) is past its target date and not scheduled", c.Week, c.Type))
		}
	}
	return alerts
}

// lapsed reports whether more than LapseDays have passed since the last
// linked visit, or since the initial intake target when none happened yet.
func lapsed(checkpoints []*VisitCheckpoint, candidates []Appointment, now time.Time) bool {
	today := dateOf(now)
	starts := make(map[uuid.UUID]time.Time, len(candidates))
	for _, a := range candidates {
		starts[a.ID] = a.Start
	}

	var last time.Time
	var intake time.Time
	for _, c := range checkpoints {
		if c.Type == VisitInitialIntake {
			intake = c.TargetDate
		}
		if !c.Scheduled || c.AppointmentID == nil {
			continue
		}
		start, ok := starts[*c.AppointmentID]
		if !ok {
			continue
		}
		d := dateOf(start)
		if d.After(today) {
			continue
		}
		if d.After(last) {
			last = d
		}
	}

	ref := last
	if ref.IsZero() {
		ref = intake
	}
	if ref.IsZero() || ref.After(today) {
		return false
	}
	return daysBetween(ref, today) > LapseDays
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
