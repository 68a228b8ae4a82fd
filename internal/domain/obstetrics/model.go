package obstetrics

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/antenatal/internal/domain/prenatal"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Risk levels. Only RiskHigh changes the visit cadence.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

var validRiskLevels = map[string]bool{RiskLow: true, RiskMedium: true, RiskHigh: true}

// Pregnancy maps to the pregnancy table.
type Pregnancy struct {
	ID                     uuid.UUID  `db:"id" json:"id"`
	PatientID              uuid.UUID  `db:"patient_id" json:"patient_id"`
	ManagingOrganizationID uuid.UUID  `db:"managing_organization_id" json:"managing_organization_id"`
	Status                 string     `db:"status" json:"status"`
	LastMenstrualPeriod    time.Time  `db:"last_menstrual_period" json:"last_menstrual_period"`
	EstimatedDueDate       *time.Time `db:"estimated_due_date" json:"estimated_due_date,omitempty"`
	Gravida                *int       `db:"gravida" json:"gravida,omitempty"`
	Para                   *int       `db:"para" json:"para,omitempty"`
	RiskLevel              *string    `db:"risk_level" json:"risk_level,omitempty"`
	RiskFactors            *string    `db:"risk_factors" json:"risk_factors,omitempty"`
	PrimaryProviderID      *uuid.UUID `db:"primary_provider_id" json:"primary_provider_id,omitempty"`
	Note                   *string    `db:"note" json:"note,omitempty"`
	OutcomeDate            *time.Time `db:"outcome_date" json:"outcome_date,omitempty"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updated_at"`
}

func (p *Pregnancy) HighRisk() bool {
	return p.RiskLevel != nil && strings.EqualFold(*p.RiskLevel, RiskHigh)
}

// ScheduleContext is the input for computing this pregnancy's visit
// schedule as of now.
func (p *Pregnancy) ScheduleContext(now time.Time) prenatal.PregnancyContext {
	return prenatal.PregnancyContext{
		PatientID:  p.PatientID,
		HospitalID: p.ManagingOrganizationID,
		LMP:        p.LastMenstrualPeriod,
		HighRisk:   p.HighRisk(),
		Now:        now,
	}
}
