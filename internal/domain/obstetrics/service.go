package obstetrics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/antenatal/internal/domain/prenatal"
)

type Service struct {
	pregnancies PregnancyRepository
}

func NewService(pregnancies PregnancyRepository) *Service {
	return &Service{pregnancies: pregnancies}
}

var validPregnancyStatuses = map[string]bool{
	"active": true, "completed": true, "ectopic": true, "molar": true,
	"miscarriage": true, "stillbirth": true, "terminated": true, "unknown": true,
}

func (s *Service) CreatePregnancy(ctx context.Context, p *Pregnancy) error {
	if p.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if p.ManagingOrganizationID == uuid.Nil {
		return fmt.Errorf("managing_organization_id is required")
	}
	if p.LastMenstrualPeriod.IsZero() {
		return fmt.Errorf("last_menstrual_period is required")
	}
	if p.LastMenstrualPeriod.After(time.Now()) {
		return fmt.Errorf("last_menstrual_period cannot be in the future")
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	if !validPregnancyStatuses[p.Status] {
		return fmt.Errorf("invalid pregnancy status: %s", p.Status)
	}
	if p.RiskLevel != nil && !validRiskLevels[*p.RiskLevel] {
		return fmt.Errorf("invalid risk level: %s", *p.RiskLevel)
	}
	if p.EstimatedDueDate == nil {
		edd := prenatal.EstimatedDueDate(p.LastMenstrualPeriod)
		p.EstimatedDueDate = &edd
	}
	return s.pregnancies.Create(ctx, p)
}

func (s *Service) GetPregnancy(ctx context.Context, id uuid.UUID) (*Pregnancy, error) {
	return s.pregnancies.GetByID(ctx, id)
}

func (s *Service) UpdatePregnancy(ctx context.Context, p *Pregnancy) error {
	if p.Status != "" && !validPregnancyStatuses[p.Status] {
		return fmt.Errorf("invalid pregnancy status: %s", p.Status)
	}
	if p.RiskLevel != nil && !validRiskLevels[*p.RiskLevel] {
		return fmt.Errorf("invalid risk level: %s", *p.RiskLevel)
	}
	return s.pregnancies.Update(ctx, p)
}

func (s *Service) ListPregnanciesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Pregnancy, int, error) {
	return s.pregnancies.ListByPatient(ctx, patientID, limit, offset)
}
