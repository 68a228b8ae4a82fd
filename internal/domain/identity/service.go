package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNoAccount is returned when a patient has no portal account to address.
var ErrNoAccount = errors.New("patient has no account")

type Service struct {
	patients      PatientRepository
	practitioners PractitionerRepository
}

func NewService(patients PatientRepository, practitioners PractitionerRepository) *Service {
	return &Service{patients: patients, practitioners: practitioners}
}

// -- Patient --

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	if p.MRN == "" {
		return fmt.Errorf("mrn is required")
	}
	p.Active = true
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetPatientByMRN(ctx context.Context, mrn string) (*Patient, error) {
	return s.patients.GetByMRN(ctx, mrn)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

// PatientAccount returns the account a patient's notifications go to.
// Inactive patients and patients without an account yield ErrNoAccount.
func (s *Service) PatientAccount(ctx context.Context, id uuid.UUID) (string, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !p.Active || p.AccountID == nil || *p.AccountID == "" {
		return "", fmt.Errorf("%w: %s", ErrNoAccount, id)
	}
	return *p.AccountID, nil
}

// -- Practitioner --

func (s *Service) CreatePractitioner(ctx context.Context, p *Practitioner) error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	if !validPractitionerRoles[p.Role] {
		return fmt.Errorf("invalid practitioner role: %q", p.Role)
	}
	p.Active = true
	return s.practitioners.Create(ctx, p)
}

func (s *Service) GetPractitioner(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	return s.practitioners.GetByID(ctx, id)
}

// ActivePractitioner returns ErrPractitionerNotFound unless the practitioner
// exists and is active.
func (s *Service) ActivePractitioner(ctx context.Context, id uuid.UUID) error {
	p, err := s.practitioners.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !p.Active {
		return fmt.Errorf("%w: %s is inactive", ErrPractitionerNotFound, id)
	}
	return nil
}

func (s *Service) ListPractitionersByHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Practitioner, int, error) {
	return s.practitioners.ListByHospital(ctx, hospitalID, limit, offset)
}
