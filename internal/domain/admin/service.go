package admin

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	orgs OrganizationRepository
}

func NewService(orgs OrganizationRepository) *Service {
	return &Service{orgs: orgs}
}

// -- Organization --

func (s *Service) CreateOrganization(ctx context.Context, org *Organization) error {
	if org.Name == "" {
		return fmt.Errorf("organization name is required")
	}
	if org.TypeCode == "" {
		org.TypeCode = TypeHospital
	}
	if !validTypeCodes[org.TypeCode] {
		return fmt.Errorf("invalid organization type: %s", org.TypeCode)
	}
	if org.TypeCode == TypeClinic && org.ParentOrgID == nil {
		return fmt.Errorf("parent_org_id is required for a clinic")
	}
	org.Active = true
	return s.orgs.Create(ctx, org)
}

func (s *Service) GetOrganization(ctx context.Context, id uuid.UUID) (*Organization, error) {
	return s.orgs.GetByID(ctx, id)
}

func (s *Service) UpdateOrganization(ctx context.Context, org *Organization) error {
	if org.Name == "" {
		return fmt.Errorf("organization name is required")
	}
	if org.TypeCode != "" && !validTypeCodes[org.TypeCode] {
		return fmt.Errorf("invalid organization type: %s", org.TypeCode)
	}
	return s.orgs.Update(ctx, org)
}

func (s *Service) ListOrganizations(ctx context.Context, limit, offset int) ([]*Organization, int, error) {
	return s.orgs.List(ctx, limit, offset)
}

// HospitalExists reports ErrOrganizationNotFound unless id names an active
// organization that can host appointments.
func (s *Service) HospitalExists(ctx context.Context, id uuid.UUID) error {
	org, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !org.Active {
		return fmt.Errorf("%w: %s is inactive", ErrOrganizationNotFound, id)
	}
	return nil
}
