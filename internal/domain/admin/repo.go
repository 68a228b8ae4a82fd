package admin

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrOrganizationNotFound = errors.New("organization not found")

// OrganizationRepository defines the persistence interface for organizations.
type OrganizationRepository interface {
	Create(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	Update(ctx context.Context, org *Organization) error
	List(ctx context.Context, limit, offset int) ([]*Organization, int, error)
}
