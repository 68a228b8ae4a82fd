package obstetrics

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrPregnancyNotFound = errors.New("pregnancy not found")

type PregnancyRepository interface {
	Create(ctx context.Context, p *Pregnancy) error
	GetByID(ctx context.Context, id uuid.UUID) (*Pregnancy, error)
	Update(ctx context.Context, p *Pregnancy) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Pregnancy, int, error)
}
