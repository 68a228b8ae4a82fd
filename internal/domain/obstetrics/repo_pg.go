package obstetrics

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/antenatal/internal/platform/db"
)

type pregnancyRepoPG struct{ pool *pgxpool.Pool }

func NewPregnancyRepoPG(pool *pgxpool.Pool) PregnancyRepository {
	return &pregnancyRepoPG{pool: pool}
}

func (r *pregnancyRepoPG) conn(ctx context.Context) db.Querier {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const pregCols = `id, patient_id, managing_organization_id, status, last_menstrual_period,
	estimated_due_date, gravida, para, risk_level, risk_factors,
	primary_provider_id, note, outcome_date, created_at, updated_at`

func scanPregnancy(row pgx.Row) (*Pregnancy, error) {
	var p Pregnancy
	err := row.Scan(&p.ID, &p.PatientID, &p.ManagingOrganizationID, &p.Status, &p.LastMenstrualPeriod,
		&p.EstimatedDueDate, &p.Gravida, &p.Para, &p.RiskLevel, &p.RiskFactors,
		&p.PrimaryProviderID, &p.Note, &p.OutcomeDate, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPregnancyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pregnancyRepoPG) Create(ctx context.Context, p *Pregnancy) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO pregnancy (id, patient_id, managing_organization_id, status, last_menstrual_period,
			estimated_due_date, gravida, para, risk_level, risk_factors, primary_provider_id, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		p.ID, p.PatientID, p.ManagingOrganizationID, p.Status, p.LastMenstrualPeriod,
		p.EstimatedDueDate, p.Gravida, p.Para, p.RiskLevel, p.RiskFactors, p.PrimaryProviderID, p.Note,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *pregnancyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Pregnancy, error) {
	return scanPregnancy(r.conn(ctx).QueryRow(ctx, `SELECT `+pregCols+` FROM pregnancy WHERE id = $1`, id))
}

func (r *pregnancyRepoPG) Update(ctx context.Context, p *Pregnancy) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE pregnancy SET status=$2, estimated_due_date=$3, risk_level=$4, risk_factors=$5,
			primary_provider_id=$6, note=$7, outcome_date=$8, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Status, p.EstimatedDueDate, p.RiskLevel, p.RiskFactors,
		p.PrimaryProviderID, p.Note, p.OutcomeDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPregnancyNotFound
	}
	return nil
}

func (r *pregnancyRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Pregnancy, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM pregnancy WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+pregCols+` FROM pregnancy
		WHERE patient_id = $1 ORDER BY last_menstrual_period DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Pregnancy
	for rows.Next() {
		p, err := scanPregnancy(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
