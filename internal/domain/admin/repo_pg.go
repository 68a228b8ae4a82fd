package admin

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/antenatal/internal/platform/db"
)

type orgRepoPG struct {
	pool *pgxpool.Pool
}

func NewOrganizationRepo(pool *pgxpool.Pool) OrganizationRepository {
	return &orgRepoPG{pool: pool}
}

func (r *orgRepoPG) conn(ctx context.Context) db.Querier {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const orgCols = `id, name, type_code, active, parent_org_id, address_line1, city, state, country,
	phone, email, created_at, updated_at`

func scanOrg(row pgx.Row) (*Organization, error) {
	var o Organization
	err := row.Scan(&o.ID, &o.Name, &o.TypeCode, &o.Active, &o.ParentOrgID,
		&o.AddressLine1, &o.City, &o.State, &o.Country, &o.Phone, &o.Email,
		&o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orgRepoPG) Create(ctx context.Context, o *Organization) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO organization (id, name, type_code, active, parent_org_id,
			address_line1, city, state, country, phone, email)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at`,
		o.ID, o.Name, o.TypeCode, o.Active, o.ParentOrgID,
		o.AddressLine1, o.City, o.State, o.Country, o.Phone, o.Email,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
}

func (r *orgRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Organization, error) {
	return scanOrg(r.conn(ctx).QueryRow(ctx, `SELECT `+orgCols+` FROM organization WHERE id = $1`, id))
}

func (r *orgRepoPG) Update(ctx context.Context, o *Organization) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE organization SET name=$2, type_code=$3, active=$4, parent_org_id=$5,
			address_line1=$6, city=$7, state=$8, country=$9, phone=$10, email=$11, updated_at=NOW()
		WHERE id = $1`,
		o.ID, o.Name, o.TypeCode, o.Active, o.ParentOrgID,
		o.AddressLine1, o.City, o.State, o.Country, o.Phone, o.Email,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrganizationNotFound
	}
	return nil
}

func (r *orgRepoPG) List(ctx context.Context, limit, offset int) ([]*Organization, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM organization`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+orgCols+` FROM organization ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Organization
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	return items, total, rows.Err()
}
