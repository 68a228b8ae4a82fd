package admin

import (
	"time"

	"github.com/google/uuid"
)

// Organization type codes.
const (
	TypeHospital = "prov"
	TypeClinic   = "dept"
)

var validTypeCodes = map[string]bool{TypeHospital: true, TypeClinic: true}

// Organization maps to the organization table. Hospitals are organizations
// of type "prov"; clinics hang off a parent hospital.
type Organization struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	TypeCode     string     `db:"type_code" json:"type_code"`
	Active       bool       `db:"active" json:"active"`
	ParentOrgID  *uuid.UUID `db:"parent_org_id" json:"parent_org_id,omitempty"`
	AddressLine1 *string    `db:"address_line1" json:"address_line1,omitempty"`
	City         *string    `db:"city" json:"city,omitempty"`
	State        *string    `db:"state" json:"state,omitempty"`
	Country      *string    `db:"country" json:"country,omitempty"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Email        *string    `db:"email" json:"email,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
