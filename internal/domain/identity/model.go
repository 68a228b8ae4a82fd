package identity

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table.
type Patient struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Active    bool       `db:"active" json:"active"`
	MRN       string     `db:"mrn" json:"mrn"`
	FirstName string     `db:"first_name" json:"first_name"`
	LastName  string     `db:"last_name" json:"last_name"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	// AccountID is the patient's portal account; reminders are addressed to it.
	AccountID     *string    `db:"account_id" json:"account_id,omitempty"`
	PhoneMobile   *string    `db:"phone_mobile" json:"phone_mobile,omitempty"`
	Email         *string    `db:"email" json:"email,omitempty"`
	ManagingOrgID *uuid.UUID `db:"managing_org_id" json:"managing_org_id,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Practitioner roles that may staff a prenatal visit.
const (
	RoleObstetrician = "obstetrician"
	RoleMidwife      = "midwife"
	RoleNurse        = "nurse"
	RoleSonographer  = "sonographer"
)

var validPractitionerRoles = map[string]bool{
	RoleObstetrician: true, RoleMidwife: true, RoleNurse: true, RoleSonographer: true,
}

type Practitioner struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	Active     bool       `db:"active" json:"active"`
	FirstName  string     `db:"first_name" json:"first_name"`
	LastName   string     `db:"last_name" json:"last_name"`
	Role       string     `db:"role" json:"role"`
	HospitalID *uuid.UUID `db:"hospital_id" json:"hospital_id,omitempty"`
	Phone      *string    `db:"phone" json:"phone,omitempty"`
	Email      *string    `db:"email" json:"email,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}
