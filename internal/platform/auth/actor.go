package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Actor is the caller identity handed explicitly to handlers: who is asking
// and which hospitals they may act on.
type Actor struct {
	UserID      string
	Roles       []string
	HospitalIDs []uuid.UUID
}

// ActorFromClaims builds an Actor from verified token claims.
func ActorFromClaims(c *Claims) (Actor, error) {
	a := Actor{UserID: c.Subject, Roles: c.Roles}
	for _, raw := range c.HospitalIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Actor{}, fmt.Errorf("hospital id %q: %w", raw, err)
		}
		a.HospitalIDs = append(a.HospitalIDs, id)
	}
	return a, nil
}

// ActorFromContext returns the actor stored by the auth middleware, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ActorKey).(Actor)
	return a, ok
}

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// CanAccessHospital reports whether the actor may act on records of the
// given hospital. Admins are not restricted.
func (a Actor) CanAccessHospital(id uuid.UUID) bool {
	if a.HasRole("admin") {
		return true
	}
	for _, h := range a.HospitalIDs {
		if h == id {
			return true
		}
	}
	return false
}
