package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware that checks if the user has at least one of the specified roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRoles := RolesFromContext(c.Request().Context())
			for _, required := range roles {
				for _, has := range userRoles {
					if has == required || has == "admin" {
						return next(c)
					}
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// AuthorizeHospital returns a 403 HTTP error unless the request's actor may
// act on the hospital.
func AuthorizeHospital(ctx context.Context, hospitalID uuid.UUID) error {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no authenticated actor")
	}
	if !actor.CanAccessHospital(hospitalID) {
		return echo.NewHTTPError(http.StatusForbidden, "no access to hospital "+hospitalID.String())
	}
	return nil
}
