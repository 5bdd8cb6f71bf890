package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireStaff returns middleware that rejects principals without any role
// grant. Such identities exist but are pending approval; the caller is told
// so explicitly rather than with a generic denial.
func RequireStaff() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFromContext(c.Request().Context())
			if p == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "no authenticated principal")
			}
			if !p.IsStaff() {
				return echo.NewHTTPError(http.StatusForbidden, "account pending approval")
			}
			return next(c)
		}
	}
}

// RequireRole returns middleware that checks if the principal holds at least
// one of the specified roles. There is no implicit admin bypass; list every
// role a route accepts.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFromContext(c.Request().Context())
			if p == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "no authenticated principal")
			}
			for _, required := range roles {
				if p.HasRole(required) {
					return next(c)
				}
			}
			names := make([]string, len(roles))
			for i, r := range roles {
				names[i] = string(r)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(names, " or ")))
		}
	}
}
