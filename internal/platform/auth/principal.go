package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Principal is the request-scoped identity every policy and audit call runs
// as. It lives exactly as long as one request; nothing process-wide carries
// authorization state between requests.
type Principal struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Roles []Role    `json:"roles"`
}

// IsStaff reports whether the principal holds at least one role grant.
// Identities without grants are pending approval.
func (p *Principal) IsStaff() bool {
	return len(p.Roles) > 0
}

func (p *Principal) HasRole(r Role) bool {
	for _, have := range p.Roles {
		if have == r {
			return true
		}
	}
	return false
}

const principalKey contextKey = "principal"

// PrincipalFromContext retrieves the request principal, or nil when the
// request is unauthenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

// ContextWithPrincipal returns a context carrying the principal. The
// middleware uses it; handler tests use it to run as a given identity.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// RoleSource resolves the current role grants for a staff identity. Grants
// are loaded per request so that a role change takes effect on the target's
// very next request.
type RoleSource interface {
	GrantsFor(ctx context.Context, staffID uuid.UUID) ([]Role, error)
}

// IdentityRegistrar is notified of every authenticated subject so that a
// staff identity row exists before any grant is attached to it.
type IdentityRegistrar interface {
	EnsureIdentity(ctx context.Context, id uuid.UUID, email, name string) error
}

// PrincipalMiddleware builds the request principal from the verified token
// claims plus a fresh grant lookup. It must run after the JWT middleware.
func PrincipalMiddleware(roles RoleSource, registrar IdentityRegistrar) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			sub := UserIDFromContext(ctx)
			id, err := uuid.Parse(sub)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "subject is not a valid identifier")
			}

			p := &Principal{
				ID:    id,
				Name:  UserNameFromContext(ctx),
				Email: UserEmailFromContext(ctx),
			}

			if registrar != nil {
				if err := registrar.EnsureIdentity(ctx, p.ID, p.Email, p.Name); err != nil {
					return echo.NewHTTPError(http.StatusServiceUnavailable, "identity resolution failed")
				}
			}

			grants, err := roles.GrantsFor(ctx, p.ID)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "role resolution failed")
			}
			p.Roles = grants

			c.SetRequest(c.Request().WithContext(ContextWithPrincipal(ctx, p)))
			return next(c)
		}
	}
}
