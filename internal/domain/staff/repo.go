package staff

import (
	"context"

	"github.com/google/uuid"

	"github.com/carechart/carechart/internal/platform/auth"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Identity, error)
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	// Upsert creates the identity row on first sign-in and refreshes the
	// display fields on subsequent sign-ins.
	Upsert(ctx context.Context, id uuid.UUID, email, fullName string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) error
	List(ctx context.Context) ([]*Member, error)

	RolesFor(ctx context.Context, staffID uuid.UUID) ([]auth.Role, error)
	// ReplaceRole removes every grant the target holds and installs the
	// single new one, atomically. auth.RoleNone installs nothing, leaving
	// the target with zero grants.
	ReplaceRole(ctx context.Context, staffID uuid.UUID, role auth.Role) error
}
