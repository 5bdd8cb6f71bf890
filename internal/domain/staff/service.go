package staff

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carechart/carechart/internal/platform/auth"
)

// auditor is satisfied by *audit.Recorder.
type auditor interface {
	Record(actorID uuid.UUID, action auth.Action, resource auth.Resource, resourceID *uuid.UUID, details map[string]string)
}

type Service struct {
	repo  Repository
	audit auditor
}

func NewService(repo Repository, audit auditor) *Service {
	return &Service{repo: repo, audit: audit}
}

// GrantsFor satisfies auth.RoleSource. Grants are read fresh per request so a
// role change takes effect on the target's next request.
func (s *Service) GrantsFor(ctx context.Context, staffID uuid.UUID) ([]auth.Role, error) {
	return s.repo.RolesFor(ctx, staffID)
}

// EnsureIdentity satisfies auth.IdentityRegistrar. Called on every
// authenticated request so the directory always has a row for anyone who has
// signed in, granted or not.
func (s *Service) EnsureIdentity(ctx context.Context, id uuid.UUID, email, name string) error {
	return s.repo.Upsert(ctx, id, email, name)
}

// Me returns the caller's own directory entry. The roles come from the
// principal rather than a second query.
func (s *Service) Me(ctx context.Context, actor *auth.Principal) (*Member, error) {
	ident, err := s.repo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return &Member{Identity: *ident, Roles: actor.Roles}, nil
}

// UpdateProfile lets any signed-in account edit its own display fields, even
// before a grant is approved.
func (s *Service) UpdateProfile(ctx context.Context, actor *auth.Principal, upd ProfileUpdate) error {
	upd.FullName = strings.TrimSpace(upd.FullName)
	if upd.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	return s.repo.UpdateProfile(ctx, actor.ID, upd)
}

// Directory lists every staff identity with its role grants, admins only.
func (s *Service) Directory(ctx context.Context, actor *auth.Principal) ([]*Member, error) {
	d := auth.Decide(actor.Roles, auth.ActionView, auth.ResourceStaffRole, auth.PolicyContext{ActorID: actor.ID})
	if err := d.Err(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// ReplaceRole swaps the target's grant set for the single given role. Each
// staff member holds at most one role after a replace; auth.RoleNone revokes
// all grants, returning the account to pending approval. Admins cannot change
// their own role.
func (s *Service) ReplaceRole(ctx context.Context, actor *auth.Principal, targetID uuid.UUID, role auth.Role) error {
	d := auth.Decide(actor.Roles, auth.ActionUpdate, auth.ResourceStaffRole, auth.PolicyContext{
		ActorID:       actor.ID,
		TargetStaffID: targetID,
	})
	if err := d.Err(); err != nil {
		return err
	}

	if _, err := s.repo.GetByID(ctx, targetID); err != nil {
		return err
	}

	if err := s.repo.ReplaceRole(ctx, targetID, role); err != nil {
		return fmt.Errorf("replace role: %w", err)
	}

	s.audit.Record(actor.ID, auth.ActionUpdate, auth.ResourceStaffRole, &targetID, map[string]string{
		"staff_id": targetID.String(),
		"role":     string(role),
	})
	return nil
}

// GrantAdminByEmail bootstraps the first admin from the CLI. It bypasses the
// policy engine on purpose: with zero admins in the system nobody could pass
// the role-management check. The entry is audited with a nil actor.
func (s *Service) GrantAdminByEmail(ctx context.Context, email string) (*Identity, error) {
	ident, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceRole(ctx, ident.ID, auth.RoleAdmin); err != nil {
		return nil, fmt.Errorf("grant admin: %w", err)
	}
	s.audit.Record(uuid.Nil, auth.ActionUpdate, auth.ResourceStaffRole, &ident.ID, map[string]string{
		"staff_id": ident.ID.String(),
		"role":     string(auth.RoleAdmin),
		"via":      "cli",
	})
	return ident, nil
}
