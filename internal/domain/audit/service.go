package audit

import (
	"context"

	"github.com/carechart/carechart/internal/platform/auth"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Query returns audit entries newest first, visible to admins only.
func (s *Service) Query(ctx context.Context, actor *auth.Principal, f QueryFilter) ([]*Entry, error) {
	d := auth.Decide(actor.Roles, auth.ActionView, auth.ResourceAuditLog, auth.PolicyContext{ActorID: actor.ID})
	if err := d.Err(); err != nil {
		return nil, err
	}
	return s.repo.Query(ctx, f)
}
