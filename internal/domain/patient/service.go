package patient

import (
	"context"
	"fmt"

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

// Register admits a new patient. Any staff role may register; the intake is
// attributed to the actor and audited by patient name.
func (s *Service) Register(ctx context.Context, actor *auth.Principal, p *Patient) error {
	d := auth.Decide(actor.Roles, auth.ActionCreate, auth.ResourcePatient, auth.PolicyContext{ActorID: actor.ID})
	if err := d.Err(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	actorID := actor.ID
	p.CreatedBy = &actorID

	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("register patient: %w", err)
	}

	s.audit.Record(actor.ID, auth.ActionCreate, auth.ResourcePatient, &p.ID, map[string]string{
		"patient_name": p.FullName(),
	})
	return nil
}

func (s *Service) Get(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*Patient, error) {
	d := auth.Decide(actor.Roles, auth.ActionView, auth.ResourcePatient, auth.PolicyContext{ActorID: actor.ID})
	if err := d.Err(); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.audit.Record(actor.ID, auth.ActionView, auth.ResourcePatient, &p.ID, map[string]string{
		"patient_name": p.FullName(),
	})
	return p, nil
}

// List returns patients newest first. The roster view is itself auditable
// because it exposes every patient's demographics at once.
func (s *Service) List(ctx context.Context, actor *auth.Principal, search string, limit, offset int) ([]*Patient, int, error) {
	d := auth.Decide(actor.Roles, auth.ActionView, auth.ResourcePatient, auth.PolicyContext{ActorID: actor.ID})
	if err := d.Err(); err != nil {
		return nil, 0, err
	}
	items, total, err := s.repo.List(ctx, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	s.audit.Record(actor.ID, auth.ActionView, auth.ResourcePatient, nil, map[string]string{
		"action": "list_all",
	})
	return items, total, nil
}

// Remove deletes the patient and, via cascade, every dependent record and
// assignment. Admin only. The audit entry is written once, after the delete
// succeeds.
func (s *Service) Remove(ctx context.Context, actor *auth.Principal, id uuid.UUID) error {
	d := auth.Decide(actor.Roles, auth.ActionDelete, auth.ResourcePatient, auth.PolicyContext{ActorID: actor.ID})
	if err := d.Err(); err != nil {
		return err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(actor.ID, auth.ActionDelete, auth.ResourcePatient, &id, map[string]string{
		"patient_name": p.FullName(),
	})
	return nil
}
