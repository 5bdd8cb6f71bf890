package assignment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/carechart/carechart/internal/platform/auth"
)

// auditor is satisfied by *audit.Recorder.
type auditor interface {
	Record(actorID uuid.UUID, action auth.Action, resource auth.Resource, resourceID *uuid.UUID, details map[string]string)
}

// PatientSource confirms a patient exists; satisfied by the patient
// repository.
type PatientSource interface {
	Exists(ctx context.Context, patientID uuid.UUID) (bool, error)
}

// GrantSource reports a staff member's role grants; satisfied by the staff
// service.
type GrantSource interface {
	GrantsFor(ctx context.Context, staffID uuid.UUID) ([]auth.Role, error)
}

var ErrPatientNotFound = errors.New("patient not found")

type Service struct {
	repo     Repository
	patients PatientSource
	grants   GrantSource
	audit    auditor
}

func NewService(repo Repository, patients PatientSource, grants GrantSource, audit auditor) *Service {
	return &Service{repo: repo, patients: patients, grants: grants, audit: audit}
}

// Assign puts a staff member on a patient's care team. Admins and doctors
// only; the assignee must hold at least one role grant. The audit entry
// references the patient, with the staff member in the details.
func (s *Service) Assign(ctx context.Context, actor *auth.Principal, a *Assignment) error {
	d := auth.Decide(actor.Roles, auth.ActionCreate, auth.ResourceAssignment, auth.PolicyContext{ActorID: actor.ID})
	if err := d.Err(); err != nil {
		return err
	}

	ok, err := s.patients.Exists(ctx, a.PatientID)
	if err != nil {
		return fmt.Errorf("check patient: %w", err)
	}
	if !ok {
		return ErrPatientNotFound
	}

	roles, err := s.grants.GrantsFor(ctx, a.StaffID)
	if err != nil {
		return fmt.Errorf("check assignee grants: %w", err)
	}
	if len(roles) == 0 {
		return ErrNotStaff
	}

	actorID := actor.ID
	a.AssignedBy = &actorID
	if err := s.repo.Insert(ctx, a); err != nil {
		return err
	}

	s.audit.Record(actor.ID, auth.ActionCreate, auth.ResourceAssignment, &a.PatientID, map[string]string{
		"staff_id": a.StaffID.String(),
	})
	return nil
}

// Unassign removes a care-team membership by assignment id.
func (s *Service) Unassign(ctx context.Context, actor *auth.Principal, assignmentID uuid.UUID) error {
	d := auth.Decide(actor.Roles, auth.ActionDelete, auth.ResourceAssignment, auth.PolicyContext{ActorID: actor.ID})
	if err := d.Err(); err != nil {
		return err
	}

	a, err := s.repo.GetByID(ctx, assignmentID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, assignmentID); err != nil {
		return err
	}

	s.audit.Record(actor.ID, auth.ActionDelete, auth.ResourceAssignment, &a.PatientID, map[string]string{
		"assignment_id": assignmentID.String(),
	})
	return nil
}

// ListForPatient returns the care team in the order members were added.
func (s *Service) ListForPatient(ctx context.Context, actor *auth.Principal, patientID uuid.UUID) ([]*Assignment, error) {
	d := auth.Decide(actor.Roles, auth.ActionView, auth.ResourceAssignment, auth.PolicyContext{ActorID: actor.ID})
	if err := d.Err(); err != nil {
		return nil, err
	}
	ok, err := s.patients.Exists(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("check patient: %w", err)
	}
	if !ok {
		return nil, ErrPatientNotFound
	}
	return s.repo.ListForPatient(ctx, patientID)
}

// ListCandidates returns granted staff who could still be assigned.
func (s *Service) ListCandidates(ctx context.Context, actor *auth.Principal, patientID uuid.UUID) ([]*Candidate, error) {
	d := auth.Decide(actor.Roles, auth.ActionCreate, auth.ResourceAssignment, auth.PolicyContext{ActorID: actor.ID})
	if err := d.Err(); err != nil {
		return nil, err
	}
	ok, err := s.patients.Exists(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("check patient: %w", err)
	}
	if !ok {
		return nil, ErrPatientNotFound
	}
	return s.repo.ListCandidates(ctx, patientID)
}
