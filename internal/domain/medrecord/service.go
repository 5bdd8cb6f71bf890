package medrecord

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

// PatientSource confirms a patient exists before a record is attached. It is
// satisfied by the patient repository.
type PatientSource interface {
	Exists(ctx context.Context, patientID uuid.UUID) (bool, error)
}

type Service struct {
	repo     Repository
	patients PatientSource
	audit    auditor
}

func NewService(repo Repository, patients PatientSource, audit auditor) *Service {
	return &Service{repo: repo, patients: patients, audit: audit}
}

// Append adds a clinical entry to a patient's chart. Any staff role may
// write; nobody may edit or remove what has been written.
func (s *Service) Append(ctx context.Context, actor *auth.Principal, rec *Record) error {
	d := auth.Decide(actor.Roles, auth.ActionCreate, auth.ResourceMedicalRecord, auth.PolicyContext{ActorID: actor.ID})
	if err := d.Err(); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	ok, err := s.patients.Exists(ctx, rec.PatientID)
	if err != nil {
		return fmt.Errorf("check patient: %w", err)
	}
	if !ok {
		return ErrPatientNotFound
	}

	actorID := actor.ID
	rec.RecordedBy = &actorID
	if err := s.repo.Create(ctx, rec); err != nil {
		return err
	}

	s.audit.Record(actor.ID, auth.ActionCreate, auth.ResourceMedicalRecord, &rec.ID, map[string]string{
		"patient_id":  rec.PatientID.String(),
		"record_type": string(rec.RecordType),
		"title":       rec.Title,
	})
	return nil
}

// ListForPatient returns the chart newest first.
func (s *Service) ListForPatient(ctx context.Context, actor *auth.Principal, patientID uuid.UUID) ([]*Record, error) {
	d := auth.Decide(actor.Roles, auth.ActionView, auth.ResourceMedicalRecord, auth.PolicyContext{ActorID: actor.ID})
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

	return s.repo.ListByPatient(ctx, patientID)
}
