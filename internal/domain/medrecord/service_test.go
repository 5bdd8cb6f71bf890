package medrecord

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carechart/carechart/internal/platform/auth"
)

type mockRepo struct {
	records []*Record
}

func (m *mockRepo) Create(ctx context.Context, r *Record) error {
	r.ID = uuid.New()
	r.RecordedAt = time.Now()
	m.records = append(m.records, r)
	return nil
}

func (m *mockRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Record, error) {
	var out []*Record
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].PatientID == patientID {
			out = append(out, m.records[i])
		}
	}
	return out, nil
}

type mockPatients struct {
	known map[uuid.UUID]bool
}

func (m *mockPatients) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return m.known[id], nil
}

type recordedCall struct {
	action   auth.Action
	resource auth.Resource
	details  map[string]string
}

type mockAuditor struct {
	calls []recordedCall
}

func (m *mockAuditor) Record(actorID uuid.UUID, action auth.Action, resource auth.Resource, resourceID *uuid.UUID, details map[string]string) {
	m.calls = append(m.calls, recordedCall{action, resource, details})
}

func staffPrincipal(role auth.Role) *auth.Principal {
	return &auth.Principal{ID: uuid.New(), Roles: []auth.Role{role}}
}

func TestAppend_EveryStaffRoleMayWrite(t *testing.T) {
	patientID := uuid.New()
	patients := &mockPatients{known: map[uuid.UUID]bool{patientID: true}}

	for _, role := range []auth.Role{auth.RoleAdmin, auth.RoleDoctor, auth.RoleNurse} {
		repo := &mockRepo{}
		aud := &mockAuditor{}
		svc := NewService(repo, patients, aud)

		rec := &Record{PatientID: patientID, RecordType: TypeDiagnosis, Title: "Hypertension"}
		if err := svc.Append(context.Background(), staffPrincipal(role), rec); err != nil {
			t.Fatalf("%s append failed: %v", role, err)
		}
		if rec.RecordedBy == nil {
			t.Errorf("%s: recorded_by not set", role)
		}
		if len(aud.calls) != 1 || aud.calls[0].resource != auth.ResourceMedicalRecord {
			t.Errorf("%s: expected one medical_record audit entry", role)
		}
		if aud.calls[0].details["record_type"] != "diagnosis" || aud.calls[0].details["title"] != "Hypertension" {
			t.Errorf("%s: audit details = %v", role, aud.calls[0].details)
		}
	}
}

func TestAppend_Validation(t *testing.T) {
	patientID := uuid.New()
	patients := &mockPatients{known: map[uuid.UUID]bool{patientID: true}}
	svc := NewService(&mockRepo{}, patients, &mockAuditor{})
	actor := staffPrincipal(auth.RoleDoctor)

	long := make([]byte, 2001)
	for i := range long {
		long[i] = 'x'
	}
	longDesc := string(long)

	tests := []struct {
		name string
		rec  *Record
	}{
		{"unknown type", &Record{PatientID: patientID, RecordType: "surgery", Title: "t"}},
		{"blank title", &Record{PatientID: patientID, RecordType: TypeNote, Title: "  "}},
		{"oversize description", &Record{PatientID: patientID, RecordType: TypeNote, Title: "t", Description: &longDesc}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.Append(context.Background(), actor, tt.rec); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestAppend_UnknownPatient(t *testing.T) {
	svc := NewService(&mockRepo{}, &mockPatients{known: map[uuid.UUID]bool{}}, &mockAuditor{})
	rec := &Record{PatientID: uuid.New(), RecordType: TypeNote, Title: "note"}
	err := svc.Append(context.Background(), staffPrincipal(auth.RoleNurse), rec)
	if !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestListForPatient_NewestFirst(t *testing.T) {
	patientID := uuid.New()
	patients := &mockPatients{known: map[uuid.UUID]bool{patientID: true}}
	repo := &mockRepo{}
	svc := NewService(repo, patients, &mockAuditor{})
	actor := staffPrincipal(auth.RoleNurse)

	first := &Record{PatientID: patientID, RecordType: TypeDiagnosis, Title: "first"}
	second := &Record{PatientID: patientID, RecordType: TypeNote, Title: "second"}
	repo.Create(context.Background(), first)
	repo.Create(context.Background(), second)

	records, err := svc.ListForPatient(context.Background(), actor, patientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Title != "second" {
		t.Error("expected newest record first")
	}
}

func TestRepository_HasNoMutationPath(t *testing.T) {
	// The interface is the contract: charts are append-only. A compile-time
	// assertion documents that the Postgres repository satisfies exactly it.
	var _ Repository = (*RepoPG)(nil)
	var _ Repository = (*mockRepo)(nil)
}
