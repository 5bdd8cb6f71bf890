package assignment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carechart/carechart/internal/platform/auth"
)

type pair struct {
	patientID uuid.UUID
	staffID   uuid.UUID
}

type mockRepo struct {
	assignments map[uuid.UUID]*Assignment
	pairs       map[pair]bool
	order       []uuid.UUID
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		assignments: make(map[uuid.UUID]*Assignment),
		pairs:       make(map[pair]bool),
	}
}

func (m *mockRepo) Insert(ctx context.Context, a *Assignment) error {
	k := pair{a.PatientID, a.StaffID}
	if m.pairs[k] {
		return ErrDuplicateAssignment
	}
	a.ID = uuid.New()
	a.AssignedAt = time.Now()
	m.assignments[a.ID] = a
	m.pairs[k] = true
	m.order = append(m.order, a.ID)
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	if a, ok := m.assignments[id]; ok {
		return a, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	a, ok := m.assignments[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.pairs, pair{a.PatientID, a.StaffID})
	delete(m.assignments, id)
	return nil
}

func (m *mockRepo) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*Assignment, error) {
	var out []*Assignment
	for _, id := range m.order {
		if a, ok := m.assignments[id]; ok && a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockRepo) ListCandidates(ctx context.Context, patientID uuid.UUID) ([]*Candidate, error) {
	return nil, nil
}

type mockPatients struct {
	known map[uuid.UUID]bool
}

func (m *mockPatients) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return m.known[id], nil
}

type mockGrants struct {
	grants map[uuid.UUID][]auth.Role
}

func (m *mockGrants) GrantsFor(ctx context.Context, staffID uuid.UUID) ([]auth.Role, error) {
	return m.grants[staffID], nil
}

type recordedCall struct {
	action     auth.Action
	resource   auth.Resource
	resourceID *uuid.UUID
	details    map[string]string
}

type mockAuditor struct {
	calls []recordedCall
}

func (m *mockAuditor) Record(actorID uuid.UUID, action auth.Action, resource auth.Resource, resourceID *uuid.UUID, details map[string]string) {
	m.calls = append(m.calls, recordedCall{action, resource, resourceID, details})
}

type fixture struct {
	repo      *mockRepo
	aud       *mockAuditor
	svc       *Service
	patientID uuid.UUID
	staffID   uuid.UUID
}

func newFixture() *fixture {
	repo := newMockRepo()
	aud := &mockAuditor{}
	patientID := uuid.New()
	staffID := uuid.New()
	patients := &mockPatients{known: map[uuid.UUID]bool{patientID: true}}
	grants := &mockGrants{grants: map[uuid.UUID][]auth.Role{staffID: {auth.RoleNurse}}}
	return &fixture{
		repo:      repo,
		aud:       aud,
		svc:       NewService(repo, patients, grants, aud),
		patientID: patientID,
		staffID:   staffID,
	}
}

func doctorPrincipal() *auth.Principal {
	return &auth.Principal{ID: uuid.New(), Roles: []auth.Role{auth.RoleDoctor}}
}

func TestAssign_DoctorAssignsAndAudits(t *testing.T) {
	f := newFixture()
	actor := doctorPrincipal()

	a := &Assignment{PatientID: f.patientID, StaffID: f.staffID}
	if err := f.svc.Assign(context.Background(), actor, a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.AssignedBy == nil || *a.AssignedBy != actor.ID {
		t.Error("assigned_by not attributed to actor")
	}
	if len(f.aud.calls) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(f.aud.calls))
	}
	call := f.aud.calls[0]
	if call.resource != auth.ResourceAssignment || call.action != auth.ActionCreate {
		t.Errorf("audit entry action=%s resource=%s", call.action, call.resource)
	}
	if call.resourceID == nil || *call.resourceID != f.patientID {
		t.Error("audit entry should reference the patient")
	}
	if call.details["staff_id"] != f.staffID.String() {
		t.Errorf("audit details = %v", call.details)
	}
}

func TestAssign_DuplicatePair(t *testing.T) {
	f := newFixture()
	actor := doctorPrincipal()

	if err := f.svc.Assign(context.Background(), actor, &Assignment{PatientID: f.patientID, StaffID: f.staffID}); err != nil {
		t.Fatalf("first assign failed: %v", err)
	}
	err := f.svc.Assign(context.Background(), actor, &Assignment{PatientID: f.patientID, StaffID: f.staffID})
	if !errors.Is(err, ErrDuplicateAssignment) {
		t.Fatalf("expected ErrDuplicateAssignment, got %v", err)
	}
}

func TestAssign_NurseForbidden(t *testing.T) {
	f := newFixture()
	nurse := &auth.Principal{ID: uuid.New(), Roles: []auth.Role{auth.RoleNurse}}

	err := f.svc.Assign(context.Background(), nurse, &Assignment{PatientID: f.patientID, StaffID: f.staffID})
	var forbidden *auth.ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
	if len(f.aud.calls) != 0 {
		t.Error("denied assign must not be audited")
	}
}

func TestAssign_UngrantedAssigneeRejected(t *testing.T) {
	f := newFixture()
	pending := uuid.New() // signed in but no role grant

	err := f.svc.Assign(context.Background(), doctorPrincipal(), &Assignment{PatientID: f.patientID, StaffID: pending})
	if !errors.Is(err, ErrNotStaff) {
		t.Fatalf("expected ErrNotStaff, got %v", err)
	}
}

func TestUnassign_ThenReassignSucceeds(t *testing.T) {
	f := newFixture()
	actor := doctorPrincipal()

	a := &Assignment{PatientID: f.patientID, StaffID: f.staffID}
	if err := f.svc.Assign(context.Background(), actor, a); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if err := f.svc.Unassign(context.Background(), actor, a.ID); err != nil {
		t.Fatalf("unassign failed: %v", err)
	}

	// The pair is free again.
	if err := f.svc.Assign(context.Background(), actor, &Assignment{PatientID: f.patientID, StaffID: f.staffID}); err != nil {
		t.Fatalf("reassign failed: %v", err)
	}

	if len(f.aud.calls) != 3 {
		t.Fatalf("expected create/delete/create audit entries, got %d", len(f.aud.calls))
	}
	del := f.aud.calls[1]
	if del.action != auth.ActionDelete {
		t.Errorf("second entry should be delete, got %s", del.action)
	}
	if del.details["assignment_id"] != a.ID.String() {
		t.Errorf("delete entry details = %v", del.details)
	}
	if del.resourceID == nil || *del.resourceID != f.patientID {
		t.Error("delete entry should reference the patient")
	}
}

func TestUnassign_NotFound(t *testing.T) {
	f := newFixture()
	err := f.svc.Unassign(context.Background(), doctorPrincipal(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListForPatient_InsertionOrder(t *testing.T) {
	f := newFixture()
	actor := doctorPrincipal()

	second := uuid.New()
	f.svc.grants.(*mockGrants).grants[second] = []auth.Role{auth.RoleDoctor}

	f.svc.Assign(context.Background(), actor, &Assignment{PatientID: f.patientID, StaffID: f.staffID})
	f.svc.Assign(context.Background(), actor, &Assignment{PatientID: f.patientID, StaffID: second})

	items, err := f.svc.ListForPatient(context.Background(), actor, f.patientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(items))
	}
	if items[0].StaffID != f.staffID || items[1].StaffID != second {
		t.Error("expected assignments in insertion order")
	}
}

func TestAssign_UnknownPatient(t *testing.T) {
	f := newFixture()
	err := f.svc.Assign(context.Background(), doctorPrincipal(), &Assignment{PatientID: uuid.New(), StaffID: f.staffID})
	if !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
}
