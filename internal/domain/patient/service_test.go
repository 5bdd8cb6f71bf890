package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carechart/carechart/internal/platform/auth"
)

type mockRepo struct {
	patients map[uuid.UUID]*Patient
	order    []uuid.UUID
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.patients[p.ID] = p
	m.order = append(m.order, p.ID)
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	if p, ok := m.patients[id]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepo) List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	var out []*Patient
	for i := len(m.order) - 1; i >= 0; i-- {
		out = append(out, m.patients[m.order[i]])
	}
	return out, len(out), nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.patients[id]; !ok {
		return ErrNotFound
	}
	delete(m.patients, id)
	return nil
}

type recordedCall struct {
	actorID    uuid.UUID
	action     auth.Action
	resource   auth.Resource
	resourceID *uuid.UUID
	details    map[string]string
}

type mockAuditor struct {
	calls []recordedCall
}

func (m *mockAuditor) Record(actorID uuid.UUID, action auth.Action, resource auth.Resource, resourceID *uuid.UUID, details map[string]string) {
	m.calls = append(m.calls, recordedCall{actorID, action, resource, resourceID, details})
}

func staffPrincipal(role auth.Role) *auth.Principal {
	return &auth.Principal{ID: uuid.New(), Roles: []auth.Role{role}}
}

func validPatient() *Patient {
	return &Patient{
		FirstName:   "Jane",
		LastName:    "Roe",
		DateOfBirth: time.Date(1980, 3, 14, 0, 0, 0, 0, time.UTC),
		Gender:      "female",
	}
}

func TestRegister_AuditsWithPatientName(t *testing.T) {
	repo := newMockRepo()
	aud := &mockAuditor{}
	svc := NewService(repo, aud)

	actor := staffPrincipal(auth.RoleAdmin)
	p := validPatient()
	if err := svc.Register(context.Background(), actor, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.CreatedBy == nil || *p.CreatedBy != actor.ID {
		t.Error("created_by not attributed to actor")
	}
	if len(aud.calls) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(aud.calls))
	}
	call := aud.calls[0]
	if call.action != auth.ActionCreate || call.resource != auth.ResourcePatient {
		t.Errorf("audit entry action=%s resource=%s", call.action, call.resource)
	}
	if call.resourceID == nil || *call.resourceID != p.ID {
		t.Error("audit entry should reference the new patient")
	}
	if call.details["patient_name"] != "Jane Roe" {
		t.Errorf("audit details = %v", call.details)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := NewService(newMockRepo(), &mockAuditor{})
	actor := staffPrincipal(auth.RoleNurse)

	tests := []struct {
		name   string
		mutate func(*Patient)
	}{
		{"missing first name", func(p *Patient) { p.FirstName = " " }},
		{"missing last name", func(p *Patient) { p.LastName = "" }},
		{"missing birth date", func(p *Patient) { p.DateOfBirth = time.Time{} }},
		{"future birth date", func(p *Patient) { p.DateOfBirth = time.Now().Add(24 * time.Hour) }},
		{"invalid gender", func(p *Patient) { p.Gender = "robot" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPatient()
			tt.mutate(p)
			if err := svc.Register(context.Background(), actor, p); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestList_NewestFirstAndAudited(t *testing.T) {
	repo := newMockRepo()
	aud := &mockAuditor{}
	svc := NewService(repo, aud)
	actor := staffPrincipal(auth.RoleNurse)

	first := validPatient()
	second := validPatient()
	second.FirstName = "John"
	repo.Create(context.Background(), first)
	repo.Create(context.Background(), second)

	items, total, err := svc.List(context.Background(), actor, "", 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected 2 patients, got %d", total)
	}
	if items[0].ID != second.ID {
		t.Error("expected newest patient first")
	}

	if len(aud.calls) != 1 || aud.calls[0].details["action"] != "list_all" {
		t.Errorf("roster view should audit list_all, got %+v", aud.calls)
	}
	if aud.calls[0].resourceID != nil {
		t.Error("roster audit entry should not reference a single patient")
	}
}

func TestRemove_NurseDeniedWithoutAudit(t *testing.T) {
	repo := newMockRepo()
	aud := &mockAuditor{}
	svc := NewService(repo, aud)

	p := validPatient()
	repo.Create(context.Background(), p)

	for _, role := range []auth.Role{auth.RoleNurse, auth.RoleDoctor} {
		err := svc.Remove(context.Background(), staffPrincipal(role), p.ID)
		var forbidden *auth.ForbiddenError
		if !errors.As(err, &forbidden) {
			t.Fatalf("%s delete should be forbidden, got %v", role, err)
		}
	}
	if _, ok := repo.patients[p.ID]; !ok {
		t.Fatal("patient must still exist")
	}
	if len(aud.calls) != 0 {
		t.Errorf("denied deletes must not be audited, got %d entries", len(aud.calls))
	}
}

func TestRemove_AdminDeletesAndAudits(t *testing.T) {
	repo := newMockRepo()
	aud := &mockAuditor{}
	svc := NewService(repo, aud)

	p := validPatient()
	repo.Create(context.Background(), p)

	if err := svc.Remove(context.Background(), staffPrincipal(auth.RoleAdmin), p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.patients[p.ID]; ok {
		t.Error("patient should be gone")
	}
	if len(aud.calls) != 1 {
		t.Fatalf("expected exactly 1 audit entry, got %d", len(aud.calls))
	}
	if aud.calls[0].action != auth.ActionDelete || aud.calls[0].details["patient_name"] != "Jane Roe" {
		t.Errorf("unexpected audit entry %+v", aud.calls[0])
	}
}

func TestRemove_NotFound(t *testing.T) {
	svc := NewService(newMockRepo(), &mockAuditor{})
	err := svc.Remove(context.Background(), staffPrincipal(auth.RoleAdmin), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
