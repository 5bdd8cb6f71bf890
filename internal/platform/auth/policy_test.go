package auth

import (
	"testing"

	"github.com/google/uuid"
)

func TestDecide_RoleTable(t *testing.T) {
	tests := []struct {
		name     string
		roles    []Role
		action   Action
		resource Resource
		allowed  bool
	}{
		{"nurse views patient", []Role{RoleNurse}, ActionView, ResourcePatient, true},
		{"nurse creates patient", []Role{RoleNurse}, ActionCreate, ResourcePatient, true},
		{"nurse creates record", []Role{RoleNurse}, ActionCreate, ResourceMedicalRecord, true},
		{"nurse deletes patient", []Role{RoleNurse}, ActionDelete, ResourcePatient, false},
		{"nurse manages assignment", []Role{RoleNurse}, ActionCreate, ResourceAssignment, false},
		{"nurse views audit log", []Role{RoleNurse}, ActionView, ResourceAuditLog, false},
		{"doctor creates assignment", []Role{RoleDoctor}, ActionCreate, ResourceAssignment, true},
		{"doctor removes assignment", []Role{RoleDoctor}, ActionDelete, ResourceAssignment, true},
		{"doctor deletes patient", []Role{RoleDoctor}, ActionDelete, ResourcePatient, false},
		{"doctor manages roles", []Role{RoleDoctor}, ActionUpdate, ResourceStaffRole, false},
		{"admin deletes patient", []Role{RoleAdmin}, ActionDelete, ResourcePatient, true},
		{"admin manages roles", []Role{RoleAdmin}, ActionUpdate, ResourceStaffRole, true},
		{"admin views staff directory", []Role{RoleAdmin}, ActionView, ResourceStaffRole, true},
		{"doctor views staff directory", []Role{RoleDoctor}, ActionView, ResourceStaffRole, false},
		{"admin views audit log", []Role{RoleAdmin}, ActionView, ResourceAuditLog, true},
		{"multiple grants use most permissive", []Role{RoleNurse, RoleDoctor}, ActionCreate, ResourceAssignment, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.roles, tt.action, tt.resource, PolicyContext{ActorID: uuid.New()})
			if d.Allowed != tt.allowed {
				t.Errorf("Decide(%v, %s, %s) allowed=%v, want %v (reason: %s)",
					tt.roles, tt.action, tt.resource, d.Allowed, tt.allowed, d.Reason)
			}
		})
	}
}

func TestDecide_FailClosed(t *testing.T) {
	// Pairs absent from the table deny for every role, admin included.
	denied := []struct {
		action   Action
		resource Resource
	}{
		{ActionUpdate, ResourcePatient},
		{ActionUpdate, ResourceMedicalRecord},
		{ActionDelete, ResourceMedicalRecord},
		{ActionDelete, ResourceAuditLog},
		{Action("replicate"), ResourcePatient},
		{ActionView, Resource("billing")},
	}

	for _, p := range denied {
		for _, role := range []Role{RoleAdmin, RoleDoctor, RoleNurse} {
			d := Decide([]Role{role}, p.action, p.resource, PolicyContext{ActorID: uuid.New()})
			if d.Allowed {
				t.Errorf("Decide(%s, %s, %s) should be denied", role, p.action, p.resource)
			}
		}
	}
}

func TestDecide_NoGrantsDeniesEverything(t *testing.T) {
	actions := []Action{ActionView, ActionCreate, ActionUpdate, ActionDelete}
	resources := []Resource{ResourcePatient, ResourceMedicalRecord, ResourceAssignment, ResourceStaffRole, ResourceAuditLog}

	for _, a := range actions {
		for _, r := range resources {
			d := Decide(nil, a, r, PolicyContext{ActorID: uuid.New()})
			if d.Allowed {
				t.Errorf("Decide(no grants, %s, %s) should be denied", a, r)
			}
		}
	}
}

func TestDecide_SelfModification(t *testing.T) {
	id := uuid.New()
	d := Decide([]Role{RoleAdmin}, ActionUpdate, ResourceStaffRole, PolicyContext{
		ActorID:       id,
		TargetStaffID: id,
	})
	if d.Allowed {
		t.Fatal("admin changing own role must be denied")
	}
	if d.Reason != "self-modification" {
		t.Errorf("reason = %q, want self-modification", d.Reason)
	}

	// A different target is fine.
	d = Decide([]Role{RoleAdmin}, ActionUpdate, ResourceStaffRole, PolicyContext{
		ActorID:       id,
		TargetStaffID: uuid.New(),
	})
	if !d.Allowed {
		t.Errorf("admin changing another staff's role should be allowed, got %s", d.Reason)
	}
}

func TestDecision_Err(t *testing.T) {
	if err := (Decision{Allowed: true}).Err(); err != nil {
		t.Errorf("allowed decision returned error: %v", err)
	}

	err := (Decision{Allowed: false, Reason: "self-modification"}).Err()
	forbidden, ok := err.(*ForbiddenError)
	if !ok {
		t.Fatalf("expected *ForbiddenError, got %T", err)
	}
	if forbidden.Reason != "self-modification" {
		t.Errorf("reason = %q", forbidden.Reason)
	}
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"admin", "doctor", "nurse"} {
		if _, err := ParseRole(valid); err != nil {
			t.Errorf("ParseRole(%q) error: %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "none", "Admin", "superuser"} {
		if _, err := ParseRole(invalid); err == nil {
			t.Errorf("ParseRole(%q) should fail", invalid)
		}
	}
}

func TestParseRoleAssignment(t *testing.T) {
	for _, valid := range []string{"admin", "doctor", "nurse", "none"} {
		if _, err := ParseRoleAssignment(valid); err != nil {
			t.Errorf("ParseRoleAssignment(%q) error: %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "None", "revoked"} {
		if _, err := ParseRoleAssignment(invalid); err == nil {
			t.Errorf("ParseRoleAssignment(%q) should fail", invalid)
		}
	}
	if role, _ := ParseRoleAssignment("none"); role != RoleNone {
		t.Errorf("ParseRoleAssignment(none) = %q", role)
	}
}
