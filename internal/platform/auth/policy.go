package auth

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is a staff role grant. A staff identity with zero grants is not staff
// and is denied every action.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDoctor Role = "doctor"
	RoleNurse  Role = "nurse"

	// RoleNone is an assignment sentinel, not a grant: replacing a member's
	// role with none revokes every grant, returning the account to pending
	// approval. It never appears in the policy table or in storage.
	RoleNone Role = "none"
)

// ParseRole validates a stored or granted role name. It rejects RoleNone,
// which is only meaningful as an assignment.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleDoctor, RoleNurse:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role: %q", s)
}

// ParseRoleAssignment validates a role name in a role-replace request, where
// "none" additionally means revoke all grants.
func ParseRoleAssignment(s string) (Role, error) {
	if Role(s) == RoleNone {
		return RoleNone, nil
	}
	return ParseRole(s)
}

// Action is the kind of operation an actor attempts against a resource.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resource identifies the kind of resource a policy decision is about.
type Resource string

const (
	ResourcePatient       Resource = "patient"
	ResourceMedicalRecord Resource = "medical_record"
	ResourceAssignment    Resource = "patient_assignment"
	ResourceStaffRole     Resource = "staff_role"
	ResourceAuditLog      Resource = "audit_log"
)

// PolicyContext carries the request-scoped attributes a decision may depend on
// beyond the actor's roles.
type PolicyContext struct {
	ActorID uuid.UUID
	// TargetStaffID is set for staff-role management decisions; when it
	// equals ActorID the decision is denied regardless of roles.
	TargetStaffID uuid.UUID
}

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allowed bool
	Reason  string
}

// Err returns nil for an allowed decision and a *ForbiddenError otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &ForbiddenError{Reason: d.Reason}
}

// ForbiddenError is returned when a policy decision denies the action.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return "forbidden: " + e.Reason
}

type permission struct {
	Action   Action
	Resource Resource
}

// policyTable enumerates every allowed (action, resource) pair per role.
// Anything absent from the table is denied. There is no admin bypass: the
// table is the single source of truth, which is what keeps medical records
// append-only even for admins.
var policyTable = map[permission][]Role{
	{ActionView, ResourcePatient}:         {RoleAdmin, RoleDoctor, RoleNurse},
	{ActionCreate, ResourcePatient}:       {RoleAdmin, RoleDoctor, RoleNurse},
	{ActionDelete, ResourcePatient}:       {RoleAdmin},
	{ActionView, ResourceMedicalRecord}:   {RoleAdmin, RoleDoctor, RoleNurse},
	{ActionCreate, ResourceMedicalRecord}: {RoleAdmin, RoleDoctor, RoleNurse},
	{ActionView, ResourceAssignment}:      {RoleAdmin, RoleDoctor, RoleNurse},
	{ActionCreate, ResourceAssignment}:    {RoleAdmin, RoleDoctor},
	{ActionDelete, ResourceAssignment}:    {RoleAdmin, RoleDoctor},
	{ActionView, ResourceStaffRole}:       {RoleAdmin},
	{ActionUpdate, ResourceStaffRole}:     {RoleAdmin},
	{ActionView, ResourceAuditLog}:        {RoleAdmin},
}

// Decide evaluates whether an actor holding the given roles may perform the
// action on the resource. Evaluation is fail-closed: unknown (action,
// resource) pairs and empty role sets are denied. The self-modification rule
// for staff-role management takes precedence over the table.
func Decide(roles []Role, action Action, resource Resource, pc PolicyContext) Decision {
	if resource == ResourceStaffRole && pc.TargetStaffID != uuid.Nil && pc.TargetStaffID == pc.ActorID {
		return Decision{Allowed: false, Reason: "self-modification"}
	}

	allowed, ok := policyTable[permission{Action: action, Resource: resource}]
	if !ok {
		return Decision{Allowed: false, Reason: fmt.Sprintf("no policy for %s %s", action, resource)}
	}

	for _, have := range roles {
		for _, want := range allowed {
			if have == want {
				return Decision{Allowed: true, Reason: "role " + string(have)}
			}
		}
	}

	return Decision{Allowed: false, Reason: fmt.Sprintf("insufficient role for %s %s", action, resource)}
}
