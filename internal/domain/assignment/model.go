package assignment

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/carechart/carechart/internal/platform/auth"
)

var (
	ErrNotFound = errors.New("assignment not found")
	// ErrDuplicateAssignment signals the unique (patient_id, staff_id)
	// constraint: a staff member is on a patient's care team at most once.
	ErrDuplicateAssignment = errors.New("staff member is already assigned to this patient")
	// ErrNotStaff is returned when the assignee holds no role grant.
	ErrNotStaff = errors.New("assignee has no role grant")
)

// Assignment maps to the patient_assignment table.
type Assignment struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	PatientID  uuid.UUID  `db:"patient_id" json:"patient_id"`
	StaffID    uuid.UUID  `db:"staff_id" json:"staff_id"`
	AssignedBy *uuid.UUID `db:"assigned_by" json:"assigned_by,omitempty"`
	AssignedAt time.Time  `db:"assigned_at" json:"assigned_at"`
	Notes      *string    `db:"notes" json:"notes,omitempty"`

	// Joined from staff_identity and staff_role_grant for display.
	StaffName  string      `json:"staff_name,omitempty"`
	StaffEmail string      `json:"staff_email,omitempty"`
	StaffRoles []auth.Role `json:"staff_roles,omitempty"`
}

// Candidate is a granted staff member not yet on the patient's care team.
type Candidate struct {
	StaffID  uuid.UUID   `json:"staff_id"`
	FullName string      `json:"full_name"`
	Email    string      `json:"email"`
	Roles    []auth.Role `json:"roles"`
}
