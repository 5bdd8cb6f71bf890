package assignment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Insert returns ErrDuplicateAssignment when the (patient, staff) pair
	// already exists.
	Insert(ctx context.Context, a *Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ListForPatient returns assignments in insertion order with staff
	// display fields joined.
	ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*Assignment, error)
	// ListCandidates returns granted staff not yet assigned to the patient.
	ListCandidates(ctx context.Context, patientID uuid.UUID) ([]*Candidate, error)
}
