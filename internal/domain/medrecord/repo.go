package medrecord

import (
	"context"

	"github.com/google/uuid"
)

// Repository deliberately has no update or delete methods.
type Repository interface {
	Create(ctx context.Context, r *Record) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Record, error)
}
