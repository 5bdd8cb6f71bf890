package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	// List returns patients newest first. search narrows by name, email or
	// phone, case-insensitively.
	List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
