package audit

import (
	"context"
)

type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	Query(ctx context.Context, f QueryFilter) ([]*Entry, error)
}
