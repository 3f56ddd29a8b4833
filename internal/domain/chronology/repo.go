package chronology

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByCase returns entries in timeline order (occurred_on ascending).
	ListByCase(ctx context.Context, caseID uuid.UUID, filter ListFilter, limit, offset int) ([]*Entry, int, error)
}

// ListFilter narrows ListByCase; zero values mean no constraint.
type ListFilter struct {
	Kind string
	From time.Time
	To   time.Time
}
