package cases

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Case) error
	GetByID(ctx context.Context, id uuid.UUID) (*Case, error)
	GetByNumber(ctx context.Context, number string) (*Case, error)
	Update(ctx context.Context, c *Case) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Case, int, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ListFilter narrows List; zero values mean no constraint.
type ListFilter struct {
	Status     string
	MatterType string
	ClientName string
}
