package documents

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, doc *CaseDocument) error
	GetByID(ctx context.Context, id uuid.UUID) (*CaseDocument, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByCase returns document metadata without content.
	ListByCase(ctx context.Context, caseID uuid.UUID, limit, offset int) ([]*CaseDocument, int, error)
	// AllByCaseCategory returns full documents, content included, for one
	// category of a case.
	AllByCaseCategory(ctx context.Context, caseID uuid.UUID, category string) ([]*CaseDocument, error)
}
