package billing

import (
	"context"

	"github.com/google/uuid"
)

type LineItemRepository interface {
	Create(ctx context.Context, item *BillLineItem) error
	CreateBatch(ctx context.Context, items []*BillLineItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*BillLineItem, error)
	Update(ctx context.Context, item *BillLineItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByCase(ctx context.Context, caseID uuid.UUID, limit, offset int) ([]*BillLineItem, int, error)
	// AllByCase returns every line item for a case in ingestion order.
	AllByCase(ctx context.Context, caseID uuid.UUID) ([]*BillLineItem, error)
	NextSequence(ctx context.Context, caseID uuid.UUID) (int, error)
	// ApplyAnalysis persists duplicate flags and assessment tags computed by
	// the engine back onto the stored items.
	ApplyAnalysis(ctx context.Context, caseID uuid.UUID, flagged map[uuid.UUID]string, assessments map[uuid.UUID]string) error
}

// CaseChecker verifies a case exists before analysis runs against it.
type CaseChecker interface {
	CaseExists(ctx context.Context, id uuid.UUID) (bool, error)
}
