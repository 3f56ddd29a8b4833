package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/caseworks/caseworks/internal/platform/extract"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// maxDocumentBytes caps inline uploads at 10 MiB.
const maxDocumentBytes = 10 << 20

// CaseChecker verifies a case exists before documents attach to it.
type CaseChecker interface {
	CaseExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// RecordImporter stores extracted bill records as line items.
type RecordImporter interface {
	ImportRecords(ctx context.Context, caseID uuid.UUID, records []extract.RawBillRecord) (imported, skipped int, err error)
}

type Service struct {
	repo     Repository
	cases    CaseChecker
	importer RecordImporter
	runner   *extract.Runner
	logger   zerolog.Logger
}

func NewService(repo Repository, cases CaseChecker, importer RecordImporter, runner *extract.Runner, logger zerolog.Logger) *Service {
	return &Service{repo: repo, cases: cases, importer: importer, runner: runner, logger: logger}
}

func (s *Service) requireCase(ctx context.Context, caseID uuid.UUID) error {
	if caseID == uuid.Nil {
		return fmt.Errorf("case_id is required")
	}
	exists, err := s.cases.CaseExists(ctx, caseID)
	if err != nil {
		return fmt.Errorf("check case %s: %w", caseID, err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

func (s *Service) Upload(ctx context.Context, doc *CaseDocument) error {
	if err := s.requireCase(ctx, doc.CaseID); err != nil {
		return err
	}
	if doc.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(doc.Content) == 0 {
		return fmt.Errorf("content is required")
	}
	if len(doc.Content) > maxDocumentBytes {
		return fmt.Errorf("document exceeds %d byte limit", maxDocumentBytes)
	}
	if doc.Category == "" {
		doc.Category = CategoryOther
	}
	if !validCategory(doc.Category) {
		return fmt.Errorf("invalid category %q", doc.Category)
	}
	if doc.ContentType == "" {
		doc.ContentType = "application/octet-stream"
	}
	return s.repo.Create(ctx, doc)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*CaseDocument, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, caseID uuid.UUID, limit, offset int) ([]*CaseDocument, int, error) {
	if err := s.requireCase(ctx, caseID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByCase(ctx, caseID, limit, offset)
}

// ExtractResult reports one extraction run over a case's billing documents.
type ExtractResult struct {
	Documents    int         `json:"documents"`
	FailedDocs   int         `json:"failed_documents"`
	FailedDocIDs []uuid.UUID `json:"failed_document_ids,omitempty"`
	Imported     int         `json:"imported"`
	Skipped      int         `json:"skipped"`
}

// ExtractBills parses every billing-category document of a case through the
// worker pool and imports the resulting records as bill line items. Parse
// failures skip the document; bad rows skip the row.
func (s *Service) ExtractBills(ctx context.Context, caseID uuid.UUID) (*ExtractResult, error) {
	if err := s.requireCase(ctx, caseID); err != nil {
		return nil, err
	}

	docs, err := s.repo.AllByCaseCategory(ctx, caseID, CategoryBilling)
	if err != nil {
		return nil, err
	}

	batch := make([]extract.Document, 0, len(docs))
	for _, doc := range docs {
		batch = append(batch, extract.Document{
			ID:          doc.ID,
			Name:        doc.Name,
			ContentType: doc.ContentType,
			Content:     doc.Content,
		})
	}

	run := s.runner.Run(ctx, batch)

	imported, skipped, err := s.importer.ImportRecords(ctx, caseID, run.Records)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("case_id", caseID.String()).
		Int("documents", run.Processed).
		Int("failed_documents", run.Failed).
		Int("imported", imported).
		Int("skipped", skipped).
		Msg("bill extraction completed")

	return &ExtractResult{
		Documents:    run.Processed,
		FailedDocs:   run.Failed,
		FailedDocIDs: run.FailedDocIDs,
		Imported:     imported,
		Skipped:      skipped,
	}, nil
}
