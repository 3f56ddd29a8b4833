package billing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/caseworks/caseworks/internal/platform/db"
	"github.com/caseworks/caseworks/internal/platform/extract"
)

type Service struct {
	repo   LineItemRepository
	cases  CaseChecker
	engine *Engine
	pool   db.TxBeginner
	logger zerolog.Logger
}

func NewService(repo LineItemRepository, cases CaseChecker, engine *Engine, pool db.TxBeginner, logger zerolog.Logger) *Service {
	return &Service{repo: repo, cases: cases, engine: engine, pool: pool, logger: logger}
}

func (s *Service) requireCase(ctx context.Context, caseID uuid.UUID) error {
	if caseID == uuid.Nil {
		return newValidationError("case_id", "required")
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

func (s *Service) CreateLineItem(ctx context.Context, item *BillLineItem) error {
	if err := s.requireCase(ctx, item.CaseID); err != nil {
		return err
	}
	if item.ProviderName == "" {
		return newValidationError("provider_name", "required")
	}
	if item.BilledAmount < 0 {
		return newValidationError("billed_amount", "must not be negative")
	}
	if item.PaidAmount != nil && *item.PaidAmount < 0 {
		return newValidationError("paid_amount", "must not be negative")
	}
	if !validItemStatus(item.Status) {
		return newValidationError("status", "must be paid, pending or denied")
	}
	if item.Sequence == 0 {
		seq, err := s.repo.NextSequence(ctx, item.CaseID)
		if err != nil {
			return err
		}
		item.Sequence = seq
	}
	return s.repo.Create(ctx, item)
}

func (s *Service) GetLineItem(ctx context.Context, id uuid.UUID) (*BillLineItem, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateLineItem(ctx context.Context, item *BillLineItem) error {
	if item.ID == uuid.Nil {
		return newValidationError("id", "required")
	}
	if item.BilledAmount < 0 {
		return newValidationError("billed_amount", "must not be negative")
	}
	if !validItemStatus(item.Status) {
		return newValidationError("status", "must be paid, pending or denied")
	}
	return s.repo.Update(ctx, item)
}

func (s *Service) DeleteLineItem(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListLineItems(ctx context.Context, caseID uuid.UUID, limit, offset int) ([]*BillLineItem, int, error) {
	if err := s.requireCase(ctx, caseID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByCase(ctx, caseID, limit, offset)
}

// Summary recomputes the full billing report for a case from its stored
// line items. An empty item set is a valid zero-valued summary, not an
// error.
func (s *Service) Summary(ctx context.Context, caseID uuid.UUID) (*BillingSummary, error) {
	if err := s.requireCase(ctx, caseID); err != nil {
		return nil, err
	}
	items, err := s.repo.AllByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return s.engine.BuildSummary(caseID, items), nil
}

// ApplySummary recomputes the report and persists duplicate flags and
// assessment tags onto the line items in one transaction. The summary stays
// derived data; only the per-item tags are written back.
func (s *Service) ApplySummary(ctx context.Context, caseID uuid.UUID) (*BillingSummary, error) {
	summary, err := s.Summary(ctx, caseID)
	if err != nil {
		return nil, err
	}

	flagged := make(map[uuid.UUID]string, len(summary.DuplicateMatches))
	for _, match := range summary.DuplicateMatches {
		if _, ok := flagged[match.FlaggedItemID]; !ok {
			flagged[match.FlaggedItemID] = match.MatchType
		}
	}
	assessments := make(map[uuid.UUID]string, len(summary.Rows))
	for _, row := range summary.Rows {
		assessments[row.ItemID] = row.Assessment
	}

	err = db.WithTx(ctx, s.pool, func(txCtx context.Context) error {
		return s.repo.ApplyAnalysis(txCtx, caseID, flagged, assessments)
	})
	if err != nil {
		return nil, fmt.Errorf("apply billing analysis: %w", err)
	}

	s.logger.Info().
		Str("case_id", caseID.String()).
		Int("flagged", len(flagged)).
		Int("assessed", len(assessments)).
		Msg("billing analysis applied")

	return summary, nil
}

// ImportRecords converts raw extracted bill records into stored line items.
// Records with unparseable amounts are skipped and tallied; the batch never
// fails on individual bad rows.
func (s *Service) ImportRecords(ctx context.Context, caseID uuid.UUID, records []extract.RawBillRecord) (imported, skipped int, err error) {
	if err := s.requireCase(ctx, caseID); err != nil {
		return 0, 0, err
	}

	seq, err := s.repo.NextSequence(ctx, caseID)
	if err != nil {
		return 0, 0, err
	}

	items := make([]*BillLineItem, 0, len(records))
	for _, rec := range records {
		amount, ok := parseAmount(rec.Amount)
		if !ok {
			skipped++
			s.logger.Warn().
				Str("case_id", caseID.String()).
				Str("provider", rec.ProviderName).
				Str("raw_amount", rec.Amount).
				Msg("skipping bill record with unparseable amount")
			continue
		}

		item := &BillLineItem{
			ID:            uuid.New(),
			CaseID:        caseID,
			Sequence:      seq,
			ProviderName:  rec.ProviderName,
			ServiceType:   rec.ServiceType,
			EncounterType: rec.EncounterType,
			ServiceCode:   rec.ServiceCode,
			Description:   rec.Description,
			BilledAmount:  amount,
		}
		if paid, ok := parseAmount(rec.PaidAmount); ok {
			item.PaidAmount = &paid
			outstanding := roundCents(amount - paid)
			item.Outstanding = &outstanding
		}
		if status := strings.ToLower(strings.TrimSpace(rec.Status)); validItemStatus(status) {
			item.Status = status
		}
		if rec.DocumentID != uuid.Nil {
			docID := rec.DocumentID
			item.DocumentID = &docID
		}
		if !rec.ServiceDate.IsZero() {
			date := rec.ServiceDate
			item.ServiceDate = &date
		}
		items = append(items, item)
		seq++
	}

	err = db.WithTx(ctx, s.pool, func(txCtx context.Context) error {
		return s.repo.CreateBatch(txCtx, items)
	})
	if err != nil {
		return 0, skipped, fmt.Errorf("import bill records: %w", err)
	}
	return len(items), skipped, nil
}

// parseAmount reads a raw currency string, tolerating symbols and grouping
// commas. Non-positive and malformed values are rejected.
func parseAmount(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, false
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}
