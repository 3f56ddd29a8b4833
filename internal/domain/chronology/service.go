package chronology

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a chronology entry does not exist.
var ErrNotFound = errors.New("chronology entry not found")

// CaseChecker verifies a case exists before entries attach to it.
type CaseChecker interface {
	CaseExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	repo   Repository
	cases  CaseChecker
	logger zerolog.Logger
}

func NewService(repo Repository, cases CaseChecker, logger zerolog.Logger) *Service {
	return &Service{repo: repo, cases: cases, logger: logger}
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

func (s *Service) Create(ctx context.Context, e *Entry) error {
	if err := s.requireCase(ctx, e.CaseID); err != nil {
		return err
	}
	if e.Title == "" {
		return fmt.Errorf("title is required")
	}
	if e.OccurredOn.IsZero() {
		return fmt.Errorf("occurred_on is required")
	}
	if e.Kind == "" {
		e.Kind = KindNote
	}
	if !validKind(e.Kind) {
		return fmt.Errorf("invalid kind %q", e.Kind)
	}
	return s.repo.Create(ctx, e)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		return fmt.Errorf("id is required")
	}
	if e.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !validKind(e.Kind) {
		return fmt.Errorf("invalid kind %q", e.Kind)
	}
	return s.repo.Update(ctx, e)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, caseID uuid.UUID, filter ListFilter, limit, offset int) ([]*Entry, int, error) {
	if err := s.requireCase(ctx, caseID); err != nil {
		return nil, 0, err
	}
	if filter.Kind != "" && !validKind(filter.Kind) {
		return nil, 0, fmt.Errorf("invalid kind %q", filter.Kind)
	}
	return s.repo.ListByCase(ctx, caseID, filter, limit, offset)
}
