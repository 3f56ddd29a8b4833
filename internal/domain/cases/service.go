package cases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a case does not exist.
var ErrNotFound = errors.New("case not found")

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Create(ctx context.Context, c *Case) error {
	if c.CaseNumber == "" {
		return fmt.Errorf("case_number is required")
	}
	if c.Title == "" {
		return fmt.Errorf("title is required")
	}
	if c.ClientName == "" {
		return fmt.Errorf("client_name is required")
	}
	if c.Status == "" {
		c.Status = StatusOpen
	}
	if !validStatus(c.Status) {
		return fmt.Errorf("invalid status %q", c.Status)
	}
	if c.OpenedAt.IsZero() {
		c.OpenedAt = time.Now().UTC()
	}

	if existing, err := s.repo.GetByNumber(ctx, c.CaseNumber); err == nil && existing != nil {
		return fmt.Errorf("case number %s already exists", c.CaseNumber)
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return err
	}
	s.logger.Info().Str("case_id", c.ID.String()).Str("case_number", c.CaseNumber).Msg("case opened")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Case, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByNumber(ctx context.Context, number string) (*Case, error) {
	return s.repo.GetByNumber(ctx, number)
}

func (s *Service) Update(ctx context.Context, c *Case) error {
	if c.ID == uuid.Nil {
		return fmt.Errorf("id is required")
	}
	if !validStatus(c.Status) {
		return fmt.Errorf("invalid status %q", c.Status)
	}

	current, err := s.repo.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}

	// Closing timestamps follow the status transition, not the payload.
	if current.Status == StatusOpen && c.Status != StatusOpen && c.ClosedAt == nil {
		now := time.Now().UTC()
		c.ClosedAt = &now
	}
	if c.Status == StatusOpen {
		c.ClosedAt = nil
	}
	c.CaseNumber = current.CaseNumber

	return s.repo.Update(ctx, c)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Case, int, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, 0, fmt.Errorf("invalid status %q", filter.Status)
	}
	return s.repo.List(ctx, filter, limit, offset)
}

// CaseExists satisfies the billing layer's case checker.
func (s *Service) CaseExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}
