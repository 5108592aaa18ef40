package department

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/bms/bms/internal/platform/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, in CreateInput, actor string) (*Department, error) {
	code := strings.TrimSpace(in.Code)
	name := strings.TrimSpace(in.Name)
	if code == "" {
		return nil, apperr.Validation("department code is required")
	}
	if name == "" {
		return nil, apperr.Validation("department name is required")
	}

	d := &Department{
		Code:      strings.ToUpper(code),
		Name:      name,
		Floor:     in.Floor,
		Active:    true,
		CreatedBy: actor,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Department, error) {
	return s.repo.GetByID(ctx, id)
}

// Exists implements the department reference check the bed registry
// performs on bed creation.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Department, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	d.Active = false
	return s.repo.Update(ctx, d)
}

func (s *Service) Stats(ctx context.Context, id uuid.UUID) (*Stats, error) {
	return s.repo.Stats(ctx, id)
}

func (s *Service) StatsAll(ctx context.Context) ([]*Stats, error) {
	return s.repo.StatsAll(ctx)
}
