package hospitals

import (
	"context"
	"strings"

	"github.com/hospitalia/hospitalia/internal/shared"
)

// RepositoryPort abstracts hospital persistence for the service.
type RepositoryPort interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Hospital, int, error)
	Get(ctx context.Context, id int64) (Hospital, error)
	Create(ctx context.Context, input Input) (Hospital, error)
	Update(ctx context.Context, id int64, input Input) (Hospital, error)
	Delete(ctx context.Context, id int64) error
}

// Service applies hospital business rules on top of the repository.
type Service struct {
	repo RepositoryPort
}

// NewService creates a hospital service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Hospital, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Hospital, error) {
	if id <= 0 {
		return Hospital{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, input Input) (Hospital, error) {
	if strings.TrimSpace(input.Nombre) == "" {
		return Hospital{}, ErrNameRequired
	}
	return s.repo.Create(ctx, input)
}

func (s *Service) Update(ctx context.Context, id int64, input Input) (Hospital, error) {
	if id <= 0 {
		return Hospital{}, shared.ErrNotFound
	}
	if strings.TrimSpace(input.Nombre) == "" {
		return Hospital{}, ErrNameRequired
	}
	return s.repo.Update(ctx, id, input)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}
