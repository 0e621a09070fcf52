package nurses

import (
	"context"
	"strings"

	"github.com/hospitalia/hospitalia/internal/shared"
)

// RepositoryPort abstracts nurse persistence for the service.
type RepositoryPort interface {
	List(ctx context.Context, servicioID int64, filters shared.ListFilters) ([]Enfermero, int, error)
	Get(ctx context.Context, id int64) (Enfermero, error)
	Create(ctx context.Context, input Input) (Enfermero, error)
	Update(ctx context.Context, id int64, input Input) (Enfermero, error)
	Delete(ctx context.Context, id int64) error
}

// Service applies staff business rules.
type Service struct {
	repo RepositoryPort
}

// NewService creates a nurse service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, servicioID int64, filters shared.ListFilters) ([]Enfermero, int, error) {
	return s.repo.List(ctx, servicioID, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Enfermero, error) {
	if id <= 0 {
		return Enfermero{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, input Input) (Enfermero, error) {
	normalized, err := normalize(input)
	if err != nil {
		return Enfermero{}, err
	}
	return s.repo.Create(ctx, normalized)
}

func (s *Service) Update(ctx context.Context, id int64, input Input) (Enfermero, error) {
	if id <= 0 {
		return Enfermero{}, shared.ErrNotFound
	}
	normalized, err := normalize(input)
	if err != nil {
		return Enfermero{}, err
	}
	return s.repo.Update(ctx, id, normalized)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func normalize(input Input) (Input, error) {
	input.Cedula = strings.ToUpper(strings.TrimSpace(input.Cedula))
	if input.Cedula == "" {
		return Input{}, ErrCedulaRequired
	}
	if strings.TrimSpace(input.Nombre) == "" || strings.TrimSpace(input.Apellidos) == "" {
		return Input{}, ErrNameRequired
	}
	return input, nil
}
