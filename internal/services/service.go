package services

import (
	"context"
	"strings"

	"github.com/hospitalia/hospitalia/internal/shared"
)

// RepositoryPort abstracts ward persistence for the service.
type RepositoryPort interface {
	List(ctx context.Context, hospitalID int64, filters shared.ListFilters) ([]Servicio, int, error)
	Get(ctx context.Context, id int64) (Servicio, error)
	Create(ctx context.Context, input Input) (Servicio, error)
	Update(ctx context.Context, id int64, input Input) (Servicio, error)
	Delete(ctx context.Context, id int64) error
}

// Service applies ward business rules.
type Service struct {
	repo RepositoryPort
}

// NewService creates a ward service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, hospitalID int64, filters shared.ListFilters) ([]Servicio, int, error) {
	return s.repo.List(ctx, hospitalID, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Servicio, error) {
	if id <= 0 {
		return Servicio{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, input Input) (Servicio, error) {
	if err := validate(input); err != nil {
		return Servicio{}, err
	}
	return s.repo.Create(ctx, input)
}

func (s *Service) Update(ctx context.Context, id int64, input Input) (Servicio, error) {
	if id <= 0 {
		return Servicio{}, shared.ErrNotFound
	}
	if err := validate(input); err != nil {
		return Servicio{}, err
	}
	return s.repo.Update(ctx, id, input)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func validate(input Input) error {
	if strings.TrimSpace(input.Nombre) == "" {
		return ErrNameRequired
	}
	if input.HospitalID <= 0 {
		return ErrHospitalRequired
	}
	if input.Capacidad < 0 {
		return shared.ErrValidation
	}
	return nil
}
