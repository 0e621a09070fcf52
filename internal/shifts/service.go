package shifts

import (
	"context"
	"time"

	"github.com/hospitalia/hospitalia/internal/shared"
)

// RepositoryPort abstracts shift persistence for the service.
type RepositoryPort interface {
	List(ctx context.Context, enfermeroID int64, desde, hasta time.Time) ([]Turno, error)
	Get(ctx context.Context, id int64) (Turno, error)
	Create(ctx context.Context, input Input) (Turno, error)
	Update(ctx context.Context, id int64, input Input) (Turno, error)
	Delete(ctx context.Context, id int64) error
}

// Service applies roster business rules.
type Service struct {
	repo RepositoryPort
}

// NewService creates a shift service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, enfermeroID int64, desde, hasta time.Time) ([]Turno, error) {
	return s.repo.List(ctx, enfermeroID, desde, hasta)
}

func (s *Service) Get(ctx context.Context, id int64) (Turno, error) {
	if id <= 0 {
		return Turno{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, input Input) (Turno, error) {
	if err := validate(input); err != nil {
		return Turno{}, err
	}
	return s.repo.Create(ctx, input)
}

func (s *Service) Update(ctx context.Context, id int64, input Input) (Turno, error) {
	if id <= 0 {
		return Turno{}, shared.ErrNotFound
	}
	if err := validate(input); err != nil {
		return Turno{}, err
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
	if input.EnfermeroID <= 0 {
		return ErrNurseRequired
	}
	if input.FechaInicio.IsZero() || input.FechaFin.IsZero() || !input.FechaFin.After(input.FechaInicio) {
		return ErrInvalidRange
	}
	switch input.Tipo {
	case TipoMatutino, TipoVespertino, TipoNocturno:
		return nil
	default:
		return shared.ErrValidation
	}
}
