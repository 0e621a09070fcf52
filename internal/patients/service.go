package patients

import (
	"context"
	"strings"

	"github.com/hospitalia/hospitalia/internal/shared"
)

// RepositoryPort abstracts patient persistence for the service.
type RepositoryPort interface {
	List(ctx context.Context, servicioID int64, filters shared.ListFilters) ([]Paciente, int, error)
	Get(ctx context.Context, id int64) (Paciente, error)
	Create(ctx context.Context, input Input) (Paciente, error)
	Update(ctx context.Context, id int64, input Input) (Paciente, error)
	Delete(ctx context.Context, id int64) error
}

// Service applies patient business rules.
type Service struct {
	repo RepositoryPort
}

// NewService creates a patient service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, servicioID int64, filters shared.ListFilters) ([]Paciente, int, error) {
	return s.repo.List(ctx, servicioID, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Paciente, error) {
	if id <= 0 {
		return Paciente{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, input Input) (Paciente, error) {
	normalized, err := normalize(input)
	if err != nil {
		return Paciente{}, err
	}
	return s.repo.Create(ctx, normalized)
}

func (s *Service) Update(ctx context.Context, id int64, input Input) (Paciente, error) {
	if id <= 0 {
		return Paciente{}, shared.ErrNotFound
	}
	normalized, err := normalize(input)
	if err != nil {
		return Paciente{}, err
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
	input.NumeroExpediente = strings.ToUpper(strings.TrimSpace(input.NumeroExpediente))
	if input.NumeroExpediente == "" {
		return Input{}, ErrExpedienteRequired
	}
	if strings.TrimSpace(input.Nombre) == "" || strings.TrimSpace(input.Apellidos) == "" {
		return Input{}, ErrNameRequired
	}
	if input.ServicioID <= 0 {
		return Input{}, ErrWardRequired
	}
	if input.Estado == "" {
		input.Estado = EstadoActivo
	}
	return input, nil
}
