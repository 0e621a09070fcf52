package trainings

import (
	"context"
	"strings"

	"github.com/hospitalia/hospitalia/internal/shared"
)

// RepositoryPort abstracts training persistence for the service.
type RepositoryPort interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Capacitacion, int, error)
	Get(ctx context.Context, id int64) (Capacitacion, error)
	Create(ctx context.Context, input Input) (Capacitacion, error)
	Update(ctx context.Context, id int64, input Input) (Capacitacion, error)
	Delete(ctx context.Context, id int64) error
	Enroll(ctx context.Context, capacitacionID, enfermeroID int64) error
	Unenroll(ctx context.Context, capacitacionID, enfermeroID int64) error
	Enrollments(ctx context.Context, capacitacionID int64) ([]Inscripcion, error)
}

// Service applies training business rules.
type Service struct {
	repo RepositoryPort
}

// NewService creates a training service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Capacitacion, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Capacitacion, error) {
	if id <= 0 {
		return Capacitacion{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, input Input) (Capacitacion, error) {
	if err := validate(input); err != nil {
		return Capacitacion{}, err
	}
	return s.repo.Create(ctx, input)
}

func (s *Service) Update(ctx context.Context, id int64, input Input) (Capacitacion, error) {
	if id <= 0 {
		return Capacitacion{}, shared.ErrNotFound
	}
	if err := validate(input); err != nil {
		return Capacitacion{}, err
	}
	return s.repo.Update(ctx, id, input)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

// Enroll registers a nurse for a session, respecting the seat limit.
func (s *Service) Enroll(ctx context.Context, capacitacionID, enfermeroID int64) error {
	if capacitacionID <= 0 {
		return shared.ErrNotFound
	}
	if enfermeroID <= 0 {
		return ErrNurseRequired
	}
	return s.repo.Enroll(ctx, capacitacionID, enfermeroID)
}

// Unenroll removes a nurse from a session.
func (s *Service) Unenroll(ctx context.Context, capacitacionID, enfermeroID int64) error {
	if capacitacionID <= 0 || enfermeroID <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.Unenroll(ctx, capacitacionID, enfermeroID)
}

// Enrollments lists the nurses enrolled in a session.
func (s *Service) Enrollments(ctx context.Context, capacitacionID int64) ([]Inscripcion, error) {
	if capacitacionID <= 0 {
		return nil, shared.ErrNotFound
	}
	if _, err := s.repo.Get(ctx, capacitacionID); err != nil {
		return nil, err
	}
	return s.repo.Enrollments(ctx, capacitacionID)
}

func validate(input Input) error {
	if strings.TrimSpace(input.Titulo) == "" {
		return ErrTitleRequired
	}
	if input.Cupo <= 0 {
		return ErrInvalidCupo
	}
	if input.DuracionHoras < 0 {
		return shared.ErrValidation
	}
	return nil
}
