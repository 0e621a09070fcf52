package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/hospitalia/hospitalia/internal/allocation"
	"github.com/hospitalia/hospitalia/internal/shared"
)

// RepositoryPort abstracts item persistence for the service.
type RepositoryPort interface {
	List(ctx context.Context, kind allocation.Kind, filters shared.ListFilters) ([]Item, int, error)
	Get(ctx context.Context, kind allocation.Kind, id int64) (Item, error)
	Create(ctx context.Context, kind allocation.Kind, input ItemInput) (Item, error)
	Update(ctx context.Context, kind allocation.Kind, id int64, input ItemInput, opID string) (Item, error)
	Delete(ctx context.Context, kind allocation.Kind, id int64) error
	ListMovements(ctx context.Context, itemID int64, limit int) ([]allocation.Movement, error)
}

// Service coordinates inventory record operations for one item family.
type Service struct {
	repo RepositoryPort
	kind allocation.Kind
}

// NewService builds a Service bound to one kind.
func NewService(repo RepositoryPort, kind allocation.Kind) *Service {
	return &Service{repo: repo, kind: kind}
}

// List returns items matching the filters.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Item, int, error) {
	return s.repo.List(ctx, s.kind, filters)
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, id int64) (Item, error) {
	if id <= 0 {
		return Item{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, s.kind, id)
}

// Create registers a new item. Stock defaults to zero and may never start
// negative.
func (s *Service) Create(ctx context.Context, input ItemInput) (Item, error) {
	if err := validate(input); err != nil {
		return Item{}, err
	}
	return s.repo.Create(ctx, s.kind, input)
}

// Update rewrites an item. A stock edit below zero is rejected before the
// repository is touched; legitimate edits are logged as AJUSTE movements.
func (s *Service) Update(ctx context.Context, id int64, input ItemInput) (Item, error) {
	if id <= 0 {
		return Item{}, shared.ErrNotFound
	}
	if err := validate(input); err != nil {
		return Item{}, err
	}
	return s.repo.Update(ctx, s.kind, id, input, uuid.NewString())
}

// Delete removes an item unless patients still hold it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.Delete(ctx, s.kind, id)
}

// Movements returns the ledger trail for one item.
func (s *Service) Movements(ctx context.Context, id int64, limit int) ([]allocation.Movement, error) {
	if id <= 0 {
		return nil, shared.ErrNotFound
	}
	if _, err := s.repo.Get(ctx, s.kind, id); err != nil {
		return nil, err
	}
	return s.repo.ListMovements(ctx, id, limit)
}

func validate(input ItemInput) error {
	if strings.TrimSpace(input.Nombre) == "" {
		return ErrNameRequired
	}
	if input.CantidadStock != nil && *input.CantidadStock < 0 {
		return ErrNegativeStock
	}
	return nil
}
