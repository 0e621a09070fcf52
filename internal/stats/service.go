package stats

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// RepositoryPort abstracts the aggregate queries.
type RepositoryPort interface {
	Resumen(ctx context.Context) (Resumen, error)
	Ocupacion(ctx context.Context) ([]ServicioOcupacion, error)
}

// Service serves dashboard aggregates through the cache. Concurrent cache
// misses for the same key collapse into one repository query.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	group singleflight.Group
}

// NewService creates a stats service. cache may be nil.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Resumen returns the summary block.
func (s *Service) Resumen(ctx context.Context) (Resumen, error) {
	key, err := s.cache.BuildKey(ctx, "stats", "resumen")
	if err != nil {
		return Resumen{}, err
	}
	out, err, _ := s.group.Do(key, func() (any, error) {
		var resumen Resumen
		err := s.cache.FetchJSON(ctx, key, &resumen, func(ctx context.Context) (any, error) {
			return s.repo.Resumen(ctx)
		})
		return resumen, err
	})
	if err != nil {
		return Resumen{}, err
	}
	return out.(Resumen), nil
}

// Ocupacion returns per-ward occupancy.
func (s *Service) Ocupacion(ctx context.Context) ([]ServicioOcupacion, error) {
	key, err := s.cache.BuildKey(ctx, "stats", "ocupacion")
	if err != nil {
		return nil, err
	}
	out, err, _ := s.group.Do(key, func() (any, error) {
		var rows []ServicioOcupacion
		err := s.cache.FetchJSON(ctx, key, &rows, func(ctx context.Context) (any, error) {
			return s.repo.Ocupacion(ctx)
		})
		return rows, err
	})
	if err != nil {
		return nil, err
	}
	return out.([]ServicioOcupacion), nil
}

// Invalidate bumps the cache version after record mutations.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
