package stats

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	calls   int
	resumen Resumen
}

func (c *countingRepo) Resumen(context.Context) (Resumen, error) {
	c.calls++
	return c.resumen, nil
}

func (c *countingRepo) Ocupacion(context.Context) ([]ServicioOcupacion, error) {
	c.calls++
	return []ServicioOcupacion{{ServicioID: 1, Nombre: "Urgencias", Capacidad: 20, Admitidos: 14}}, nil
}

func newCachedService(t *testing.T) (*Service, *countingRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &countingRepo{resumen: Resumen{TotalPacientes: 42, PacientesActivos: 30}}
	return NewService(repo, NewCache(client, time.Minute)), repo
}

func TestResumenServedFromCache(t *testing.T) {
	svc, repo := newCachedService(t)

	first, err := svc.Resumen(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(42), first.TotalPacientes)
	require.Equal(t, 1, repo.calls)

	second, err := svc.Resumen(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.calls, "second read must hit the cache")
}

func TestInvalidateForcesReload(t *testing.T) {
	svc, repo := newCachedService(t)

	_, err := svc.Resumen(context.Background())
	require.NoError(t, err)

	repo.resumen.TotalPacientes = 50
	require.NoError(t, svc.Invalidate(context.Background()))

	reloaded, err := svc.Resumen(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(50), reloaded.TotalPacientes)
	require.Equal(t, 2, repo.calls)
}

func TestResumenWithoutRedis(t *testing.T) {
	repo := &countingRepo{resumen: Resumen{TotalEnfermeros: 7}}
	svc := NewService(repo, nil)

	resumen, err := svc.Resumen(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(7), resumen.TotalEnfermeros)

	// Every read loads fresh when no cache is configured.
	_, err = svc.Resumen(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
}

func TestOcupacionCached(t *testing.T) {
	svc, repo := newCachedService(t)

	rows, err := svc.Ocupacion(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(14), rows[0].Admitidos)

	_, err = svc.Ocupacion(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, repo.calls)
}
