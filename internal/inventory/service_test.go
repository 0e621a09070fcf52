package inventory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hospitalia/hospitalia/internal/allocation"
	"github.com/hospitalia/hospitalia/internal/shared"
)

type memoryRepo struct {
	nextID    int64
	items     map[int64]Item
	assigned  map[int64]int
	movements map[int64][]allocation.Movement
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		nextID:    1,
		items:     map[int64]Item{},
		assigned:  map[int64]int{},
		movements: map[int64][]allocation.Movement{},
	}
}

func (m *memoryRepo) List(_ context.Context, kind allocation.Kind, filters shared.ListFilters) ([]Item, int, error) {
	var out []Item
	term := strings.ToLower(filters.Search)
	for _, it := range m.items {
		if it.Kind != kind {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(it.Nombre), term) {
			continue
		}
		out = append(out, it)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, kind allocation.Kind, id int64) (Item, error) {
	it, ok := m.items[id]
	if !ok || it.Kind != kind {
		return Item{}, shared.ErrNotFound
	}
	return it, nil
}

func (m *memoryRepo) Create(_ context.Context, kind allocation.Kind, input ItemInput) (Item, error) {
	var stock int64
	if input.CantidadStock != nil {
		stock = *input.CantidadStock
	}
	it := Item{
		ItemID:        m.nextID,
		Kind:          kind,
		Nombre:        input.Nombre,
		Descripcion:   input.Descripcion,
		CantidadStock: stock,
		Lote:          input.Lote,
		Categoria:     input.Categoria,
		UnidadMedida:  input.UnidadMedida,
		Ubicacion:     input.Ubicacion,
		CreadoEn:      time.Now(),
		ActualizadoEn: time.Now(),
	}
	m.nextID++
	m.items[it.ItemID] = it
	return it, nil
}

func (m *memoryRepo) Update(_ context.Context, kind allocation.Kind, id int64, input ItemInput, opID string) (Item, error) {
	it, ok := m.items[id]
	if !ok || it.Kind != kind {
		return Item{}, shared.ErrNotFound
	}
	it.Nombre = input.Nombre
	it.Descripcion = input.Descripcion
	if input.CantidadStock != nil && *input.CantidadStock != it.CantidadStock {
		delta := *input.CantidadStock - it.CantidadStock
		it.CantidadStock = *input.CantidadStock
		m.movements[id] = append(m.movements[id], allocation.Movement{
			ItemID: id,
			Seq:    int64(len(m.movements[id]) + 1),
			Delta:  delta,
			OpID:   opID,
			Reason: "AJUSTE",
		})
	}
	it.ActualizadoEn = time.Now()
	m.items[id] = it
	return it, nil
}

func (m *memoryRepo) Delete(_ context.Context, kind allocation.Kind, id int64) error {
	it, ok := m.items[id]
	if !ok || it.Kind != kind {
		return shared.ErrNotFound
	}
	if m.assigned[id] > 0 {
		return ErrHasAssignments
	}
	delete(m.items, id)
	return nil
}

func (m *memoryRepo) ListMovements(_ context.Context, itemID int64, _ int) ([]allocation.Movement, error) {
	return m.movements[itemID], nil
}

func int64p(v int64) *int64 { return &v }

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newMemoryRepo(), allocation.KindMedication)

	_, err := svc.Create(context.Background(), ItemInput{Nombre: "   "})
	require.ErrorIs(t, err, ErrNameRequired)
}

func TestCreateRejectsNegativeStock(t *testing.T) {
	svc := NewService(newMemoryRepo(), allocation.KindSupply)

	_, err := svc.Create(context.Background(), ItemInput{Nombre: "Gasas", CantidadStock: int64p(-1)})
	require.ErrorIs(t, err, ErrNegativeStock)
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, allocation.KindMedication)

	created, err := svc.Create(context.Background(), ItemInput{
		Nombre:        "Paracetamol 500mg",
		CantidadStock: int64p(40),
		Lote:          "L-2026-07",
	})
	require.NoError(t, err)
	require.Equal(t, int64(40), created.CantidadStock)

	got, err := svc.Get(context.Background(), created.ItemID)
	require.NoError(t, err)
	require.Equal(t, "Paracetamol 500mg", got.Nombre)
}

func TestGetWrongKindIsNotFound(t *testing.T) {
	repo := newMemoryRepo()
	med := NewService(repo, allocation.KindMedication)
	sup := NewService(repo, allocation.KindSupply)

	created, err := med.Create(context.Background(), ItemInput{Nombre: "Ibuprofeno"})
	require.NoError(t, err)

	_, err = sup.Get(context.Background(), created.ItemID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateStockChangeLogsAdjustment(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, allocation.KindSupply)

	created, err := svc.Create(context.Background(), ItemInput{Nombre: "Jeringas", CantidadStock: int64p(100)})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.ItemID, ItemInput{Nombre: "Jeringas", CantidadStock: int64p(70)})
	require.NoError(t, err)

	movements, err := svc.Movements(context.Background(), created.ItemID, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	require.Equal(t, int64(-30), movements[0].Delta)
	require.Equal(t, "AJUSTE", movements[0].Reason)
	require.NotEmpty(t, movements[0].OpID)
}

func TestUpdateWithoutStockLeavesLedgerAlone(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, allocation.KindSupply)

	created, err := svc.Create(context.Background(), ItemInput{Nombre: "Guantes", CantidadStock: int64p(50)})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ItemID, ItemInput{Nombre: "Guantes de nitrilo"})
	require.NoError(t, err)
	require.Equal(t, int64(50), updated.CantidadStock)

	movements, err := svc.Movements(context.Background(), created.ItemID, 0)
	require.NoError(t, err)
	require.Empty(t, movements)
}

func TestDeleteBlockedByActiveAssignments(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, allocation.KindMedication)

	created, err := svc.Create(context.Background(), ItemInput{Nombre: "Omeprazol"})
	require.NoError(t, err)
	repo.assigned[created.ItemID] = 2

	err = svc.Delete(context.Background(), created.ItemID)
	require.ErrorIs(t, err, ErrHasAssignments)

	repo.assigned[created.ItemID] = 0
	require.NoError(t, svc.Delete(context.Background(), created.ItemID))

	_, err = svc.Get(context.Background(), created.ItemID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMovementsUnknownItem(t *testing.T) {
	svc := NewService(newMemoryRepo(), allocation.KindMedication)

	_, err := svc.Movements(context.Background(), 99, 0)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
