package shifts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hospitalia/hospitalia/internal/shared"
)

type memoryRepo struct {
	nextID int64
	shifts map[int64]Turno
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, shifts: map[int64]Turno{}}
}

func (m *memoryRepo) overlaps(excludeID, enfermeroID int64, inicio, fin time.Time) bool {
	for _, t := range m.shifts {
		if t.ID == excludeID || t.EnfermeroID != enfermeroID {
			continue
		}
		if t.FechaInicio.Before(fin) && t.FechaFin.After(inicio) {
			return true
		}
	}
	return false
}

func (m *memoryRepo) List(_ context.Context, enfermeroID int64, _, _ time.Time) ([]Turno, error) {
	var out []Turno
	for _, t := range m.shifts {
		if enfermeroID > 0 && t.EnfermeroID != enfermeroID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Turno, error) {
	t, ok := m.shifts[id]
	if !ok {
		return Turno{}, shared.ErrNotFound
	}
	return t, nil
}

func (m *memoryRepo) Create(_ context.Context, input Input) (Turno, error) {
	if m.overlaps(0, input.EnfermeroID, input.FechaInicio, input.FechaFin) {
		return Turno{}, ErrOverlap
	}
	t := Turno{
		ID:          m.nextID,
		EnfermeroID: input.EnfermeroID,
		Tipo:        input.Tipo,
		FechaInicio: input.FechaInicio,
		FechaFin:    input.FechaFin,
	}
	m.nextID++
	m.shifts[t.ID] = t
	return t, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, input Input) (Turno, error) {
	t, ok := m.shifts[id]
	if !ok {
		return Turno{}, shared.ErrNotFound
	}
	if m.overlaps(id, input.EnfermeroID, input.FechaInicio, input.FechaFin) {
		return Turno{}, ErrOverlap
	}
	t.EnfermeroID = input.EnfermeroID
	t.Tipo = input.Tipo
	t.FechaInicio = input.FechaInicio
	t.FechaFin = input.FechaFin
	m.shifts[id] = t
	return t, nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.shifts[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.shifts, id)
	return nil
}

func shiftAt(nurse int64, start string, hours int) Input {
	inicio, _ := time.Parse(time.RFC3339, start)
	return Input{
		EnfermeroID: nurse,
		Tipo:        TipoMatutino,
		FechaInicio: inicio,
		FechaFin:    inicio.Add(time.Duration(hours) * time.Hour),
	}
}

func TestCreateRejectsOverlapSameNurse(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), shiftAt(1, "2026-09-01T07:00:00Z", 8))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), shiftAt(1, "2026-09-01T12:00:00Z", 8))
	require.ErrorIs(t, err, ErrOverlap)
}

func TestCreateAllowsOverlapAcrossNurses(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), shiftAt(1, "2026-09-01T07:00:00Z", 8))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), shiftAt(2, "2026-09-01T07:00:00Z", 8))
	require.NoError(t, err)
}

func TestCreateAllowsBackToBack(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), shiftAt(1, "2026-09-01T07:00:00Z", 8))
	require.NoError(t, err)

	// Ends exactly when the next begins.
	_, err = svc.Create(context.Background(), shiftAt(1, "2026-09-01T15:00:00Z", 8))
	require.NoError(t, err)
}

func TestUpdateIgnoresOwnWindow(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), shiftAt(1, "2026-09-01T07:00:00Z", 8))
	require.NoError(t, err)

	// Shifting the same turno by an hour overlaps only itself.
	moved := shiftAt(1, "2026-09-01T08:00:00Z", 8)
	_, err = svc.Update(context.Background(), created.ID, moved)
	require.NoError(t, err)
}

func TestValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())

	in := shiftAt(0, "2026-09-01T07:00:00Z", 8)
	_, err := svc.Create(context.Background(), in)
	require.ErrorIs(t, err, ErrNurseRequired)

	in = shiftAt(1, "2026-09-01T07:00:00Z", 0)
	_, err = svc.Create(context.Background(), in)
	require.ErrorIs(t, err, ErrInvalidRange)

	in = shiftAt(1, "2026-09-01T07:00:00Z", 8)
	in.Tipo = "GUARDIA"
	_, err = svc.Create(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrValidation)
}
