package patients

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hospitalia/hospitalia/internal/shared"
)

type memoryRepo struct {
	nextID   int64
	patients map[int64]Paciente
	holding  map[int64]int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, patients: map[int64]Paciente{}, holding: map[int64]int{}}
}

func (m *memoryRepo) List(_ context.Context, servicioID int64, _ shared.ListFilters) ([]Paciente, int, error) {
	var out []Paciente
	for _, p := range m.patients {
		if servicioID > 0 && p.ServicioID != servicioID {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Paciente, error) {
	p, ok := m.patients[id]
	if !ok {
		return Paciente{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) Create(_ context.Context, input Input) (Paciente, error) {
	for _, p := range m.patients {
		if p.NumeroExpediente == input.NumeroExpediente {
			return Paciente{}, ErrExpedienteTaken
		}
	}
	p := Paciente{
		ID:               m.nextID,
		NumeroExpediente: input.NumeroExpediente,
		Nombre:           input.Nombre,
		Apellidos:        input.Apellidos,
		ServicioID:       input.ServicioID,
		Estado:           input.Estado,
	}
	m.nextID++
	m.patients[p.ID] = p
	return p, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, input Input) (Paciente, error) {
	p, ok := m.patients[id]
	if !ok {
		return Paciente{}, shared.ErrNotFound
	}
	p.NumeroExpediente = input.NumeroExpediente
	p.Nombre = input.Nombre
	p.Apellidos = input.Apellidos
	p.ServicioID = input.ServicioID
	p.Estado = input.Estado
	m.patients[id] = p
	return p, nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.patients[id]; !ok {
		return shared.ErrNotFound
	}
	if m.holding[id] > 0 {
		return ErrHasAssignments
	}
	delete(m.patients, id)
	return nil
}

func validInput() Input {
	return Input{
		NumeroExpediente: "exp-001",
		Nombre:           "María",
		Apellidos:        "García López",
		ServicioID:       3,
	}
}

func TestCreateNormalizesExpedienteAndDefaultsEstado(t *testing.T) {
	svc := NewService(newMemoryRepo())

	p, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, "EXP-001", p.NumeroExpediente)
	require.Equal(t, EstadoActivo, p.Estado)
}

func TestCreateDuplicateExpediente(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	dup := validInput()
	dup.Nombre = "Otra"
	_, err = svc.Create(context.Background(), dup)
	require.ErrorIs(t, err, ErrExpedienteTaken)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())

	in := validInput()
	in.NumeroExpediente = "  "
	_, err := svc.Create(context.Background(), in)
	require.ErrorIs(t, err, ErrExpedienteRequired)

	in = validInput()
	in.Apellidos = ""
	_, err = svc.Create(context.Background(), in)
	require.ErrorIs(t, err, ErrNameRequired)

	in = validInput()
	in.ServicioID = 0
	_, err = svc.Create(context.Background(), in)
	require.ErrorIs(t, err, ErrWardRequired)
}

func TestDeleteBlockedWhileHoldingResources(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	p, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	repo.holding[p.ID] = 1
	require.ErrorIs(t, svc.Delete(context.Background(), p.ID), ErrHasAssignments)

	repo.holding[p.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), p.ID))
}

func TestListFiltersByWard(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	a := validInput()
	_, err := svc.Create(context.Background(), a)
	require.NoError(t, err)

	b := validInput()
	b.NumeroExpediente = "EXP-002"
	b.ServicioID = 7
	_, err = svc.Create(context.Background(), b)
	require.NoError(t, err)

	scoped, total, err := svc.List(context.Background(), 7, shared.ListFilters{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, int64(7), scoped[0].ServicioID)
}
