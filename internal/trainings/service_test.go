package trainings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hospitalia/hospitalia/internal/shared"
)

type enrollKey struct {
	capacitacionID int64
	enfermeroID    int64
}

type memoryRepo struct {
	nextID   int64
	sessions map[int64]Capacitacion
	enrolled map[enrollKey]time.Time
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, sessions: map[int64]Capacitacion{}, enrolled: map[enrollKey]time.Time{}}
}

func (m *memoryRepo) countEnrolled(id int64) int {
	n := 0
	for k := range m.enrolled {
		if k.capacitacionID == id {
			n++
		}
	}
	return n
}

func (m *memoryRepo) List(_ context.Context, _ shared.ListFilters) ([]Capacitacion, int, error) {
	var out []Capacitacion
	for _, c := range m.sessions {
		c.Inscritos = m.countEnrolled(c.ID)
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Capacitacion, error) {
	c, ok := m.sessions[id]
	if !ok {
		return Capacitacion{}, shared.ErrNotFound
	}
	c.Inscritos = m.countEnrolled(id)
	return c, nil
}

func (m *memoryRepo) Create(_ context.Context, input Input) (Capacitacion, error) {
	c := Capacitacion{
		ID:            m.nextID,
		Titulo:        input.Titulo,
		Fecha:         input.Fecha,
		DuracionHoras: input.DuracionHoras,
		Cupo:          input.Cupo,
	}
	m.nextID++
	m.sessions[c.ID] = c
	return c, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, input Input) (Capacitacion, error) {
	c, ok := m.sessions[id]
	if !ok {
		return Capacitacion{}, shared.ErrNotFound
	}
	c.Titulo = input.Titulo
	c.Cupo = input.Cupo
	m.sessions[id] = c
	return c, nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.sessions[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *memoryRepo) Enroll(_ context.Context, capacitacionID, enfermeroID int64) error {
	c, ok := m.sessions[capacitacionID]
	if !ok {
		return shared.ErrNotFound
	}
	key := enrollKey{capacitacionID, enfermeroID}
	if _, dup := m.enrolled[key]; dup {
		return ErrAlreadyEnrolled
	}
	if m.countEnrolled(capacitacionID) >= c.Cupo {
		return ErrFull
	}
	m.enrolled[key] = time.Now()
	return nil
}

func (m *memoryRepo) Unenroll(_ context.Context, capacitacionID, enfermeroID int64) error {
	key := enrollKey{capacitacionID, enfermeroID}
	if _, ok := m.enrolled[key]; !ok {
		return ErrNotEnrolled
	}
	delete(m.enrolled, key)
	return nil
}

func (m *memoryRepo) Enrollments(_ context.Context, capacitacionID int64) ([]Inscripcion, error) {
	var out []Inscripcion
	for k, at := range m.enrolled {
		if k.capacitacionID == capacitacionID {
			out = append(out, Inscripcion{CapacitacionID: k.capacitacionID, EnfermeroID: k.enfermeroID, InscritoEn: at})
		}
	}
	return out, nil
}

func newSession(t *testing.T, svc *Service, cupo int) Capacitacion {
	t.Helper()
	c, err := svc.Create(context.Background(), Input{Titulo: "RCP básico", Cupo: cupo})
	require.NoError(t, err)
	return c
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), Input{Titulo: " ", Cupo: 10})
	require.ErrorIs(t, err, ErrTitleRequired)

	_, err = svc.Create(context.Background(), Input{Titulo: "RCP", Cupo: 0})
	require.ErrorIs(t, err, ErrInvalidCupo)
}

func TestEnrollRespectsSeatLimit(t *testing.T) {
	svc := NewService(newMemoryRepo())
	c := newSession(t, svc, 2)

	require.NoError(t, svc.Enroll(context.Background(), c.ID, 1))
	require.NoError(t, svc.Enroll(context.Background(), c.ID, 2))
	require.ErrorIs(t, svc.Enroll(context.Background(), c.ID, 3), ErrFull)
}

func TestEnrollTwiceIsConflict(t *testing.T) {
	svc := NewService(newMemoryRepo())
	c := newSession(t, svc, 5)

	require.NoError(t, svc.Enroll(context.Background(), c.ID, 1))
	require.ErrorIs(t, svc.Enroll(context.Background(), c.ID, 1), ErrAlreadyEnrolled)
}

func TestUnenrollFreesSeat(t *testing.T) {
	svc := NewService(newMemoryRepo())
	c := newSession(t, svc, 1)

	require.NoError(t, svc.Enroll(context.Background(), c.ID, 1))
	require.ErrorIs(t, svc.Enroll(context.Background(), c.ID, 2), ErrFull)

	require.NoError(t, svc.Unenroll(context.Background(), c.ID, 1))
	require.NoError(t, svc.Enroll(context.Background(), c.ID, 2))
}

func TestUnenrollUnknown(t *testing.T) {
	svc := NewService(newMemoryRepo())
	c := newSession(t, svc, 1)

	require.ErrorIs(t, svc.Unenroll(context.Background(), c.ID, 9), ErrNotEnrolled)
}

func TestEnrollmentsListsNurses(t *testing.T) {
	svc := NewService(newMemoryRepo())
	c := newSession(t, svc, 3)

	require.NoError(t, svc.Enroll(context.Background(), c.ID, 1))
	require.NoError(t, svc.Enroll(context.Background(), c.ID, 2))

	enrollments, err := svc.Enrollments(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, enrollments, 2)
}
