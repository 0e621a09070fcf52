package medicalnotes

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hospitalia/hospitalia/internal/shared"
)

type memoryRepo struct {
	nextID  int64
	notes   map[int64]Nota
	headers map[int64]PatientHeader
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, notes: map[int64]Nota{}, headers: map[int64]PatientHeader{}}
}

func (m *memoryRepo) Create(_ context.Context, input Input) (Nota, error) {
	if _, ok := m.headers[input.PacienteID]; !ok {
		return Nota{}, ErrPatientRequired
	}
	n := Nota{
		ID:         m.nextID,
		PacienteID: input.PacienteID,
		Titulo:     input.Titulo,
		Contenido:  input.Contenido,
		CreadoEn:   time.Now(),
	}
	m.nextID++
	m.notes[n.ID] = n
	return n, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Nota, error) {
	n, ok := m.notes[id]
	if !ok {
		return Nota{}, shared.ErrNotFound
	}
	return n, nil
}

func (m *memoryRepo) ListByPatient(_ context.Context, pacienteID int64) ([]Nota, error) {
	var out []Nota
	for _, n := range m.notes {
		if n.PacienteID == pacienteID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memoryRepo) PatientHeader(_ context.Context, pacienteID int64) (PatientHeader, error) {
	h, ok := m.headers[pacienteID]
	if !ok {
		return PatientHeader{}, shared.ErrNotFound
	}
	return h, nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.notes[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

// captureRenderer records the HTML sent to it instead of calling Gotenberg.
type captureRenderer struct {
	html string
}

func (c *captureRenderer) RenderHTML(_ context.Context, html string) ([]byte, error) {
	c.html = html
	return []byte("%PDF-1.7 fake"), nil
}

func seedPatient(repo *memoryRepo, id int64) {
	repo.headers[id] = PatientHeader{
		NumeroExpediente: "EXP-014",
		NombreCompleto:   "José Ramírez",
		Servicio:         "Urgencias",
	}
}

func TestCreateValidation(t *testing.T) {
	repo := newMemoryRepo()
	seedPatient(repo, 1)
	svc := NewService(repo, nil)

	_, err := svc.Create(context.Background(), Input{PacienteID: 1, Contenido: "texto"})
	require.ErrorIs(t, err, ErrTitleRequired)

	_, err = svc.Create(context.Background(), Input{PacienteID: 1, Titulo: "Evolución"})
	require.ErrorIs(t, err, ErrContentRequired)

	_, err = svc.Create(context.Background(), Input{PacienteID: 9, Titulo: "Evolución", Contenido: "texto"})
	require.ErrorIs(t, err, ErrPatientRequired)
}

func TestExportPDFRendersPatientHeader(t *testing.T) {
	repo := newMemoryRepo()
	seedPatient(repo, 1)
	renderer := &captureRenderer{}
	svc := NewService(repo, renderer)

	nota, err := svc.Create(context.Background(), Input{
		PacienteID: 1,
		Titulo:     "Nota de evolución",
		Contenido:  "Paciente estable, afebril.",
	})
	require.NoError(t, err)

	pdf, err := svc.ExportPDF(context.Background(), nota.ID)
	require.NoError(t, err)
	require.NotEmpty(t, pdf)

	require.True(t, strings.Contains(renderer.html, "José Ramírez"))
	require.True(t, strings.Contains(renderer.html, "EXP-014"))
	require.True(t, strings.Contains(renderer.html, "Nota de evolución"))
}

func TestExportPDFWithoutRenderer(t *testing.T) {
	repo := newMemoryRepo()
	seedPatient(repo, 1)
	svc := NewService(repo, nil)

	nota, err := svc.Create(context.Background(), Input{PacienteID: 1, Titulo: "t", Contenido: "c"})
	require.NoError(t, err)

	_, err = svc.ExportPDF(context.Background(), nota.ID)
	require.Error(t, err)
}
