package medicalnotes

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/hospitalia/hospitalia/internal/shared"
)

// RepositoryPort abstracts note persistence for the service.
type RepositoryPort interface {
	Create(ctx context.Context, input Input) (Nota, error)
	Get(ctx context.Context, id int64) (Nota, error)
	ListByPatient(ctx context.Context, pacienteID int64) ([]Nota, error)
	PatientHeader(ctx context.Context, pacienteID int64) (PatientHeader, error)
	Delete(ctx context.Context, id int64) error
}

// Renderer converts HTML into PDF bytes; report.Client satisfies it.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Service coordinates clinical notes and their PDF export.
type Service struct {
	repo     RepositoryPort
	renderer Renderer
	tpl      *template.Template
}

// NewService creates a note service. renderer may be nil when PDF export is
// not configured; ExportPDF then fails with a clear error.
func NewService(repo RepositoryPort, renderer Renderer) *Service {
	return &Service{
		repo:     repo,
		renderer: renderer,
		tpl:      template.Must(template.New("nota").Parse(notaTemplate)),
	}
}

func (s *Service) Create(ctx context.Context, input Input) (Nota, error) {
	if input.PacienteID <= 0 {
		return Nota{}, ErrPatientRequired
	}
	if strings.TrimSpace(input.Titulo) == "" {
		return Nota{}, ErrTitleRequired
	}
	if strings.TrimSpace(input.Contenido) == "" {
		return Nota{}, ErrContentRequired
	}
	return s.repo.Create(ctx, input)
}

func (s *Service) Get(ctx context.Context, id int64) (Nota, error) {
	if id <= 0 {
		return Nota{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, pacienteID int64) ([]Nota, error) {
	if pacienteID <= 0 {
		return nil, shared.ErrNotFound
	}
	return s.repo.ListByPatient(ctx, pacienteID)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

// ExportPDF renders one note as a PDF document.
func (s *Service) ExportPDF(ctx context.Context, id int64) ([]byte, error) {
	if s.renderer == nil {
		return nil, fmt.Errorf("medicalnotes: pdf renderer not configured")
	}
	nota, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	header, err := s.repo.PatientHeader(ctx, nota.PacienteID)
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	data := struct {
		Nota     Nota
		Paciente PatientHeader
		Fecha    string
	}{nota, header, nota.CreadoEn.Format("02/01/2006 15:04")}
	if err := s.tpl.Execute(buf, data); err != nil {
		return nil, fmt.Errorf("render nota template: %w", err)
	}
	return s.renderer.RenderHTML(ctx, buf.String())
}

const notaTemplate = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<style>
  body { font-family: Helvetica, Arial, sans-serif; margin: 40px; color: #1a1a1a; }
  h1 { font-size: 18px; border-bottom: 2px solid #2c5f8a; padding-bottom: 8px; }
  .meta { font-size: 12px; color: #555; margin-bottom: 24px; }
  .meta span { display: inline-block; margin-right: 24px; }
  .contenido { font-size: 13px; line-height: 1.6; white-space: pre-wrap; }
</style>
</head>
<body>
  <h1>{{.Nota.Titulo}}</h1>
  <div class="meta">
    <span><strong>Paciente:</strong> {{.Paciente.NombreCompleto}}</span>
    <span><strong>Expediente:</strong> {{.Paciente.NumeroExpediente}}</span>
    <span><strong>Servicio:</strong> {{.Paciente.Servicio}}</span>
    <span><strong>Fecha:</strong> {{.Fecha}}</span>
  </div>
  <div class="contenido">{{.Nota.Contenido}}</div>
</body>
</html>`
