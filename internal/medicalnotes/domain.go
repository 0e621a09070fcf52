// Package medicalnotes manages clinical notes attached to patients and
// their PDF export.
package medicalnotes

import (
	"errors"
	"time"
)

// Nota is one clinical note.
type Nota struct {
	ID          int64     `json:"notaId"`
	PacienteID  int64     `json:"pacienteId"`
	EnfermeroID *int64    `json:"enfermeroId"`
	Titulo      string    `json:"titulo"`
	Contenido   string    `json:"contenido"`
	CreadoEn    time.Time `json:"creadoEn"`
}

// Input carries the fields of a create request.
type Input struct {
	PacienteID  int64  `json:"pacienteId"`
	EnfermeroID *int64 `json:"enfermeroId"`
	Titulo      string `json:"titulo"`
	Contenido   string `json:"contenido"`
}

// PatientHeader carries the patient identity printed on the PDF.
type PatientHeader struct {
	NumeroExpediente string
	NombreCompleto   string
	Servicio         string
}

var (
	// ErrTitleRequired indicates a create without a title.
	ErrTitleRequired = errors.New("medicalnotes: title is required")
	// ErrContentRequired indicates a create without content.
	ErrContentRequired = errors.New("medicalnotes: content is required")
	// ErrPatientRequired indicates a missing or unknown patient reference.
	ErrPatientRequired = errors.New("medicalnotes: patient does not exist")
)
