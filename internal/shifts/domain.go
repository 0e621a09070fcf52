// Package shifts manages the nursing shift roster. A nurse cannot hold two
// overlapping shifts; the repository enforces that at insert time.
package shifts

import (
	"errors"
	"time"
)

// Tipo values for a shift.
const (
	TipoMatutino   = "MATUTINO"
	TipoVespertino = "VESPERTINO"
	TipoNocturno   = "NOCTURNO"
)

// Turno is one scheduled shift.
type Turno struct {
	ID            int64     `json:"turnoId"`
	EnfermeroID   int64     `json:"enfermeroId"`
	Tipo          string    `json:"tipo"`
	FechaInicio   time.Time `json:"fechaInicio"`
	FechaFin      time.Time `json:"fechaFin"`
	CreadoEn      time.Time `json:"creadoEn"`
	ActualizadoEn time.Time `json:"actualizadoEn"`
}

// Input carries the mutable fields of a create/update request.
type Input struct {
	EnfermeroID int64     `json:"enfermeroId"`
	Tipo        string    `json:"tipo"`
	FechaInicio time.Time `json:"fechaInicio"`
	FechaFin    time.Time `json:"fechaFin"`
}

var (
	// ErrNurseRequired indicates a missing or unknown nurse reference.
	ErrNurseRequired = errors.New("shifts: nurse does not exist")
	// ErrInvalidRange indicates fechaFin is not after fechaInicio.
	ErrInvalidRange = errors.New("shifts: end must be after start")
	// ErrOverlap indicates the nurse already has a shift in that window.
	ErrOverlap = errors.New("shifts: nurse already scheduled in that window")
)
