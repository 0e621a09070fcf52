// Package nurses manages the nursing staff registry.
package nurses

import (
	"errors"
	"time"
)

// Enfermero is one staff record.
type Enfermero struct {
	ID            int64     `json:"enfermeroId"`
	Cedula        string    `json:"cedula"`
	Nombre        string    `json:"nombre"`
	Apellidos     string    `json:"apellidos"`
	Especialidad  string    `json:"especialidad"`
	ServicioID    *int64    `json:"servicioId"`
	Correo        string    `json:"correo"`
	Telefono      string    `json:"telefono"`
	CreadoEn      time.Time `json:"creadoEn"`
	ActualizadoEn time.Time `json:"actualizadoEn"`
}

// Input carries the mutable fields of a create/update request.
type Input struct {
	Cedula       string `json:"cedula"`
	Nombre       string `json:"nombre"`
	Apellidos    string `json:"apellidos"`
	Especialidad string `json:"especialidad"`
	ServicioID   *int64 `json:"servicioId"`
	Correo       string `json:"correo"`
	Telefono     string `json:"telefono"`
}

var (
	// ErrNameRequired indicates a create/update without a name.
	ErrNameRequired = errors.New("nurses: name is required")
	// ErrCedulaRequired indicates a missing professional licence number.
	ErrCedulaRequired = errors.New("nurses: cedula is required")
	// ErrCedulaTaken indicates the licence number is already registered.
	ErrCedulaTaken = errors.New("nurses: cedula already registered")
	// ErrHasShifts indicates a delete of a nurse with scheduled shifts.
	ErrHasShifts = errors.New("nurses: nurse still has scheduled shifts")
)
