// Package patients manages the patient census. Resource assignment for a
// patient lives in internal/allocation; this package covers the record
// itself: identity, expediente number and ward admission.
package patients

import (
	"errors"
	"time"
)

// Estado values for a patient record.
const (
	EstadoActivo   = "ACTIVO"
	EstadoAlta     = "ALTA"
	EstadoTraslado = "TRASLADO"
)

// Paciente is one census record.
type Paciente struct {
	ID               int64      `json:"pacienteId"`
	NumeroExpediente string     `json:"numeroExpediente"`
	Nombre           string     `json:"nombre"`
	Apellidos        string     `json:"apellidos"`
	FechaNacimiento  *time.Time `json:"fechaNacimiento"`
	Sexo             string     `json:"sexo"`
	ServicioID       int64      `json:"servicioId"`
	Diagnostico      string     `json:"diagnostico"`
	Estado           string     `json:"estado"`
	CreadoEn         time.Time  `json:"creadoEn"`
	ActualizadoEn    time.Time  `json:"actualizadoEn"`
}

// Input carries the mutable fields of a create/update request.
type Input struct {
	NumeroExpediente string     `json:"numeroExpediente"`
	Nombre           string     `json:"nombre"`
	Apellidos        string     `json:"apellidos"`
	FechaNacimiento  *time.Time `json:"fechaNacimiento"`
	Sexo             string     `json:"sexo"`
	ServicioID       int64      `json:"servicioId"`
	Diagnostico      string     `json:"diagnostico"`
	Estado           string     `json:"estado"`
}

var (
	// ErrNameRequired indicates a create/update without a name.
	ErrNameRequired = errors.New("patients: name is required")
	// ErrExpedienteRequired indicates a missing expediente number.
	ErrExpedienteRequired = errors.New("patients: expediente number is required")
	// ErrExpedienteTaken indicates the expediente number is already in use.
	ErrExpedienteTaken = errors.New("patients: expediente number already registered")
	// ErrWardRequired indicates a missing or unknown ward reference.
	ErrWardRequired = errors.New("patients: ward does not exist")
	// ErrHasAssignments indicates a delete of a patient that still holds
	// inventory.
	ErrHasAssignments = errors.New("patients: patient still holds assigned resources")
)
