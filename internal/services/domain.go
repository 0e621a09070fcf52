// Package services manages hospital services (wards), the unit patients
// are admitted to.
package services

import (
	"errors"
	"time"
)

// Servicio is one ward record.
type Servicio struct {
	ID            int64     `json:"servicioId"`
	HospitalID    int64     `json:"hospitalId"`
	Nombre        string    `json:"nombre"`
	Descripcion   string    `json:"descripcion"`
	Capacidad     int       `json:"capacidad"`
	CreadoEn      time.Time `json:"creadoEn"`
	ActualizadoEn time.Time `json:"actualizadoEn"`
}

// Input carries the mutable fields of a create/update request.
type Input struct {
	HospitalID  int64  `json:"hospitalId"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
	Capacidad   int    `json:"capacidad"`
}

var (
	// ErrNameRequired indicates a create/update without a name.
	ErrNameRequired = errors.New("services: name is required")
	// ErrHospitalRequired indicates a missing or unknown hospital reference.
	ErrHospitalRequired = errors.New("services: hospital does not exist")
	// ErrHasPatients indicates a delete of a ward with admitted patients.
	ErrHasPatients = errors.New("services: ward still has patients")
)
