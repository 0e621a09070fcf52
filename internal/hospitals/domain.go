// Package hospitals manages the hospital registry: the top of the
// hospital -> servicio -> paciente hierarchy.
package hospitals

import (
	"errors"
	"time"
)

// Hospital is one facility record.
type Hospital struct {
	ID            int64     `json:"hospitalId"`
	Nombre        string    `json:"nombre"`
	Direccion     string    `json:"direccion"`
	Telefono      string    `json:"telefono"`
	Nivel         string    `json:"nivel"`
	CreadoEn      time.Time `json:"creadoEn"`
	ActualizadoEn time.Time `json:"actualizadoEn"`
}

// Input carries the mutable fields of a create/update request.
type Input struct {
	Nombre    string `json:"nombre"`
	Direccion string `json:"direccion"`
	Telefono  string `json:"telefono"`
	Nivel     string `json:"nivel"`
}

// ErrNameRequired indicates a create/update without a name.
var ErrNameRequired = errors.New("hospitals: name is required")

// ErrHasServices indicates a delete of a hospital that still has services.
var ErrHasServices = errors.New("hospitals: hospital still has services")
