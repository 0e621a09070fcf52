// Package inventory manages the inventory item records behind the
// medicamentos and insumos screens. Both families share one shape and one
// table; stock mutations from patient assignment go through
// internal/allocation, this package only covers the record CRUD and
// manual stock adjustments.
package inventory

import (
	"errors"
	"time"

	"github.com/hospitalia/hospitalia/internal/allocation"
)

// Item is a full inventory record. Medication-only fields (lote,
// fechaCaducidad) and supply-only fields (categoria, unidadMedida,
// responsableId) are optional on the opposite kind.
type Item struct {
	ItemID         int64
	Kind           allocation.Kind
	Nombre         string
	Descripcion    string
	CantidadStock  int64
	Lote           string
	FechaCaducidad *time.Time
	Categoria      string
	UnidadMedida   string
	Ubicacion      string
	ResponsableID  *int64
	CreadoEn       time.Time
	ActualizadoEn  time.Time
}

// ItemInput carries the mutable fields of a create/update request.
// CantidadStock is a pointer so an update can leave stock untouched, the
// way the original screens submit partial edits.
type ItemInput struct {
	Nombre         string
	Descripcion    string
	CantidadStock  *int64
	Lote           string
	FechaCaducidad *time.Time
	Categoria      string
	UnidadMedida   string
	Ubicacion      string
	ResponsableID  *int64
}

// ErrNameRequired indicates a create/update without a name.
var ErrNameRequired = errors.New("inventory: item name is required")

// ErrNegativeStock indicates a direct stock edit below zero.
var ErrNegativeStock = errors.New("inventory: stock cannot be negative")

// ErrHasAssignments indicates a delete of an item still assigned to patients.
var ErrHasAssignments = errors.New("inventory: item has active patient assignments")
