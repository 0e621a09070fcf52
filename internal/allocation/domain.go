// Package allocation implements the patient resource assignment engine:
// assigning medications and supplies against finite inventory, editing
// assigned quantities and releasing them back to stock, without ever
// over-committing what is on hand.
package allocation

import (
	"errors"
	"fmt"
	"time"
)

// Kind separates the two inventory item families. They share one shape;
// only medications carry clinical metadata.
type Kind string

const (
	// KindMedication covers items managed on the medicamentos screens.
	KindMedication Kind = "MEDICAMENTO"
	// KindSupply covers items managed on the insumos screens.
	KindSupply Kind = "INSUMO"
)

// Item is the ledger view of an inventory record: identity plus the
// on-hand quantity the engine debits and credits.
type Item struct {
	ID          int64
	Kind        Kind
	Nombre      string
	Descripcion string
	OnHand      int64
}

// Metadata carries the clinical fields recorded for medication assignments.
type Metadata struct {
	Dosis             string `json:"dosis,omitempty"`
	Frecuencia        string `json:"frecuencia,omitempty"`
	ViaAdministracion string `json:"viaAdministracion,omitempty"`
}

// Assignment links one patient to one inventory item. At most one active
// record exists per (paciente, item) pair.
type Assignment struct {
	PacienteID    int64     `json:"pacienteId"`
	ItemID        int64     `json:"itemId"`
	Cantidad      int64     `json:"cantidad"`
	Meta          Metadata  `json:"meta"`
	AsignadoEn    time.Time `json:"asignadoEn"`
	ActualizadoEn time.Time `json:"actualizadoEn"`
}

// AssignedItem is the read projection of an assignment joined with its
// inventory item, as rendered on the patient detail screens.
type AssignedItem struct {
	Assignment
	Kind        Kind
	Nombre      string
	Descripcion string
}

// AssignmentInput is one requested item inside an assign call.
type AssignmentInput struct {
	ItemID   int64
	Cantidad int64
	Meta     Metadata
}

// ItemOutcome reports the per-item result of an AssignOrMerge batch.
// Rejected items carry the reason plus requested/available detail so the
// UI can render a specific message.
type ItemOutcome struct {
	ItemID    int64  `json:"itemId"`
	Applied   bool   `json:"applied"`
	Cantidad  int64  `json:"cantidad,omitempty"`
	Error     string `json:"error,omitempty"`
	Requested int64  `json:"requested,omitempty"`
	Available int64  `json:"available,omitempty"`
}

// Movement is one ledger entry: a debit (negative delta) or credit
// (positive delta) against an item, sequenced per item.
type Movement struct {
	ItemID    int64     `json:"itemId"`
	Seq       int64     `json:"seq"`
	Delta     int64     `json:"delta"`
	OpID      string    `json:"opId"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrInvalidQuantity indicates a requested quantity that is not a positive integer.
var ErrInvalidQuantity = errors.New("allocation: quantity must be a positive integer")

// ErrItemNotFound indicates an unknown inventory item id.
var ErrItemNotFound = errors.New("allocation: inventory item not found")

// ErrAssignmentNotFound indicates no active assignment for the pair.
var ErrAssignmentNotFound = errors.New("allocation: assignment not found")

// ErrKindMismatch indicates an item id that exists but belongs to the other family.
var ErrKindMismatch = errors.New("allocation: item does not belong to the requested kind")

// ErrInsufficientStock is the sentinel matched by errors.Is for stock shortfalls.
var ErrInsufficientStock = errors.New("allocation: insufficient stock")

// InsufficientStockError reports a rejected debit with enough detail for
// the caller to render requested vs. available.
type InsufficientStockError struct {
	ItemID    int64
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("allocation: insufficient stock for item %d: requested %d, available %d", e.ItemID, e.Requested, e.Available)
}

// Is lets errors.Is(err, ErrInsufficientStock) match the typed error.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
