package shared

import "errors"

var (
	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("recurso no encontrado")
	// ErrConflict indicates a uniqueness or concurrent-update collision.
	ErrConflict = errors.New("conflicto con un registro existente")
	// ErrValidation indicates the request payload failed validation.
	ErrValidation = errors.New("datos de la solicitud no válidos")
	// ErrBusy indicates a bounded lock wait expired; the caller may retry.
	ErrBusy = errors.New("recurso ocupado, intente de nuevo")
)
