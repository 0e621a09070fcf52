// Package trainings manages staff training sessions and their enrollment,
// including the per-session seat limit.
package trainings

import (
	"errors"
	"time"
)

// Capacitacion is one training session.
type Capacitacion struct {
	ID            int64     `json:"capacitacionId"`
	Titulo        string    `json:"titulo"`
	Descripcion   string    `json:"descripcion"`
	Fecha         time.Time `json:"fecha"`
	DuracionHoras int       `json:"duracionHoras"`
	Cupo          int       `json:"cupo"`
	Inscritos     int       `json:"inscritos"`
	CreadoEn      time.Time `json:"creadoEn"`
	ActualizadoEn time.Time `json:"actualizadoEn"`
}

// Input carries the mutable fields of a create/update request.
type Input struct {
	Titulo        string    `json:"titulo"`
	Descripcion   string    `json:"descripcion"`
	Fecha         time.Time `json:"fecha"`
	DuracionHoras int       `json:"duracionHoras"`
	Cupo          int       `json:"cupo"`
}

// Inscripcion records one nurse enrolled in one session.
type Inscripcion struct {
	CapacitacionID int64     `json:"capacitacionId"`
	EnfermeroID    int64     `json:"enfermeroId"`
	InscritoEn     time.Time `json:"inscritoEn"`
}

var (
	// ErrTitleRequired indicates a create/update without a title.
	ErrTitleRequired = errors.New("trainings: title is required")
	// ErrInvalidCupo indicates a non-positive seat limit.
	ErrInvalidCupo = errors.New("trainings: seat limit must be positive")
	// ErrAlreadyEnrolled indicates the nurse is already enrolled.
	ErrAlreadyEnrolled = errors.New("trainings: nurse already enrolled")
	// ErrFull indicates the session has no seats left.
	ErrFull = errors.New("trainings: session is full")
	// ErrNotEnrolled indicates an unenroll with no matching enrollment.
	ErrNotEnrolled = errors.New("trainings: nurse is not enrolled")
	// ErrNurseRequired indicates a missing or unknown nurse reference.
	ErrNurseRequired = errors.New("trainings: nurse does not exist")
)
