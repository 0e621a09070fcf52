package httpx

import (
	"errors"
	"net/http"

	"github.com/hospitalia/hospitalia/internal/shared"
)

// RespondError maps domain errors onto the frontend's failure envelope.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrConflict):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrValidation):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrBusy):
		w.Header().Set("Retry-After", "1")
		Error(w, http.StatusServiceUnavailable, err.Error())
	default:
		Error(w, http.StatusInternalServerError, "Error del servidor")
	}
}
