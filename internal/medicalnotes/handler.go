package medicalnotes

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hospitalia/hospitalia/internal/platform/httpx"
)

// Handler exposes the clinical note endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler creates the note handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the note routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Get("/paciente/{pacienteId}", h.handleListByPatient)
	r.Get("/{id}", h.handleGet)
	r.Get("/{id}/pdf", h.handleExportPDF)
	r.Delete("/{id}", h.handleDelete)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return
	}
	nota, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Created(w, nota)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	nota, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, nota)
}

func (h *Handler) handleListByPatient(w http.ResponseWriter, r *http.Request) {
	pacienteID, err := urlID(r, "pacienteId")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	notas, err := h.service.ListByPatient(r.Context(), pacienteID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, notas)
}

func (h *Handler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	pdf, err := h.service.ExportPDF(r.Context(), id)
	if err != nil {
		h.logger.Error("export nota pdf failed", slog.Int64("nota_id", id), slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=nota-medica-%d.pdf", id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Message(w, "Nota eliminada")
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTitleRequired):
		httpx.Error(w, http.StatusBadRequest, "El título es obligatorio")
	case errors.Is(err, ErrContentRequired):
		httpx.Error(w, http.StatusBadRequest, "El contenido es obligatorio")
	case errors.Is(err, ErrPatientRequired):
		httpx.Error(w, http.StatusBadRequest, "El paciente indicado no existe")
	default:
		httpx.RespondError(w, err)
	}
}

func urlID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("medicalnotes: invalid id")
	}
	return id, nil
}
