package trainings

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hospitalia/hospitalia/internal/platform/httpx"
	"github.com/hospitalia/hospitalia/internal/shared"
)

// Handler exposes the training session endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler creates the training handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the training routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
	r.Get("/{id}/inscripciones", h.handleEnrollments)
	r.Post("/{id}/inscribir", h.handleEnroll)
	r.Delete("/{id}/inscribir/{enfermeroId}", h.handleUnenroll)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := shared.ListFilters{Search: q.Get("busqueda")}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.Limit, _ = strconv.Atoi(q.Get("limit"))

	trainings, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list trainings failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{
		"items":      trainings,
		"pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	training, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, training)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return
	}
	training, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Created(w, training)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	var input Input
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return
	}
	training, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, training)
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
	httpx.Message(w, "Capacitación eliminada")
}

type enrollRequest struct {
	EnfermeroID int64 `json:"enfermeroId"`
}

func (h *Handler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	var req enrollRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return
	}
	if err := h.service.Enroll(r.Context(), id, req.EnfermeroID); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Message(w, "Inscripción registrada")
}

func (h *Handler) handleUnenroll(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	enfermeroID, err := urlID(r, "enfermeroId")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	if err := h.service.Unenroll(r.Context(), id, enfermeroID); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Message(w, "Inscripción eliminada")
}

func (h *Handler) handleEnrollments(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	enrollments, err := h.service.Enrollments(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, enrollments)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTitleRequired):
		httpx.Error(w, http.StatusBadRequest, "El título es obligatorio")
	case errors.Is(err, ErrInvalidCupo):
		httpx.Error(w, http.StatusBadRequest, "El cupo debe ser mayor a cero")
	case errors.Is(err, ErrNurseRequired):
		httpx.Error(w, http.StatusBadRequest, "El enfermero indicado no existe")
	case errors.Is(err, ErrAlreadyEnrolled):
		httpx.Error(w, http.StatusConflict, "El enfermero ya está inscrito")
	case errors.Is(err, ErrFull):
		httpx.Error(w, http.StatusConflict, "La capacitación no tiene cupo disponible")
	case errors.Is(err, ErrNotEnrolled):
		httpx.Error(w, http.StatusNotFound, "El enfermero no está inscrito")
	default:
		httpx.RespondError(w, err)
	}
}

func urlID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("trainings: invalid id")
	}
	return id, nil
}
