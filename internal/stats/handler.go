package stats

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hospitalia/hospitalia/internal/platform/httpx"
)

// Handler exposes the dashboard aggregate endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler creates the stats handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the stats routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleResumen)
	r.Get("/ocupacion", h.handleOcupacion)
}

func (h *Handler) handleResumen(w http.ResponseWriter, r *http.Request) {
	resumen, err := h.service.Resumen(r.Context())
	if err != nil {
		h.logger.Error("stats resumen failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, resumen)
}

func (h *Handler) handleOcupacion(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Ocupacion(r.Context())
	if err != nil {
		h.logger.Error("stats ocupacion failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, rows)
}
