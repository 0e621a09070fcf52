package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hospitalia/hospitalia/internal/allocation"
	"github.com/hospitalia/hospitalia/internal/platform/httpx"
	"github.com/hospitalia/hospitalia/internal/shared"
)

// Handler exposes the CRUD screens for one item family. The medication and
// supply screens submit slightly different field names, so each family gets
// its own handler bound to its kind.
type Handler struct {
	logger  *slog.Logger
	service *Service
	kind    allocation.Kind
}

// NewHandler constructs the handler for one kind.
func NewHandler(logger *slog.Logger, service *Service, kind allocation.Kind) *Handler {
	return &Handler{logger: logger, service: service, kind: kind}
}

// MountRoutes registers the record routes on the kind's subrouter.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
	r.Get("/{id}/movimientos", h.handleMovements)
}

type itemRequest struct {
	Nombre             string     `json:"nombre"`
	Descripcion        string     `json:"descripcion"`
	CantidadStock      *int64     `json:"cantidadStock"`
	CantidadDisponible *int64     `json:"cantidadDisponible"`
	Lote               string     `json:"lote"`
	FechaCaducidad     *time.Time `json:"fechaCaducidad"`
	Categoria          string     `json:"categoria"`
	UnidadMedida       string     `json:"unidadMedida"`
	Ubicacion          string     `json:"ubicacion"`
	ResponsableID      *int64     `json:"responsableId"`
}

func (req itemRequest) input(kind allocation.Kind) ItemInput {
	stock := req.CantidadStock
	if kind == allocation.KindSupply && req.CantidadDisponible != nil {
		stock = req.CantidadDisponible
	}
	return ItemInput{
		Nombre:         req.Nombre,
		Descripcion:    req.Descripcion,
		CantidadStock:  stock,
		Lote:           req.Lote,
		FechaCaducidad: req.FechaCaducidad,
		Categoria:      req.Categoria,
		UnidadMedida:   req.UnidadMedida,
		Ubicacion:      req.Ubicacion,
		ResponsableID:  req.ResponsableID,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := shared.ListFilters{Search: q.Get("busqueda")}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.Limit, _ = strconv.Atoi(q.Get("limit"))

	items, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list items failed", slog.String("kind", string(h.kind)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	rows := make([]map[string]any, 0, len(items))
	for _, it := range items {
		rows = append(rows, h.wireItem(it))
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{
		Success: true,
		Data: map[string]any{
			"items":      rows,
			"pagination": shared.NewPagination(filters.Page, filters.Limit, total),
		},
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, h.wireItem(item))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return
	}
	item, err := h.service.Create(r.Context(), req.input(h.kind))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Created(w, h.wireItem(item))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	var req itemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return
	}
	item, err := h.service.Update(r.Context(), id, req.input(h.kind))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, h.wireItem(item))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Message(w, "Registro eliminado")
}

func (h *Handler) handleMovements(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Identificador inválido")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	movements, err := h.service.Movements(r.Context(), id, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	rows := make([]map[string]any, 0, len(movements))
	for _, m := range movements {
		rows = append(rows, map[string]any{
			"seq":    m.Seq,
			"delta":  m.Delta,
			"motivo": m.Reason,
			"opId":   m.OpID,
			"fecha":  m.CreatedAt,
		})
	}
	httpx.OK(w, rows)
}

// wireItem renders one record with the per-kind field names the screens
// expect: medications call the stock field cantidadStock and carry lot
// tracking, supplies call it cantidadDisponible and carry location data.
func (h *Handler) wireItem(it Item) map[string]any {
	row := map[string]any{
		"nombre":        it.Nombre,
		"descripcion":   it.Descripcion,
		"creadoEn":      it.CreadoEn,
		"actualizadoEn": it.ActualizadoEn,
	}
	if h.kind == allocation.KindMedication {
		row["medicamentoId"] = it.ItemID
		row["cantidadStock"] = it.CantidadStock
		row["lote"] = it.Lote
		row["fechaCaducidad"] = it.FechaCaducidad
		row["unidadMedida"] = it.UnidadMedida
	} else {
		row["insumoId"] = it.ItemID
		row["cantidadDisponible"] = it.CantidadStock
		row["categoria"] = it.Categoria
		row["unidadMedida"] = it.UnidadMedida
		row["ubicacion"] = it.Ubicacion
		row["responsableId"] = it.ResponsableID
	}
	return row
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNameRequired):
		httpx.Error(w, http.StatusBadRequest, "El nombre es obligatorio")
	case errors.Is(err, ErrNegativeStock):
		httpx.Error(w, http.StatusBadRequest, "El stock no puede ser negativo")
	case errors.Is(err, ErrHasAssignments):
		httpx.Error(w, http.StatusConflict, "El recurso tiene asignaciones activas")
	default:
		httpx.RespondError(w, err)
	}
}

func urlID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("inventory: invalid id")
	}
	return id, nil
}
