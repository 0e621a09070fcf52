package allocation

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hospitalia/hospitalia/internal/platform/httpx"
)

// MetricsRecorder counts assignment outcomes; nil-safe implementations live
// in internal/observability.
type MetricsRecorder interface {
	RecordAssignmentOutcome(kind string, applied bool)
}

// Handler wires the assignment endpoints for one item family. The same
// engine sits behind both /api/medicamentos and /api/insumos; only the
// field names on the wire differ.
type Handler struct {
	logger   *slog.Logger
	engine   *Engine
	kind     Kind
	validate *validator.Validate
	metrics  MetricsRecorder
}

// NewHandler constructs the handler for one kind.
func NewHandler(logger *slog.Logger, engine *Engine, kind Kind, metrics MetricsRecorder) *Handler {
	return &Handler{
		logger:   logger,
		engine:   engine,
		kind:     kind,
		validate: validator.New(),
		metrics:  metrics,
	}
}

// MountRoutes registers the assignment routes on the kind's subrouter.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/asignados/{pacienteId}", h.handleAsignados)
	r.Post("/asignar", h.handleAsignar)
	r.Delete("/desasignar/{pacienteId}/{itemId}", h.handleDesasignar)
}

type asignarItem struct {
	MedicamentoID     int64  `json:"medicamentoId"`
	InsumoID          int64  `json:"insumoId"`
	Cantidad          int64  `json:"cantidad"`
	Dosis             string `json:"dosis"`
	Frecuencia        string `json:"frecuencia"`
	ViaAdministracion string `json:"viaAdministracion"`
}

type asignarRequest struct {
	PacienteID int64 `json:"pacienteId" validate:"required,gt=0"`
	// Reemplazar defaults to true, matching the original frontend contract:
	// an omitted flag replaces the whole set.
	Reemplazar   *bool         `json:"reemplazar"`
	Medicamentos []asignarItem `json:"medicamentos"`
	Insumos      []asignarItem `json:"insumos"`
}

func (h *Handler) handleAsignar(w http.ResponseWriter, r *http.Request) {
	var req asignarRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Datos insuficientes para asignar recursos")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Datos insuficientes para asignar recursos")
		return
	}
	items := h.inputs(req)
	opKey := r.Header.Get("X-Idempotency-Key")

	if req.Reemplazar == nil || *req.Reemplazar {
		assignments, err := h.engine.ReplaceAll(r.Context(), req.PacienteID, h.kind, items, opKey)
		if err != nil {
			h.logger.Error("replace assignments failed",
				slog.Int64("paciente_id", req.PacienteID),
				slog.String("kind", string(h.kind)),
				slog.Any("error", err))
			h.respondEngineError(w, err)
			return
		}
		h.countOutcomes(len(assignments), 0)
		httpx.OK(w, assignments)
		return
	}

	outcomes, err := h.engine.AssignOrMerge(r.Context(), req.PacienteID, h.kind, items, opKey)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	applied, rejected := 0, 0
	for _, out := range outcomes {
		if out.Applied {
			applied++
		} else {
			rejected++
		}
	}
	h.countOutcomes(applied, rejected)
	if rejected > 0 {
		h.logger.Warn("merge applied partially",
			slog.Int64("paciente_id", req.PacienteID),
			slog.String("kind", string(h.kind)),
			slog.Int("applied", applied),
			slog.Int("rejected", rejected))
	}
	httpx.OK(w, outcomes)
}

func (h *Handler) handleAsignados(w http.ResponseWriter, r *http.Request) {
	pacienteID, err := strconv.ParseInt(chi.URLParam(r, "pacienteId"), 10, 64)
	if err != nil || pacienteID <= 0 {
		httpx.Error(w, http.StatusBadRequest, "Falta pacienteId")
		return
	}
	assigned, err := h.engine.ListByPatient(r.Context(), pacienteID, h.kind)
	if err != nil {
		h.logger.Error("list assigned failed", slog.Int64("paciente_id", pacienteID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	rows := make([]map[string]any, 0, len(assigned))
	for _, a := range assigned {
		rows = append(rows, h.wireAssigned(a))
	}
	httpx.OK(w, rows)
}

func (h *Handler) handleDesasignar(w http.ResponseWriter, r *http.Request) {
	pacienteID, err := strconv.ParseInt(chi.URLParam(r, "pacienteId"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Faltan parámetros requeridos")
		return
	}
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemId"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Faltan parámetros requeridos")
		return
	}
	freed, err := h.engine.Release(r.Context(), pacienteID, itemID, r.Header.Get("X-Idempotency-Key"))
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{
		Success: true,
		Message: "Asignación eliminada",
		Data:    map[string]any{"itemId": itemID, "cantidadLiberada": freed},
	})
}

func (h *Handler) inputs(req asignarRequest) []AssignmentInput {
	var raw []asignarItem
	if h.kind == KindMedication {
		raw = req.Medicamentos
	} else {
		raw = req.Insumos
	}
	items := make([]AssignmentInput, 0, len(raw))
	for _, it := range raw {
		id := it.MedicamentoID
		if h.kind == KindSupply {
			id = it.InsumoID
		}
		items = append(items, AssignmentInput{
			ItemID:   id,
			Cantidad: it.Cantidad,
			Meta: Metadata{
				Dosis:             it.Dosis,
				Frecuencia:        it.Frecuencia,
				ViaAdministracion: it.ViaAdministracion,
			},
		})
	}
	return items
}

// wireAssigned renders one assignment with the per-kind field names the
// frontend expects.
func (h *Handler) wireAssigned(a AssignedItem) map[string]any {
	item := map[string]any{
		"nombre":      a.Nombre,
		"descripcion": a.Descripcion,
	}
	row := map[string]any{
		"pacienteId":    a.PacienteID,
		"asignadoEn":    a.AsignadoEn,
		"actualizadoEn": a.ActualizadoEn,
	}
	if h.kind == KindMedication {
		row["medicamentoId"] = a.ItemID
		row["cantidadAsignada"] = a.Cantidad
		row["dosis"] = a.Meta.Dosis
		row["frecuencia"] = a.Meta.Frecuencia
		row["viaAdministracion"] = a.Meta.ViaAdministracion
		item["medicamentoId"] = a.ItemID
		row["medicamento"] = item
	} else {
		row["insumoId"] = a.ItemID
		row["cantidad"] = a.Cantidad
		item["insumoId"] = a.ItemID
		row["insumo"] = item
	}
	return row
}

func (h *Handler) respondEngineError(w http.ResponseWriter, err error) {
	var stockErr *InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		httpx.JSON(w, http.StatusConflict, httpx.Envelope{
			Success: false,
			Error:   "Stock insuficiente para completar la asignación",
			Data: map[string]any{
				"itemId":     stockErr.ItemID,
				"solicitado": stockErr.Requested,
				"disponible": stockErr.Available,
			},
		})
	case errors.Is(err, ErrInvalidQuantity):
		httpx.Error(w, http.StatusBadRequest, "La cantidad debe ser un entero positivo")
	case errors.Is(err, ErrItemNotFound), errors.Is(err, ErrKindMismatch):
		httpx.Error(w, http.StatusNotFound, "Recurso de inventario no encontrado")
	case errors.Is(err, ErrAssignmentNotFound):
		httpx.Error(w, http.StatusNotFound, "Asignación no encontrada")
	default:
		httpx.RespondError(w, err)
	}
}

func (h *Handler) countOutcomes(applied, rejected int) {
	if h.metrics == nil {
		return
	}
	for i := 0; i < applied; i++ {
		h.metrics.RecordAssignmentOutcome(string(h.kind), true)
	}
	for i := 0; i < rejected; i++ {
		h.metrics.RecordAssignmentOutcome(string(h.kind), false)
	}
}
